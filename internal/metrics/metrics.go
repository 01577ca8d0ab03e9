// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized or forbidden requests",
		},
		[]string{"reason"},
	)
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_created_total",
			Help: "Payment orders created, by source",
		},
		[]string{"source"},
	)
	OrdersReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_reviewed_total",
			Help: "Payment orders reviewed, by outcome",
		},
		[]string{"outcome"},
	)
	SubscriptionsActivated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_activated_total",
			Help: "Subscription activations, by kind (new, extended, renewed)",
		},
		[]string{"kind", "plan"},
	)
	ActiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subscriptions_active",
			Help: "Subscriptions granting access at the last collection",
		},
	)
	PendingOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payment_orders_pending",
			Help: "Payment orders awaiting review at the last collection",
		},
	)
)

// Register adds all collectors to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthRejections,
		OrdersCreated,
		OrdersReviewed,
		SubscriptionsActivated,
		ActiveSubscriptions,
		PendingOrders,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
