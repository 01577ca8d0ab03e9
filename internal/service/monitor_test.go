package service

import (
	"context"
	"testing"
	"time"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestMonitorCollect(t *testing.T) {
	store := newMemStore()
	now := at("2024-03-10T12:00:00Z")

	ana := createUser(t, store, "ana@example.com")
	bob := createUser(t, store, "bob@example.com")
	saveSubscription(t, store, ana.ID, domain.PlanWeekly, now.AddDate(0, 0, -1), now.AddDate(0, 0, 6))
	saveSubscription(t, store, bob.ID, domain.PlanDaily, now.AddDate(0, 0, -3), now.AddDate(0, 0, -2))
	createPendingOrder(t, store, bob.ID, domain.PlanDaily, now)
	createPendingOrder(t, store, ana.ID, domain.PlanMonthly, now)

	mon := NewMonitorService(store, func() time.Time { return now }, 0)
	assert.Equal(t, time.Minute, mon.interval)

	mon.collect(context.Background())
	assert.Equal(t, 1.0, gaugeValue(t, metrics.ActiveSubscriptions))
	assert.Equal(t, 2.0, gaugeValue(t, metrics.PendingOrders))
}
