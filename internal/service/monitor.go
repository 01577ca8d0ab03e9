package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/metrics"
	"github.com/gymflow/backend/internal/repository"
)

// MonitorService periodically refreshes the membership gauges.
type MonitorService struct {
	store    repository.Store
	now      Clock
	interval time.Duration
}

// NewMonitorService creates a new monitor service.
func NewMonitorService(store repository.Store, now Clock, interval time.Duration) *MonitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MonitorService{store: store, now: now, interval: interval}
}

// Start begins the collection loop in a background goroutine. It stops with ctx.
func (s *MonitorService) Start(ctx context.Context) {
	go func() {
		s.collect(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.collect(ctx)
			}
		}
	}()
}

func (s *MonitorService) collect(ctx context.Context) {
	active, err := s.store.Subscriptions().CountActive(ctx, s.now())
	if err != nil {
		slog.Warn("[Monitor] failed to count active subscriptions", "error", err)
	} else {
		metrics.ActiveSubscriptions.Set(float64(active))
	}

	pending, err := s.store.Orders().CountByStatus(ctx, domain.OrderPending)
	if err != nil {
		slog.Warn("[Monitor] failed to count pending orders", "error", err)
	} else {
		metrics.PendingOrders.Set(float64(pending))
	}
}
