package service

import (
	"context"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/repository"
)

const recentOrders = 5

// StatsService builds the back-office dashboard.
type StatsService struct {
	store repository.Store
	now   Clock
}

func NewStatsService(store repository.Store, now Clock) *StatsService {
	return &StatsService{store: store, now: now}
}

// Dashboard returns headline counts, approved revenue and the latest orders.
func (s *StatsService) Dashboard(ctx context.Context, actor domain.Actor) (*domain.DashboardStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		stats domain.DashboardStats
		err   error
	)
	if stats.Users, err = s.store.Users().Count(ctx); err != nil {
		return nil, domain.ErrInternal("failed to count users", err)
	}
	if stats.ActiveSubscriptions, err = s.store.Subscriptions().CountActive(ctx, s.now()); err != nil {
		return nil, domain.ErrInternal("failed to count subscriptions", err)
	}
	if stats.PendingOrders, err = s.store.Orders().CountByStatus(ctx, domain.OrderPending); err != nil {
		return nil, domain.ErrInternal("failed to count orders", err)
	}
	if stats.Revenue, err = s.store.Orders().SumApproved(ctx); err != nil {
		return nil, domain.ErrInternal("failed to sum revenue", err)
	}

	recent, _, err := s.store.Orders().List(ctx, domain.OrderFilter{Page: 1, Limit: recentOrders})
	if err != nil {
		return nil, domain.ErrInternal("failed to list orders", err)
	}
	if recent == nil {
		recent = []*domain.PaymentOrder{}
	}
	stats.RecentOrders = recent
	return &stats, nil
}
