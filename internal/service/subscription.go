package service

import (
	"context"
	"time"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/metrics"
	"github.com/gymflow/backend/internal/repository"
)

// SubscriptionService serves membership reads and root deletions.
type SubscriptionService struct {
	store repository.Store
	now   Clock
}

func NewSubscriptionService(store repository.Store, now Clock) *SubscriptionService {
	return &SubscriptionService{store: store, now: now}
}

// Current returns the caller's subscription, or nil if they never had one.
func (s *SubscriptionService) Current(ctx context.Context, actor domain.Actor) (*domain.SubscriptionView, error) {
	sub, err := s.store.Subscriptions().FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, domain.ErrInternal("failed to find subscription", err)
	}
	if sub == nil {
		return nil, nil
	}
	return domain.NewSubscriptionView(sub, s.now()), nil
}

// List returns every subscription matching filter, with its owner.
func (s *SubscriptionService) List(ctx context.Context, actor domain.Actor, filter domain.SubscriptionFilter) ([]*domain.SubscriptionView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	switch filter {
	case "":
		filter = domain.SubscriptionFilterAll
	case domain.SubscriptionFilterAll, domain.SubscriptionFilterActive, domain.SubscriptionFilterExpired:
	default:
		return nil, domain.ErrBadRequest("filter must be one of all, active, expired")
	}

	now := s.now()
	subs, err := s.store.Subscriptions().List(ctx, filter, now)
	if err != nil {
		return nil, domain.ErrInternal("failed to list subscriptions", err)
	}

	views := make([]*domain.SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		view := domain.NewSubscriptionView(sub, now)
		u, err := s.store.Users().FindByID(ctx, sub.UserID)
		if err != nil {
			return nil, domain.ErrInternal("failed to find user", err)
		}
		if u != nil {
			resp := domain.NewUserResponse(u)
			view.User = &resp
		}
		views = append(views, view)
	}
	return views, nil
}

// Delete removes a subscription. Root only.
func (s *SubscriptionService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireRoot(actor); err != nil {
		return err
	}
	deleted, err := s.store.Subscriptions().Delete(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to delete subscription", err)
	}
	if !deleted {
		return domain.ErrNotFound("subscription not found")
	}
	return nil
}

type activation struct {
	sub  *domain.Subscription
	kind string // new, extended or renewed
}

func (a *activation) record() {
	if a != nil {
		metrics.SubscriptionsActivated.WithLabelValues(a.kind, a.sub.Plan).Inc()
	}
}

// activateSubscription merges plan into the user's subscription. It must run
// inside tx so the merge commits or rolls back with the order write.
func activateSubscription(ctx context.Context, tx repository.Store, userID, plan string, now time.Time) (*activation, error) {
	subs := tx.Subscriptions()
	if err := subs.LockUser(ctx, userID); err != nil {
		return nil, domain.ErrInternal("failed to lock subscription", err)
	}
	existing, err := subs.FindByUserID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to find subscription", err)
	}

	period, err := domain.MergeSubscription(existing, plan, now)
	if err != nil {
		return nil, err
	}

	kind := "extended"
	sub := existing
	switch {
	case sub == nil:
		kind = "new"
		sub = &domain.Subscription{ID: domain.NewID(), UserID: userID, CreatedAt: now}
	case !sub.EndDate.After(now):
		kind = "renewed"
	}
	period.Apply(sub)
	sub.UpdatedAt = now

	if err := subs.Save(ctx, sub); err != nil {
		return nil, domain.ErrInternal("failed to save subscription", err)
	}
	return &activation{sub: sub, kind: kind}, nil
}
