package repository

import (
	"context"
	"time"

	"github.com/gymflow/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Lookups return (nil, nil) when the row does not exist; deletes report
// whether a row was removed.

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, f domain.UserFilter) ([]*domain.User, int64, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// OrderStore persists payment orders.
type OrderStore interface {
	Create(ctx context.Context, o *domain.PaymentOrder) error
	FindByID(ctx context.Context, id string) (*domain.PaymentOrder, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.PaymentOrder, error)
	List(ctx context.Context, f domain.OrderFilter) ([]*domain.PaymentOrder, int64, error)
	// Review stores the reviewed status, reviewer and notes of o, but only
	// while the stored order is still pending. It reports whether the row
	// was updated.
	Review(ctx context.Context, o *domain.PaymentOrder) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error)
	SumApproved(ctx context.Context) (decimal.Decimal, error)
}

// SubscriptionStore persists the one-per-user subscription.
type SubscriptionStore interface {
	// LockUser serialises subscription writes for userID until the
	// surrounding transaction ends.
	LockUser(ctx context.Context, userID string) error
	FindByID(ctx context.Context, id string) (*domain.Subscription, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Subscription, error)
	// Save creates or updates the subscription keyed by its user.
	Save(ctx context.Context, sub *domain.Subscription) error
	List(ctx context.Context, filter domain.SubscriptionFilter, now time.Time) ([]*domain.Subscription, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// Store groups the repositories behind one transaction boundary.
type Store interface {
	Users() UserStore
	Orders() OrderStore
	Subscriptions() SubscriptionStore
	// WithTx runs fn against a transactional view of the store. All writes
	// made through that view commit together when fn returns nil and are
	// discarded otherwise. Nested calls join the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
