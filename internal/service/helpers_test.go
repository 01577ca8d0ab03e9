package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/repository"
	"github.com/gymflow/backend/internal/repository/memstore"
	"github.com/stretchr/testify/require"
)

var (
	admin = domain.Actor{ID: "admin-1", Email: "admin@gym.test", Role: domain.RoleAdmin}
	root  = domain.Actor{ID: "root-1", Email: "root@gym.test", Role: domain.RoleRoot}
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

type recorder struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (r *recorder) Publish(evt domain.OrderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func createUser(t *testing.T, store repository.Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID: domain.NewID(), Name: "Member", Email: email, Role: domain.RoleUser,
		CreatedAt: at("2023-12-01T00:00:00Z"), UpdatedAt: at("2023-12-01T00:00:00Z"),
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func createPendingOrder(t *testing.T, store repository.Store, userID, plan string, now time.Time) *domain.PaymentOrder {
	t.Helper()
	o, err := domain.NewPaymentOrder(userID, plan, now)
	require.NoError(t, err)
	require.NoError(t, store.Orders().Create(context.Background(), o))
	return o
}

func saveSubscription(t *testing.T, store repository.Store, userID, plan string, start, end time.Time) {
	t.Helper()
	require.NoError(t, store.Subscriptions().Save(context.Background(), &domain.Subscription{
		ID: domain.NewID(), UserID: userID, Plan: plan, Status: domain.SubscriptionActive,
		StartDate: start, EndDate: end, CreatedAt: start, UpdatedAt: start,
	}))
}

// failingStore fails every subscription write, to exercise rollback.
type failingStore struct {
	repository.Store
}

func (f failingStore) Subscriptions() repository.SubscriptionStore {
	return failingSubscriptions{f.Store.Subscriptions()}
}

func (f failingStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return f.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(failingStore{tx})
	})
}

type failingSubscriptions struct {
	repository.SubscriptionStore
}

func (failingSubscriptions) Save(context.Context, *domain.Subscription) error {
	return errStoreDown
}

var errStoreDown = errors.New("connection reset")

func newMemStore() *memstore.Store { return memstore.New() }
