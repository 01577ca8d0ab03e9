// Package memstore is an in-memory repository.Store used for local
// development without PostgreSQL and in tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/repository"
	"github.com/shopspring/decimal"
)

type dataset struct {
	users  map[string]*domain.User
	orders map[string]*domain.PaymentOrder
	subs   map[string]*domain.Subscription
}

func newDataset() *dataset {
	return &dataset{
		users:  make(map[string]*domain.User),
		orders: make(map[string]*domain.PaymentOrder),
		subs:   make(map[string]*domain.Subscription),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range d.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range d.subs {
		c.subs[k] = copySub(v)
	}
	return c
}

// Store is an in-memory implementation of repository.Store.
//
// A transaction holds the write lock for its whole duration and works on a
// private copy of the data, which replaces the shared data on commit.
type Store struct {
	mu   *sync.RWMutex // nil inside a transaction
	data *dataset
	tx   bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{mu: &sync.RWMutex{}, data: newDataset()}
}

func (s *Store) rlock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) lock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() repository.UserStore                 { return &users{s} }
func (s *Store) Orders() repository.OrderStore               { return &orders{s} }
func (s *Store) Subscriptions() repository.SubscriptionStore { return &subscriptions{s} }

// WithTx runs fn against a copy of the data and keeps the copy only if fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{data: s.data.clone(), tx: true}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyOrder(o *domain.PaymentOrder) *domain.PaymentOrder {
	c := *o
	return &c
}

func copySub(sub *domain.Subscription) *domain.Subscription {
	c := *sub
	return &c
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := 0
	if page > 1 {
		start = (page - 1) * limit
	}
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type users struct{ s *Store }

func (r *users) Create(ctx context.Context, u *domain.User) error {
	defer r.s.lock()()
	for _, existing := range r.s.data.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("failed to create user: email %s already exists", u.Email)
		}
	}
	r.s.data.users[u.ID] = copyUser(u)
	return nil
}

func (r *users) FindByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.rlock()()
	if u, ok := r.s.data.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r *users) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.rlock()()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *users) Exists(ctx context.Context, email string) (bool, error) {
	u, err := r.FindByEmail(ctx, email)
	return u != nil, err
}

func (r *users) List(ctx context.Context, f domain.UserFilter) ([]*domain.User, int64, error) {
	defer r.s.rlock()()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []*domain.User
	for _, u := range r.s.data.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Page, f.Limit), int64(len(out)), nil
}

func (r *users) Update(ctx context.Context, u *domain.User) error {
	defer r.s.lock()()
	if _, ok := r.s.data.users[u.ID]; !ok {
		return nil
	}
	r.s.data.users[u.ID] = copyUser(u)
	return nil
}

func (r *users) Delete(ctx context.Context, id string) (bool, error) {
	defer r.s.lock()()
	if _, ok := r.s.data.users[id]; !ok {
		return false, nil
	}
	delete(r.s.data.users, id)
	for oid, o := range r.s.data.orders {
		if o.UserID == id {
			delete(r.s.data.orders, oid)
		}
	}
	for sid, sub := range r.s.data.subs {
		if sub.UserID == id {
			delete(r.s.data.subs, sid)
		}
	}
	return true, nil
}

func (r *users) Count(ctx context.Context) (int64, error) {
	defer r.s.rlock()()
	return int64(len(r.s.data.users)), nil
}

type orders struct{ s *Store }

func (r *orders) Create(ctx context.Context, o *domain.PaymentOrder) error {
	defer r.s.lock()()
	if _, ok := r.s.data.users[o.UserID]; !ok {
		return fmt.Errorf("failed to create order: user %s does not exist", o.UserID)
	}
	r.s.data.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *orders) FindByID(ctx context.Context, id string) (*domain.PaymentOrder, error) {
	defer r.s.rlock()()
	if o, ok := r.s.data.orders[id]; ok {
		return copyOrder(o), nil
	}
	return nil, nil
}

func newestFirst(out []*domain.PaymentOrder) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}

func (r *orders) ListByUser(ctx context.Context, userID string) ([]*domain.PaymentOrder, error) {
	defer r.s.rlock()()
	var out []*domain.PaymentOrder
	for _, o := range r.s.data.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *orders) List(ctx context.Context, f domain.OrderFilter) ([]*domain.PaymentOrder, int64, error) {
	defer r.s.rlock()()
	var out []*domain.PaymentOrder
	for _, o := range r.s.data.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, copyOrder(o))
	}
	newestFirst(out)
	return paginate(out, f.Page, f.Limit), int64(len(out)), nil
}

func (r *orders) Review(ctx context.Context, o *domain.PaymentOrder) (bool, error) {
	defer r.s.lock()()
	stored, ok := r.s.data.orders[o.ID]
	if !ok || stored.Status != domain.OrderPending {
		return false, nil
	}
	stored.Status = o.Status
	stored.ReviewedBy = o.ReviewedBy
	stored.ReviewedAt = o.ReviewedAt
	stored.Notes = o.Notes
	stored.UpdatedAt = o.UpdatedAt
	return true, nil
}

func (r *orders) Delete(ctx context.Context, id string) (bool, error) {
	defer r.s.lock()()
	if _, ok := r.s.data.orders[id]; !ok {
		return false, nil
	}
	delete(r.s.data.orders, id)
	return true, nil
}

func (r *orders) CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error) {
	defer r.s.rlock()()
	var n int64
	for _, o := range r.s.data.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *orders) SumApproved(ctx context.Context) (decimal.Decimal, error) {
	defer r.s.rlock()()
	sum := decimal.Zero
	for _, o := range r.s.data.orders {
		if o.Status == domain.OrderApproved {
			sum = sum.Add(o.Amount)
		}
	}
	return sum, nil
}

type subscriptions struct{ s *Store }

// LockUser is a no-op: transactions already hold the store's write lock.
func (r *subscriptions) LockUser(ctx context.Context, userID string) error { return nil }

func (r *subscriptions) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	defer r.s.rlock()()
	if sub, ok := r.s.data.subs[id]; ok {
		return copySub(sub), nil
	}
	return nil, nil
}

func (r *subscriptions) FindByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	defer r.s.rlock()()
	for _, sub := range r.s.data.subs {
		if sub.UserID == userID {
			return copySub(sub), nil
		}
	}
	return nil, nil
}

func (r *subscriptions) Save(ctx context.Context, sub *domain.Subscription) error {
	defer r.s.lock()()
	if _, ok := r.s.data.users[sub.UserID]; !ok {
		return fmt.Errorf("failed to save subscription: user %s does not exist", sub.UserID)
	}
	for id, existing := range r.s.data.subs {
		if existing.UserID == sub.UserID {
			sub.ID = id
			sub.CreatedAt = existing.CreatedAt
			break
		}
	}
	r.s.data.subs[sub.ID] = copySub(sub)
	return nil
}

func (r *subscriptions) List(ctx context.Context, filter domain.SubscriptionFilter, now time.Time) ([]*domain.Subscription, error) {
	defer r.s.rlock()()
	var out []*domain.Subscription
	for _, sub := range r.s.data.subs {
		active := sub.IsActiveAt(now)
		if filter == domain.SubscriptionFilterActive && !active ||
			filter == domain.SubscriptionFilterExpired && active {
			continue
		}
		out = append(out, copySub(sub))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.After(out[j].EndDate) })
	return out, nil
}

func (r *subscriptions) Delete(ctx context.Context, id string) (bool, error) {
	defer r.s.lock()()
	if _, ok := r.s.data.subs[id]; !ok {
		return false, nil
	}
	delete(r.s.data.subs, id)
	return true, nil
}

func (r *subscriptions) CountActive(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.rlock()()
	var n int64
	for _, sub := range r.s.data.subs {
		if sub.IsActiveAt(now) {
			n++
		}
	}
	return n, nil
}
