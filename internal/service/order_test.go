package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gymflow/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove_CreatesSubscription(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	events := &recorder{}
	svc := NewOrderService(store, events, clock.Now)

	user := createUser(t, store, "ana@example.com")
	order := createPendingOrder(t, store, user.ID, domain.PlanWeekly, clock.Now())

	approved, sub, err := svc.Approve(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, admin.Email, *approved.ReviewedBy)

	require.NotNil(t, sub)
	assert.True(t, sub.StartDate.Equal(at("2024-01-01T00:00:00Z")))
	assert.True(t, sub.EndDate.Equal(at("2024-01-08T00:00:00Z")))

	stored, err := store.Subscriptions().FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.EndDate.Equal(at("2024-01-08T00:00:00Z")))
	assert.Equal(t, []string{domain.EventOrderApproved}, events.types())
}

func TestApprove_ExtendsActiveSubscription(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-05T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)

	user := createUser(t, store, "ana@example.com")
	saveSubscription(t, store, user.ID, domain.PlanWeekly, at("2024-01-03T00:00:00Z"), at("2024-01-10T00:00:00Z"))
	order := createPendingOrder(t, store, user.ID, domain.PlanDaily, clock.Now())

	_, sub, err := svc.Approve(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.True(t, sub.EndDate.Equal(at("2024-01-11T00:00:00Z")), "got %s", sub.EndDate)
	assert.True(t, sub.StartDate.Equal(at("2024-01-03T00:00:00Z")))
	assert.Equal(t, domain.PlanDaily, sub.Plan)

	all, err := store.Subscriptions().List(ctx, domain.SubscriptionFilterAll, clock.Now())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestApprove_RestartsExpiredSubscription(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-02-15T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)

	user := createUser(t, store, "ana@example.com")
	saveSubscription(t, store, user.ID, domain.PlanDaily, at("2023-12-31T00:00:00Z"), at("2024-01-01T00:00:00Z"))
	order := createPendingOrder(t, store, user.ID, domain.PlanMonthly, clock.Now())

	_, sub, err := svc.Approve(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.True(t, sub.StartDate.Equal(at("2024-02-15T00:00:00Z")))
	assert.True(t, sub.EndDate.Equal(at("2024-03-15T00:00:00Z")), "got %s", sub.EndDate)
}

func TestApprove_StacksConsecutivePlans(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)

	user := createUser(t, store, "ana@example.com")
	first := createPendingOrder(t, store, user.ID, domain.PlanFortnight, clock.Now())
	second := createPendingOrder(t, store, user.ID, domain.PlanMonthly, clock.Now())

	_, _, err := svc.Approve(ctx, admin, first.ID)
	require.NoError(t, err)
	_, sub, err := svc.Approve(ctx, admin, second.ID)
	require.NoError(t, err)

	afterFirst, _ := domain.EndOf(domain.PlanFortnight, clock.Now())
	want, _ := domain.EndOf(domain.PlanMonthly, afterFirst)
	assert.True(t, sub.EndDate.Equal(want), "got %s want %s", sub.EndDate, want)
}

func TestApprove_TwiceFailsWithoutDoubleExtension(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)

	user := createUser(t, store, "ana@example.com")
	order := createPendingOrder(t, store, user.ID, domain.PlanWeekly, clock.Now())

	_, _, err := svc.Approve(ctx, admin, order.ID)
	require.NoError(t, err)

	_, _, err = svc.Approve(ctx, admin, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	sub, err := store.Subscriptions().FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, sub.EndDate.Equal(at("2024-01-08T00:00:00Z")))
}

func TestApprove_ConcurrentCallsApplyOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)

	user := createUser(t, store, "ana@example.com")
	order := createPendingOrder(t, store, user.ID, domain.PlanDaily, clock.Now())

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Approve(ctx, admin, order.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	sub, err := store.Subscriptions().FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, sub.EndDate.Equal(at("2024-01-02T00:00:00Z")))
}

// raceReview approves and rejects order at the same time and reports which
// call won. Exactly one of them must succeed.
func raceReview(t *testing.T, svc *OrderService, orderID string) domain.OrderStatus {
	t.Helper()
	ctx := context.Background()
	start := make(chan struct{})
	var (
		wg                    sync.WaitGroup
		approveErr, rejectErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, _, approveErr = svc.Approve(ctx, admin, orderID)
	}()
	go func() {
		defer wg.Done()
		<-start
		_, rejectErr = svc.Reject(ctx, root, orderID, "duplicate")
	}()
	close(start)
	wg.Wait()

	switch {
	case approveErr == nil && rejectErr != nil:
		assert.ErrorIs(t, rejectErr, domain.ErrInvalidTransition)
		return domain.OrderApproved
	case rejectErr == nil && approveErr != nil:
		assert.ErrorIs(t, approveErr, domain.ErrInvalidTransition)
		return domain.OrderRejected
	default:
		t.Fatalf("approve=%v reject=%v: exactly one review must succeed", approveErr, rejectErr)
		return ""
	}
}

func TestApproveRejectRace_OneOutcomeWins(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)
	user := createUser(t, store, "ana@example.com")

	approvals := 0
	for i := 0; i < 20; i++ {
		order := createPendingOrder(t, store, user.ID, domain.PlanWeekly, clock.Now())
		winner := raceReview(t, svc, order.ID)

		stored, err := store.Orders().FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, winner, stored.Status)
		require.NotNil(t, stored.ReviewedBy)
		if winner == domain.OrderApproved {
			approvals++
			assert.Equal(t, admin.Email, *stored.ReviewedBy)
		} else {
			assert.Equal(t, root.Email, *stored.ReviewedBy)
			assert.Equal(t, "Rejected: duplicate", stored.Notes)
		}
	}

	sub, err := store.Subscriptions().FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	if approvals == 0 {
		assert.Nil(t, sub)
		return
	}
	require.NotNil(t, sub)
	assert.True(t, sub.EndDate.Equal(clock.Now().AddDate(0, 0, 7*approvals)), "end %s after %d approvals", sub.EndDate, approvals)
}

func TestApprove_RejectedOrderIsUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)

	user := createUser(t, store, "ana@example.com")
	order := createPendingOrder(t, store, user.ID, domain.PlanWeekly, clock.Now())
	_, err := svc.Reject(ctx, admin, order.ID, "")
	require.NoError(t, err)

	_, _, err = svc.Approve(ctx, admin, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRejected, stored.Status)
	sub, err := store.Subscriptions().FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestApprove_NotFoundAndUnauthorized(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)

	_, _, err := svc.Approve(ctx, admin, "missing")
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	member := domain.Actor{ID: "u-1", Role: domain.RoleUser}
	_, _, err = svc.Approve(ctx, member, "missing")
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.Code)
}

func TestApprove_RollsBackWhenSubscriptionWriteFails(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(failingStore{store}, nil, clock.Now)

	user := createUser(t, store, "ana@example.com")
	order := createPendingOrder(t, store, user.ID, domain.PlanWeekly, clock.Now())

	_, _, err := svc.Approve(ctx, admin, order.ID)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)

	stored, err := store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, stored.Status)
	assert.Nil(t, stored.ReviewedBy)
}

func TestReject_RecordsReason(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	events := &recorder{}
	svc := NewOrderService(store, events, clock.Now)

	user := createUser(t, store, "ana@example.com")
	order := createPendingOrder(t, store, user.ID, domain.PlanWeekly, clock.Now())

	rejected, err := svc.Reject(ctx, admin, order.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRejected, rejected.Status)
	assert.Contains(t, rejected.Notes, "duplicate")

	sub, err := store.Subscriptions().FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, sub)

	_, err = svc.Reject(ctx, admin, order.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, []string{domain.EventOrderRejected}, events.types())
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)
	user := createUser(t, store, "ana@example.com")
	actor := user.Actor()

	order, err := svc.Checkout(ctx, actor, &domain.CheckoutRequest{
		PlanID:        domain.PlanMonthly,
		PaymentMethod: "transfer",
		Reference:     "TX-1",
		CustomerData:  domain.CustomerData{Phone: "555-0100"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, "37.99", order.Amount.StringFixed(2))
	assert.Equal(t, user.Email, order.CustomerEmail)
	assert.Equal(t, "555-0100", order.CustomerPhone)

	_, err = svc.Checkout(ctx, actor, &domain.CheckoutRequest{PlanID: "anual"})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)

	ghost := domain.Actor{ID: "ghost", Role: domain.RoleUser}
	_, err = svc.Checkout(ctx, ghost, &domain.CheckoutRequest{PlanID: domain.PlanDaily})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	mine, err := svc.ListForUser(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCreateByAdmin_Defaults(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)
	user := createUser(t, store, "ana@example.com")

	order, sub, err := svc.CreateByAdmin(ctx, admin, &domain.AdminCreateOrderRequest{UserID: user.ID, PlanID: domain.PlanDaily})
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, "admin-created", order.PaymentMethod)
	assert.Equal(t, "ADMIN-1704067200000", order.Reference)
	assert.Equal(t, "Order created by administrator: admin@gym.test", order.Notes)
}

func TestCreateByAdmin_AutoApprove(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	events := &recorder{}
	svc := NewOrderService(store, events, clock.Now)
	user := createUser(t, store, "ana@example.com")

	order, sub, err := svc.CreateByAdmin(ctx, admin, &domain.AdminCreateOrderRequest{
		UserID: user.ID, PlanID: domain.PlanWeekly, AutoApprove: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderApproved, order.Status)
	require.NotNil(t, order.ReviewedAt)
	require.NotNil(t, sub)
	assert.True(t, sub.EndDate.Equal(at("2024-01-08T00:00:00Z")))
	assert.Equal(t, []string{domain.EventOrderCreated, domain.EventOrderApproved}, events.types())
}

func TestCreateByAdmin_Errors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)
	user := createUser(t, store, "ana@example.com")

	tests := []struct {
		name string
		req  domain.AdminCreateOrderRequest
		code int
	}{
		{"missing user", domain.AdminCreateOrderRequest{PlanID: domain.PlanDaily}, http.StatusBadRequest},
		{"missing plan", domain.AdminCreateOrderRequest{UserID: user.ID}, http.StatusBadRequest},
		{"unknown plan", domain.AdminCreateOrderRequest{UserID: user.ID, PlanID: "anual"}, http.StatusBadRequest},
		{"unknown user", domain.AdminCreateOrderRequest{UserID: "ghost", PlanID: domain.PlanDaily}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.CreateByAdmin(ctx, admin, &tt.req)
			appErr, ok := domain.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}

	_, _, err := svc.CreateByAdmin(ctx, admin, &domain.AdminCreateOrderRequest{
		UserID: "ghost", PlanID: domain.PlanDaily, AutoApprove: true,
	})
	require.Error(t, err)
	sub, err := store.Subscriptions().FindByUserID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestListAllAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fixedClock{now: at("2024-01-01T00:00:00Z")}
	svc := NewOrderService(store, nil, clock.Now)
	user := createUser(t, store, "ana@example.com")
	first := createPendingOrder(t, store, user.ID, domain.PlanDaily, clock.Now())
	createPendingOrder(t, store, user.ID, domain.PlanWeekly, clock.Now())
	_, _, err := svc.Approve(ctx, admin, first.ID)
	require.NoError(t, err)

	page, err := svc.ListAll(ctx, admin, domain.OrderFilter{Status: domain.OrderPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 20, page.Limit)

	_, err = svc.ListAll(ctx, admin, domain.OrderFilter{Status: "paid"})
	assert.Error(t, err)

	err = svc.Delete(ctx, admin, first.ID)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.Code)

	require.NoError(t, svc.Delete(ctx, root, first.ID))
	_, err = svc.Get(ctx, admin, first.ID)
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}
