package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/logger"
	"github.com/gymflow/backend/internal/metrics"
	"github.com/gymflow/backend/internal/repository"
)

const adminPaymentMethod = "admin-created"

// OrderService handles payment orders and their review.
type OrderService struct {
	store  repository.Store
	events OrderEvents
	now    Clock
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(store repository.Store, events OrderEvents, now Clock) *OrderService {
	return &OrderService{store: store, events: events, now: now}
}

func (s *OrderService) publish(typ string, o *domain.PaymentOrder) {
	if s.events != nil {
		s.events.Publish(domain.OrderEvent{Type: typ, Order: o})
	}
}

// Approve marks a pending order approved and extends the owner's
// subscription by its plan, both in one transaction.
func (s *OrderService) Approve(ctx context.Context, actor domain.Actor, orderID string) (*domain.PaymentOrder, *domain.Subscription, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}

	now := s.now()
	var (
		order *domain.PaymentOrder
		act   *activation
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		order, err = findOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := order.Approve(actor.Email, now); err != nil {
			return err
		}
		if err := review(ctx, tx, order); err != nil {
			return err
		}
		act, err = activateSubscription(ctx, tx, order.UserID, order.Plan, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.OrdersReviewed.WithLabelValues(string(domain.OrderApproved)).Inc()
	act.record()
	logger.FromContext(ctx).Info("order approved",
		"order_id", order.ID, "user_id", order.UserID, "plan", order.Plan,
		"reviewer", actor.Email, "end_date", act.sub.EndDate)
	s.publish(domain.EventOrderApproved, order)
	return order, act.sub, nil
}

// Reject marks a pending order rejected. The subscription is untouched.
func (s *OrderService) Reject(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.PaymentOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	order, err := findOrder(ctx, s.store, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Reject(actor.Email, reason, s.now()); err != nil {
		return nil, err
	}
	if err := review(ctx, s.store, order); err != nil {
		return nil, err
	}

	metrics.OrdersReviewed.WithLabelValues(string(domain.OrderRejected)).Inc()
	logger.FromContext(ctx).Info("order rejected", "order_id", order.ID, "reviewer", actor.Email)
	s.publish(domain.EventOrderRejected, order)
	return order, nil
}

func findOrder(ctx context.Context, store repository.Store, id string) (*domain.PaymentOrder, error) {
	order, err := store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find order", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound("order not found")
	}
	return order, nil
}

// review persists a state-machine transition. A lost race against another
// reviewer surfaces as the same error a late reviewer would get.
func review(ctx context.Context, store repository.Store, order *domain.PaymentOrder) error {
	ok, err := store.Orders().Review(ctx, order)
	if err != nil {
		return domain.ErrInternal("failed to update order", err)
	}
	if ok {
		return nil
	}
	current, err := findOrder(ctx, store, order.ID)
	if err != nil {
		return err
	}
	return domain.ErrNotPending(current.Status)
}

// Checkout creates a pending order for the caller.
func (s *OrderService) Checkout(ctx context.Context, actor domain.Actor, req *domain.CheckoutRequest) (*domain.PaymentOrder, error) {
	now := s.now()
	order, err := domain.NewPaymentOrder(actor.ID, req.PlanID, now)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().FindByID(ctx, actor.ID)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}

	order.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	order.Reference = strings.TrimSpace(req.Reference)
	order.ProofURL = strings.TrimSpace(req.ProofURL)
	order.CustomerName = firstNonEmpty(req.CustomerData.FullName, user.Name)
	order.CustomerEmail = firstNonEmpty(req.CustomerData.Email, user.Email)
	order.CustomerPhone = strings.TrimSpace(req.CustomerData.Phone)
	order.Notes = strings.TrimSpace(req.Notes)

	if err := s.store.Orders().Create(ctx, order); err != nil {
		return nil, domain.ErrInternal("failed to create order", err)
	}

	metrics.OrdersCreated.WithLabelValues("checkout").Inc()
	logger.FromContext(ctx).Info("order created", "order_id", order.ID, "user_id", user.ID, "plan", order.Plan)
	s.publish(domain.EventOrderCreated, order)
	return order, nil
}

// CreateByAdmin creates an order on behalf of a user. With AutoApprove the
// order is stored approved and the subscription is activated in the same
// transaction.
func (s *OrderService) CreateByAdmin(ctx context.Context, actor domain.Actor, req *domain.AdminCreateOrderRequest) (*domain.PaymentOrder, *domain.Subscription, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.PlanID) == "" {
		return nil, nil, domain.ErrBadRequest("userId and planId are required")
	}

	now := s.now()
	order, err := domain.NewPaymentOrder(req.UserID, req.PlanID, now)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.store.Users().FindByID(ctx, req.UserID)
	if err != nil {
		return nil, nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, nil, domain.ErrNotFound("user not found")
	}

	order.PaymentMethod = firstNonEmpty(req.PaymentMethod, adminPaymentMethod)
	order.Reference = firstNonEmpty(req.Reference, fmt.Sprintf("ADMIN-%d", now.UnixMilli()))
	order.Notes = firstNonEmpty(req.Notes, "Order created by administrator: "+actor.Email)
	order.CustomerName = user.Name
	order.CustomerEmail = user.Email

	var act *activation
	if req.AutoApprove {
		if err := order.Approve(actor.Email, now); err != nil {
			return nil, nil, err
		}
		err = s.store.WithTx(ctx, func(tx repository.Store) error {
			if err := tx.Orders().Create(ctx, order); err != nil {
				return domain.ErrInternal("failed to create order", err)
			}
			act, err = activateSubscription(ctx, tx, user.ID, order.Plan, now)
			return err
		})
	} else if err = s.store.Orders().Create(ctx, order); err != nil {
		err = domain.ErrInternal("failed to create order", err)
	}
	if err != nil {
		return nil, nil, err
	}

	metrics.OrdersCreated.WithLabelValues("admin").Inc()
	logger.FromContext(ctx).Info("order created by admin",
		"order_id", order.ID, "user_id", user.ID, "plan", order.Plan,
		"admin", actor.Email, "auto_approve", req.AutoApprove)
	s.publish(domain.EventOrderCreated, order)

	if act == nil {
		return order, nil, nil
	}
	metrics.OrdersReviewed.WithLabelValues(string(domain.OrderApproved)).Inc()
	act.record()
	s.publish(domain.EventOrderApproved, order)
	return order, act.sub, nil
}

// ListForUser returns the caller's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, actor domain.Actor) ([]*domain.PaymentOrder, error) {
	orders, err := s.store.Orders().ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list orders", err)
	}
	if orders == nil {
		orders = []*domain.PaymentOrder{}
	}
	return orders, nil
}

// ListAll returns one page of orders for the back office.
func (s *OrderService) ListAll(ctx context.Context, actor domain.Actor, f domain.OrderFilter) (domain.Page[*domain.PaymentOrder], error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Page[*domain.PaymentOrder]{}, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return domain.Page[*domain.PaymentOrder]{}, domain.ErrBadRequest("status must be one of pending, approved, rejected")
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)

	orders, total, err := s.store.Orders().List(ctx, f)
	if err != nil {
		return domain.Page[*domain.PaymentOrder]{}, domain.ErrInternal("failed to list orders", err)
	}
	return domain.NewPage(orders, f.Page, f.Limit, total), nil
}

// Get returns a single order.
func (s *OrderService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.PaymentOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return findOrder(ctx, s.store, id)
}

// Delete removes an order. Root only; the subscription it may have
// extended is left as is.
func (s *OrderService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireRoot(actor); err != nil {
		return err
	}
	order, err := findOrder(ctx, s.store, id)
	if err != nil {
		return err
	}
	deleted, err := s.store.Orders().Delete(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to delete order", err)
	}
	if !deleted {
		return domain.ErrNotFound("order not found")
	}

	logger.FromContext(ctx).Warn("order deleted", "order_id", id, "root", actor.Email)
	s.publish(domain.EventOrderDeleted, order)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
