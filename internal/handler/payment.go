package handler

import (
	"net/http"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/service"
)

// PaymentHandler serves the member side of orders and subscriptions.
type PaymentHandler struct {
	orders        *service.OrderService
	subscriptions *service.SubscriptionService
}

func NewPaymentHandler(orders *service.OrderService, subscriptions *service.SubscriptionService) *PaymentHandler {
	return &PaymentHandler{orders: orders, subscriptions: subscriptions}
}

// CreateOrder handles POST /api/payment/create-order.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.CheckoutRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		Error(w, err)
		return
	}

	order, err := h.orders.Checkout(r.Context(), actor, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"message": "order created, pending review",
		"order":   order,
	})
}

// ListOrders handles GET /api/payment/orders.
func (h *PaymentHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}

	orders, err := h.orders.ListForUser(r.Context(), actor)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// CurrentSubscription handles GET /api/subscription.
func (h *PaymentHandler) CurrentSubscription(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}

	view, err := h.subscriptions.Current(r.Context(), actor)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"subscription": view})
}
