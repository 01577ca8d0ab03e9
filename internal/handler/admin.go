package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/service"
)

// AdminHandler serves the back office.
type AdminHandler struct {
	auth          *service.AuthService
	orders        *service.OrderService
	subscriptions *service.SubscriptionService
	stats         *service.StatsService
}

func NewAdminHandler(
	auth *service.AuthService,
	orders *service.OrderService,
	subscriptions *service.SubscriptionService,
	stats *service.StatsService,
) *AdminHandler {
	return &AdminHandler{
		auth:          auth,
		orders:        orders,
		subscriptions: subscriptions,
		stats:         stats,
	}
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}
	stats, err := h.stats.Dashboard(r.Context(), actor)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, stats)
}

// ListOrders handles GET /api/admin/orders?status=&page=&limit=.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}
	page, err := h.orders.ListAll(r.Context(), actor, domain.OrderFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, page)
}

// GetOrder handles GET /api/admin/orders/{id}.
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}
	order, err := h.orders.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, order)
}

// CreateOrder handles POST /api/admin/orders.
func (h *AdminHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.AdminCreateOrderRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		Error(w, err)
		return
	}

	order, sub, err := h.orders.CreateByAdmin(r.Context(), actor, &req)
	if err != nil {
		Error(w, err)
		return
	}

	msg := "order created"
	if req.AutoApprove {
		msg = "order created and approved"
	}
	JSON(w, http.StatusCreated, map[string]interface{}{
		"message":      msg,
		"order":        order,
		"subscription": sub,
	})
}

// ApproveOrder handles POST /api/admin/orders/{id}/approve.
func (h *AdminHandler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}

	order, sub, err := h.orders.Approve(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message":      "order approved and subscription activated",
		"order":        order,
		"subscription": sub,
	})
}

// RejectOrder handles POST /api/admin/orders/{id}/reject. The body is optional.
func (h *AdminHandler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}

	var req domain.RejectOrderRequest
	if err := DecodeOptionalAndValidate(r, &req); err != nil {
		Error(w, err)
		return
	}

	order, err := h.orders.Reject(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "order rejected",
		"order":   order,
	})
}

// DeleteOrder handles DELETE /api/admin/orders/{id} (root).
func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}
	if err := h.orders.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// ListSubscriptions handles GET /api/admin/subscriptions?filter=all|active|expired.
func (h *AdminHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}
	filter := domain.SubscriptionFilter(r.URL.Query().Get("filter"))
	subs, err := h.subscriptions.List(r.Context(), actor, filter)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"subscriptions": subs})
}

// DeleteSubscription handles DELETE /api/admin/subscriptions/{id} (root).
func (h *AdminHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		Error(w, err)
		return
	}
	if err := h.subscriptions.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "subscription deleted"})
}
