package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the review state of a payment order.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderApproved OrderStatus = "approved"
	OrderRejected OrderStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderRejected:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// Only pending orders move, and only once.
func CanTransition(from, to OrderStatus) bool {
	return from == OrderPending && (to == OrderApproved || to == OrderRejected)
}

const defaultRejectNote = "Rejected by administrator"

// PaymentOrder is one payment submission awaiting or having received review.
type PaymentOrder struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Plan          string          `json:"plan"`
	Amount        decimal.Decimal `json:"amount"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	Reference     string          `json:"reference"`
	ProofURL      string          `json:"proofUrl,omitempty"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone"`
	Notes         string          `json:"notes"`
	ReviewedBy    *string         `json:"reviewedBy"` // reviewer email
	ReviewedAt    *time.Time      `json:"reviewedAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewPaymentOrder builds a pending order for plan with its catalogue price.
func NewPaymentOrder(userID, plan string, now time.Time) (*PaymentOrder, error) {
	price, err := PriceOf(plan)
	if err != nil {
		return nil, err
	}
	return &PaymentOrder{
		ID:        uuid.New().String(),
		UserID:    userID,
		Plan:      plan,
		Amount:    price,
		Status:    OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Approve moves a pending order to approved.
func (o *PaymentOrder) Approve(reviewer string, now time.Time) error {
	if !CanTransition(o.Status, OrderApproved) {
		return invalidTransition("only pending orders can be approved")
	}
	if !IsValidPlan(o.Plan) {
		return invalidPlan(o.Plan)
	}
	o.markReviewed(OrderApproved, reviewer, now)
	return nil
}

// Reject moves a pending order to rejected, recording the reason in notes.
func (o *PaymentOrder) Reject(reviewer, reason string, now time.Time) error {
	if !CanTransition(o.Status, OrderRejected) {
		return invalidTransition("only pending orders can be rejected")
	}
	o.markReviewed(OrderRejected, reviewer, now)
	o.Notes = RejectionNote(reason)
	return nil
}

func (o *PaymentOrder) markReviewed(status OrderStatus, reviewer string, now time.Time) {
	o.Status = status
	o.ReviewedBy = &reviewer
	reviewedAt := now
	o.ReviewedAt = &reviewedAt
	o.UpdatedAt = now
}

// RejectionNote formats the notes stored on a rejected order.
func RejectionNote(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return defaultRejectNote
	}
	return "Rejected: " + reason
}

// CustomerData is the contact block submitted at checkout.
type CustomerData struct {
	FullName string `json:"fullName" validate:"max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=50"`
}

// CheckoutRequest is the end-user order submission.
type CheckoutRequest struct {
	PlanID        string       `json:"planId" validate:"required"`
	PaymentMethod string       `json:"paymentMethod" validate:"max=50"`
	Reference     string       `json:"reference" validate:"max=200"`
	ProofURL      string       `json:"proofUrl" validate:"max=500"`
	CustomerData  CustomerData `json:"customerData"`
	Notes         string       `json:"notes" validate:"max=1000"`
}

// AdminCreateOrderRequest is the back-office order creation input.
type AdminCreateOrderRequest struct {
	UserID        string `json:"userId" validate:"required"`
	PlanID        string `json:"planId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"max=50"`
	Reference     string `json:"reference" validate:"max=200"`
	Notes         string `json:"notes" validate:"max=1000"`
	AutoApprove   bool   `json:"autoApprove"`
}

// RejectOrderRequest carries the optional rejection reason.
type RejectOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// OrderFilter narrows the admin order list.
type OrderFilter struct {
	Status OrderStatus
	Page   int
	Limit  int
}

// OrderEvent is broadcast to back-office listeners when an order changes.
type OrderEvent struct {
	Type  string        `json:"type"`
	Order *PaymentOrder `json:"order"`
}

// Order event types.
const (
	EventOrderCreated  = "order.created"
	EventOrderApproved = "order.approved"
	EventOrderRejected = "order.rejected"
	EventOrderDeleted  = "order.deleted"
)
