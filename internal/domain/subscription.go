package domain

import (
	"math"
	"time"
)

// Subscription statuses. Expiry is not a stored status: an "active"
// subscription whose end date has passed is expired at read time.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// Subscription is the single membership record of a user.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsActiveAt reports whether the subscription grants access at t.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s != nil && s.Status == SubscriptionActive && s.EndDate.After(t)
}

// DaysLeft returns the whole days remaining at t, rounded up, or 0 once expired.
func (s *Subscription) DaysLeft(t time.Time) int {
	if !s.IsActiveAt(t) {
		return 0
	}
	return int(math.Ceil(s.EndDate.Sub(t).Hours() / 24))
}

// SubscriptionPeriod is the outcome of merging a newly approved plan into
// a user's membership.
type SubscriptionPeriod struct {
	Plan      string
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

// MergeSubscription computes the membership period after approving plan
// code at now. While existing is still running the new period is appended
// to its end; once it has lapsed the new period starts at now and the
// overdue time is not carried forward.
func MergeSubscription(existing *Subscription, code string, now time.Time) (SubscriptionPeriod, error) {
	start, base := now, now
	if existing != nil && existing.EndDate.After(now) {
		start, base = existing.StartDate, existing.EndDate
	}

	end, err := EndOf(code, base)
	if err != nil {
		return SubscriptionPeriod{}, err
	}

	return SubscriptionPeriod{
		Plan:      code,
		Status:    SubscriptionActive,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// Apply copies the period onto the subscription.
func (p SubscriptionPeriod) Apply(sub *Subscription) {
	sub.Plan = p.Plan
	sub.Status = p.Status
	sub.StartDate = p.StartDate
	sub.EndDate = p.EndDate
}

// SubscriptionView is the API response for a user's current subscription.
type SubscriptionView struct {
	*Subscription
	Active   bool          `json:"active"`
	DaysLeft int           `json:"daysLeft"`
	User     *UserResponse `json:"user,omitempty"`
}

// NewSubscriptionView annotates sub with its state at now.
func NewSubscriptionView(sub *Subscription, now time.Time) *SubscriptionView {
	return &SubscriptionView{
		Subscription: sub,
		Active:       sub.IsActiveAt(now),
		DaysLeft:     sub.DaysLeft(now),
	}
}

// SubscriptionFilter narrows the admin subscription list.
type SubscriptionFilter string

const (
	SubscriptionFilterAll     SubscriptionFilter = "all"
	SubscriptionFilterActive  SubscriptionFilter = "active"
	SubscriptionFilterExpired SubscriptionFilter = "expired"
)
