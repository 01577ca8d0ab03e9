package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSubscription_NoExisting(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	p, err := MergeSubscription(nil, PlanWeekly, now)
	require.NoError(t, err)
	assert.Equal(t, PlanWeekly, p.Plan)
	assert.Equal(t, SubscriptionActive, p.Status)
	assert.True(t, p.StartDate.Equal(now))
	assert.True(t, p.EndDate.Equal(now.AddDate(0, 0, 7)))
}

func TestMergeSubscription_ExtendsActive(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	existing := &Subscription{
		Plan:      PlanMonthly,
		Status:    SubscriptionActive,
		StartDate: now.AddDate(0, 0, -20),
		EndDate:   now.AddDate(0, 0, 10),
	}

	p, err := MergeSubscription(existing, PlanWeekly, now)
	require.NoError(t, err)
	assert.Equal(t, PlanWeekly, p.Plan)
	assert.True(t, p.StartDate.Equal(existing.StartDate))
	assert.True(t, p.EndDate.Equal(now.AddDate(0, 0, 17)))
}

func TestMergeSubscription_RestartsExpired(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	existing := &Subscription{
		Plan:      PlanDaily,
		Status:    SubscriptionActive,
		StartDate: now.AddDate(0, 0, -30),
		EndDate:   now.AddDate(0, 0, -5),
	}

	p, err := MergeSubscription(existing, PlanFortnight, now)
	require.NoError(t, err)
	assert.True(t, p.StartDate.Equal(now))
	assert.True(t, p.EndDate.Equal(now.AddDate(0, 0, 15)))
}

func TestMergeSubscription_EndingExactlyNowCountsAsExpired(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	existing := &Subscription{Status: SubscriptionActive, StartDate: now.AddDate(0, 0, -1), EndDate: now}

	p, err := MergeSubscription(existing, PlanDaily, now)
	require.NoError(t, err)
	assert.True(t, p.StartDate.Equal(now))
	assert.True(t, p.EndDate.Equal(now.AddDate(0, 0, 1)))
}

func TestMergeSubscription_InvalidPlan(t *testing.T) {
	_, err := MergeSubscription(nil, "vip", time.Now())
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestSubscription_DaysLeft(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := &Subscription{Status: SubscriptionActive, EndDate: now.Add(36 * time.Hour)}

	assert.True(t, sub.IsActiveAt(now))
	assert.Equal(t, 2, sub.DaysLeft(now))
	assert.Equal(t, 0, sub.DaysLeft(now.Add(48*time.Hour)))

	var missing *Subscription
	assert.False(t, missing.IsActiveAt(now))
	assert.Equal(t, 0, missing.DaysLeft(now))
}
