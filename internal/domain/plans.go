package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan codes accepted at checkout.
const (
	PlanDaily     = "diario"
	PlanWeekly    = "semanal"
	PlanFortnight = "quincenal"
	PlanMonthly   = "mensual"
)

// Plan is a membership plan of the gym.
type Plan struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Days   int             `json:"days,omitempty"`   // calendar days added per purchase
	Months int             `json:"months,omitempty"` // calendar months added per purchase
}

var plans = []Plan{
	{ID: PlanDaily, Name: "Plan Diario", Price: decimal.RequireFromString("3.00"), Days: 1},
	{ID: PlanWeekly, Name: "Plan Semanal", Price: decimal.RequireFromString("11.99"), Days: 7},
	{ID: PlanFortnight, Name: "Plan Quincenal", Price: decimal.RequireFromString("19.99"), Days: 15},
	{ID: PlanMonthly, Name: "Plan Mensual", Price: decimal.RequireFromString("37.99"), Months: 1},
}

// AvailablePlans returns all plans ordered from shortest to longest.
func AvailablePlans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// LookupPlan returns the plan for a given code.
func LookupPlan(code string) (Plan, error) {
	for _, p := range plans {
		if p.ID == code {
			return p, nil
		}
	}
	return Plan{}, invalidPlan(code)
}

// IsValidPlan reports whether code is a known plan.
func IsValidPlan(code string) bool {
	_, err := LookupPlan(code)
	return err == nil
}

// PriceOf returns the fixed price of a plan.
func PriceOf(code string) (decimal.Decimal, error) {
	p, err := LookupPlan(code)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price, nil
}

// EndOf returns base advanced by one period of the plan.
//
// Month arithmetic clamps to the last day of the target month, so Jan 31
// plus one month is Feb 28 (Feb 29 in leap years) rather than rolling into
// March. Periods are computed in UTC so the result does not depend on the
// server's zone or its DST transitions.
func EndOf(code string, base time.Time) (time.Time, error) {
	p, err := LookupPlan(code)
	if err != nil {
		return time.Time{}, err
	}
	return p.advance(base), nil
}

func (p Plan) advance(base time.Time) time.Time {
	end := base.UTC()
	if p.Months > 0 {
		end = addMonthsClamped(end, p.Months)
	}
	if p.Days > 0 {
		end = end.AddDate(0, 0, p.Days)
	}
	return end
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	loc := t.Location()

	// Day 1 never overflows, so this lands on the right month.
	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), loc)
	if last := daysIn(first.Year(), first.Month(), loc); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), loc)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
