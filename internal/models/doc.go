// Package models defines the core domain models for Tripwiser.
//
// # Models
//
//   - User: an account that can own trips and collaborate on others
//   - Trip: a planned journey with dates, destination and an optional budget
//   - Collaborator: a user's invitation to (and role on) someone else's trip
//   - Activity, DayPlan: the itinerary of a trip
//   - Expense, ExpenseSplit, BudgetCategory: money spent on a trip
//   - Settlement: a recorded payment between two trip members
//
// # Conventions
//
// 1. IDs are UUID strings generated by the store.
// 2. Timestamps are Unix seconds; calendar dates are time.Time at UTC midnight.
// 3. Relationships use ID strings instead of pointers.
// 4. Money is float64 at rest; aggregation uses decimal arithmetic in the services.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire and storage format for times of day.
const TimeLayout = "15:04"

// ParseDate parses a YYYY-MM-DD date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a date, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
