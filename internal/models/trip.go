package models

import "time"

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripPlanned   TripStatus = "planned"
	TripOngoing   TripStatus = "ongoing"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripPlanned, TripOngoing, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// Trip represents a planned journey.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// UserID is the creator of the trip. The creator always has owner access
	// regardless of collaborator rows.
	UserID string

	Title       string
	Destination string

	// StartDate and EndDate are inclusive calendar dates.
	StartDate time.Time
	EndDate   time.Time

	Description string

	// Budget is the overall budget; nil when the trip has none.
	Budget *float64

	Status TripStatus

	CreatedAt int64
	UpdatedAt int64
}

// DurationDays returns the number of calendar days the trip spans.
func (t *Trip) DurationDays() int {
	return int(t.EndDate.Sub(t.StartDate).Hours()/24) + 1
}

// Contains reports whether date falls within the trip's dates.
func (t *Trip) Contains(date time.Time) bool {
	return !date.Before(t.StartDate) && !date.After(t.EndDate)
}

// DayNumber returns the 1-based day of the trip that date falls on.
func (t *Trip) DayNumber(date time.Time) int {
	return int(date.Sub(t.StartDate).Hours()/24) + 1
}
