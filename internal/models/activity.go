package models

import "time"

// BookingConfirmed is the booking status of an activity that is booked.
const BookingConfirmed = "confirmed"

// Activity is a single item on a trip's itinerary.
type Activity struct {
	ID     string
	TripID string

	// DayPlanID is empty for activities not yet assigned to a day.
	DayPlanID string

	Title       string
	Description string

	// Category is one of sightseeing, dining, adventure, shopping, relaxation,
	// transport, accommodation or other.
	Category string

	Location  string
	Address   string
	Latitude  *float64
	Longitude *float64

	// ActivityDate is the zero time when the activity is unscheduled.
	ActivityDate time.Time

	// StartTime and EndTime are HH:MM strings, empty when unset.
	StartTime       string
	EndTime         string
	DurationMinutes int
	AllDay          bool

	// Priority is low, medium, high or must-do.
	Priority string

	// Status is planned, confirmed, completed or cancelled.
	Status string

	BookingRequired  bool
	BookingURL       string
	BookingReference string

	// BookingStatus is free text; BookingConfirmed marks the activity booked.
	BookingStatus string

	Cost     float64
	Currency string
	Paid     bool

	// Rating is 1..5, or 0 when the activity has not been rated.
	Rating int
	Review string

	Notes            string
	WeatherDependent bool
	Indoor           bool
	Tags             []string

	CreatedBy   string
	CompletedAt int64
	CreatedAt   int64
	UpdatedAt   int64
}

// DayPlan groups the activities of one calendar day of a trip.
type DayPlan struct {
	ID     string
	TripID string

	Date      time.Time
	DayNumber int

	Title         string
	Description   string
	EstimatedCost float64
	Notes         string
	IsRestDay     bool

	CreatedBy string
	CreatedAt int64
}
