package api

type Trip struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Title        string   `json:"title"`
	Destination  string   `json:"destination"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Description  string   `json:"description,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	Status       string   `json:"status"`
	DurationDays int      `json:"duration_days"`

	// Role is the caller's access level on the trip.
	Role string `json:"role,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

type CreateTripRequest struct {
	Title       string   `json:"title"`
	Destination string   `json:"destination"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Description string   `json:"description,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
	Status      string   `json:"status,omitempty"`
}

type CreateTripResponse struct {
	Trip *Trip `json:"trip"`
}

type GetTripRequest struct {
	TripID            string `json:"trip_id"`
	IncludeActivities bool   `json:"include_activities,omitempty"`
}

type GetTripResponse struct {
	Trip              *Trip       `json:"trip"`
	Activities        []*Activity `json:"activities,omitempty"`
	ActivityCount     int         `json:"activity_count,omitempty"`
	TotalActivityCost float64     `json:"total_activity_cost,omitempty"`
}

type ListTripsRequest struct {
	Status string `json:"status,omitempty"`
}

type ListTripsResponse struct {
	Trips []*Trip `json:"trips"`
}

// UpdateTripRequest changes only the fields that are set.
type UpdateTripRequest struct {
	TripID      string   `json:"trip_id"`
	Title       *string  `json:"title,omitempty"`
	Destination *string  `json:"destination,omitempty"`
	StartDate   *string  `json:"start_date,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
	Description *string  `json:"description,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
	ClearBudget bool     `json:"clear_budget,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

type UpdateTripResponse struct {
	Trip *Trip `json:"trip"`
}

type DeleteTripRequest struct {
	TripID string `json:"trip_id"`
}

type DeleteTripResponse struct{}
