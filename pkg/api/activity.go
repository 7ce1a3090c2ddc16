package api

type Activity struct {
	ID               string   `json:"id"`
	TripID           string   `json:"trip_id"`
	DayPlanID        string   `json:"day_plan_id,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category"`
	Location         string   `json:"location,omitempty"`
	Address          string   `json:"address,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	ActivityDate     string   `json:"activity_date,omitempty"`
	StartTime        string   `json:"start_time,omitempty"`
	EndTime          string   `json:"end_time,omitempty"`
	DurationMinutes  int      `json:"duration_minutes,omitempty"`
	AllDay           bool     `json:"all_day,omitempty"`
	Priority         string   `json:"priority"`
	Status           string   `json:"status"`
	BookingRequired  bool     `json:"booking_required,omitempty"`
	BookingURL       string   `json:"booking_url,omitempty"`
	BookingReference string   `json:"booking_reference,omitempty"`
	BookingStatus    string   `json:"booking_status,omitempty"`
	Cost             float64  `json:"cost"`
	Currency         string   `json:"currency"`
	Paid             bool     `json:"paid,omitempty"`
	Rating           int      `json:"rating,omitempty"`
	Review           string   `json:"review,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	WeatherDependent bool     `json:"weather_dependent,omitempty"`
	Indoor           bool     `json:"indoor,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	CreatedBy        string   `json:"created_by"`
	CompletedAt      int64    `json:"completed_at,omitempty"`
	CreatedAt        int64    `json:"created_at"`
	UpdatedAt        int64    `json:"updated_at"`
}

type CreateActivityRequest struct {
	TripID           string   `json:"trip_id"`
	DayPlanID        string   `json:"day_plan_id,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category,omitempty"`
	Location         string   `json:"location,omitempty"`
	Address          string   `json:"address,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	ActivityDate     string   `json:"activity_date,omitempty"`
	StartTime        string   `json:"start_time,omitempty"`
	EndTime          string   `json:"end_time,omitempty"`
	DurationMinutes  int      `json:"duration_minutes,omitempty"`
	AllDay           bool     `json:"all_day,omitempty"`
	Priority         string   `json:"priority,omitempty"`
	Status           string   `json:"status,omitempty"`
	BookingRequired  bool     `json:"booking_required,omitempty"`
	BookingURL       string   `json:"booking_url,omitempty"`
	BookingReference string   `json:"booking_reference,omitempty"`
	BookingStatus    string   `json:"booking_status,omitempty"`
	Cost             float64  `json:"cost,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	Paid             bool     `json:"paid,omitempty"`
	Rating           int      `json:"rating,omitempty"`
	Review           string   `json:"review,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	WeatherDependent bool     `json:"weather_dependent,omitempty"`
	Indoor           bool     `json:"indoor,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

type CreateActivityResponse struct {
	Activity *Activity `json:"activity"`
}

type GetActivityRequest struct {
	ActivityID string `json:"activity_id"`
}

type GetActivityResponse struct {
	Activity *Activity `json:"activity"`
}

type ListActivitiesRequest struct {
	TripID   string `json:"trip_id"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Date     string `json:"date,omitempty"`
	IsBooked *bool  `json:"is_booked,omitempty"`
}

type ListActivitiesResponse struct {
	Activities []*Activity `json:"activities"`
	Count      int         `json:"count"`
	TotalCost  float64     `json:"total_cost"`
}

// UpdateActivityRequest changes only the fields that are set. A non-nil Tags
// replaces the tag list.
type UpdateActivityRequest struct {
	ActivityID       string   `json:"activity_id"`
	DayPlanID        *string  `json:"day_plan_id,omitempty"`
	Title            *string  `json:"title,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Category         *string  `json:"category,omitempty"`
	Location         *string  `json:"location,omitempty"`
	Address          *string  `json:"address,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	ActivityDate     *string  `json:"activity_date,omitempty"`
	StartTime        *string  `json:"start_time,omitempty"`
	EndTime          *string  `json:"end_time,omitempty"`
	DurationMinutes  *int     `json:"duration_minutes,omitempty"`
	AllDay           *bool    `json:"all_day,omitempty"`
	Priority         *string  `json:"priority,omitempty"`
	Status           *string  `json:"status,omitempty"`
	BookingRequired  *bool    `json:"booking_required,omitempty"`
	BookingURL       *string  `json:"booking_url,omitempty"`
	BookingReference *string  `json:"booking_reference,omitempty"`
	BookingStatus    *string  `json:"booking_status,omitempty"`
	Cost             *float64 `json:"cost,omitempty"`
	Currency         *string  `json:"currency,omitempty"`
	Paid             *bool    `json:"paid,omitempty"`
	Rating           *int     `json:"rating,omitempty"`
	Review           *string  `json:"review,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	WeatherDependent *bool    `json:"weather_dependent,omitempty"`
	Indoor           *bool    `json:"indoor,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

type UpdateActivityResponse struct {
	Activity *Activity `json:"activity"`
}

type DeleteActivityRequest struct {
	ActivityID string `json:"activity_id"`
}

type DeleteActivityResponse struct{}

type DayPlan struct {
	ID            string  `json:"id"`
	TripID        string  `json:"trip_id"`
	Date          string  `json:"date"`
	DayNumber     int     `json:"day_number"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	EstimatedCost float64 `json:"estimated_cost,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	IsRestDay     bool    `json:"is_rest_day,omitempty"`
	CreatedBy     string  `json:"created_by,omitempty"`
	CreatedAt     int64   `json:"created_at"`
}

type CreateDayPlanRequest struct {
	TripID        string  `json:"trip_id"`
	Date          string  `json:"date"`
	Title         string  `json:"title,omitempty"`
	Description   string  `json:"description,omitempty"`
	EstimatedCost float64 `json:"estimated_cost,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	IsRestDay     bool    `json:"is_rest_day,omitempty"`
}

type CreateDayPlanResponse struct {
	DayPlan *DayPlan `json:"day_plan"`
}

type GenerateDayPlansRequest struct {
	TripID string `json:"trip_id"`
}

type GenerateDayPlansResponse struct {
	// DayPlans holds only the plans created by this call.
	DayPlans []*DayPlan `json:"day_plans"`
}

type GetItineraryRequest struct {
	TripID string `json:"trip_id"`
}

type ItineraryDay struct {
	DayPlan    *DayPlan    `json:"day_plan"`
	Activities []*Activity `json:"activities"`
	TotalCost  float64     `json:"total_cost"`
}

type ItineraryStats struct {
	TotalActivities int            `json:"total_activities"`
	TotalCost       float64        `json:"total_cost"`
	ByStatus        map[string]int `json:"by_status"`
	ByCategory      map[string]int `json:"by_category"`
	ByPriority      map[string]int `json:"by_priority"`
	BookingRequired int            `json:"booking_required"`
	Booked          int            `json:"booked"`

	// BookingProgress is the booked percentage, 100 when nothing needs booking.
	BookingProgress float64 `json:"booking_progress"`
}

type GetItineraryResponse struct {
	Trip       *Trip           `json:"trip"`
	Days       []*ItineraryDay `json:"days"`
	Unassigned []*Activity     `json:"unassigned"`
	Stats      *ItineraryStats `json:"stats"`
}
