package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/rpc"
	"github.com/mmynk/tripwiser/internal/storage"
	"github.com/mmynk/tripwiser/pkg/api"
)

var (
	activityCategories = []string{"sightseeing", "dining", "adventure", "shopping", "relaxation", "transport", "accommodation", "other"}
	activityPriorities = []string{"low", "medium", "high", "must-do"}
	activityStatuses   = []string{"planned", "confirmed", "completed", "cancelled"}
)

const (
	activityCompleted = "completed"
	bookingConfirmed  = models.BookingConfirmed
)

// ActivityService implements the Connect ActivityService
type ActivityService struct {
	store storage.Store
	now   func() time.Time
}

// NewActivityService creates a new ActivityService with the given storage backend.
func NewActivityService(store storage.Store) *ActivityService {
	return &ActivityService{store: store, now: time.Now}
}

// Handler returns the mount path and handler serving this service.
func (s *ActivityService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	m := rpc.NewServiceMux(api.ActivityServiceName, opts...)
	rpc.Handle(m, "CreateActivity", s.CreateActivity)
	rpc.Handle(m, "GetActivity", s.GetActivity)
	rpc.Handle(m, "ListActivities", s.ListActivities)
	rpc.Handle(m, "UpdateActivity", s.UpdateActivity)
	rpc.Handle(m, "DeleteActivity", s.DeleteActivity)
	rpc.Handle(m, "CreateDayPlan", s.CreateDayPlan)
	rpc.Handle(m, "GenerateDayPlans", s.GenerateDayPlans)
	rpc.Handle(m, "GetItinerary", s.GetItinerary)
	return m.Handler()
}

// CreateActivity adds an activity to a trip. Requires editor access.
func (s *ActivityService) CreateActivity(ctx context.Context, req *connect.Request[api.CreateActivityRequest]) (*connect.Response[api.CreateActivityResponse], error) {
	msg := req.Msg
	slog.Info("CreateActivity request received", "trip_id", msg.TripID, "title", msg.Title)

	trip, _, err := authorizeTrip(ctx, s.store, msg.TripID, models.RoleEditor)
	if err != nil {
		return nil, err
	}
	userID, _ := callerID(ctx)

	a := &models.Activity{
		TripID:           trip.ID,
		DayPlanID:        msg.DayPlanID,
		Title:            strings.TrimSpace(msg.Title),
		Description:      msg.Description,
		Category:         orDefault(msg.Category, "other"),
		Location:         msg.Location,
		Address:          msg.Address,
		Latitude:         msg.Latitude,
		Longitude:        msg.Longitude,
		StartTime:        msg.StartTime,
		EndTime:          msg.EndTime,
		DurationMinutes:  msg.DurationMinutes,
		AllDay:           msg.AllDay,
		Priority:         orDefault(msg.Priority, "medium"),
		Status:           orDefault(msg.Status, "planned"),
		BookingRequired:  msg.BookingRequired,
		BookingURL:       msg.BookingURL,
		BookingReference: msg.BookingReference,
		BookingStatus:    msg.BookingStatus,
		Cost:             msg.Cost,
		Currency:         orDefault(msg.Currency, defaultCurrency),
		Paid:             msg.Paid,
		Rating:           msg.Rating,
		Review:           msg.Review,
		Notes:            msg.Notes,
		WeatherDependent: msg.WeatherDependent,
		Indoor:           msg.Indoor,
		Tags:             msg.Tags,
		CreatedBy:        userID,
	}
	if a.ActivityDate, err = parseOptionalDate("activity_date", msg.ActivityDate); err != nil {
		return nil, err
	}
	if a.Status == activityCompleted {
		a.CompletedAt = s.now().Unix()
	}
	if err := s.prepareActivity(ctx, trip, a); err != nil {
		return nil, err
	}

	if err := s.store.CreateActivity(ctx, a); err != nil {
		slog.Error("CreateActivity failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Activity created", "activity_id", a.ID, "trip_id", trip.ID)

	return connect.NewResponse(&api.CreateActivityResponse{Activity: activityToAPI(a)}), nil
}

// GetActivity retrieves an activity by ID.
func (s *ActivityService) GetActivity(ctx context.Context, req *connect.Request[api.GetActivityRequest]) (*connect.Response[api.GetActivityResponse], error) {
	slog.Info("GetActivity request received", "activity_id", req.Msg.ActivityID)

	a, _, err := s.authorizeActivity(ctx, req.Msg.ActivityID, models.RoleViewer)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetActivityResponse{Activity: activityToAPI(a)}), nil
}

// ListActivities lists a trip's activities, optionally filtered.
func (s *ActivityService) ListActivities(ctx context.Context, req *connect.Request[api.ListActivitiesRequest]) (*connect.Response[api.ListActivitiesResponse], error) {
	msg := req.Msg
	slog.Info("ListActivities request received", "trip_id", msg.TripID, "category", msg.Category, "status", msg.Status, "priority", msg.Priority, "date", msg.Date)

	trip, _, err := authorizeTrip(ctx, s.store, msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	if msg.Priority != "" && !slices.Contains(activityPriorities, msg.Priority) {
		return nil, invalidArgument("priority must be one of %s", strings.Join(activityPriorities, ", "))
	}
	filter := storage.ActivityFilter{Category: msg.Category, Status: msg.Status, Priority: msg.Priority, IsBooked: msg.IsBooked}
	if filter.Date, err = parseOptionalDate("date", msg.Date); err != nil {
		return nil, err
	}

	activities, err := s.store.ListActivities(ctx, trip.ID, filter)
	if err != nil {
		slog.Error("ListActivities failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("ListActivities successful", "trip_id", trip.ID, "count", len(activities))

	return connect.NewResponse(&api.ListActivitiesResponse{
		Activities: activitiesToAPI(activities),
		Count:      len(activities),
		TotalCost:  cents(sum(activities, func(a *models.Activity) float64 { return a.Cost })),
	}), nil
}

// UpdateActivity changes the fields set in the request. Requires editor access.
func (s *ActivityService) UpdateActivity(ctx context.Context, req *connect.Request[api.UpdateActivityRequest]) (*connect.Response[api.UpdateActivityResponse], error) {
	msg := req.Msg
	slog.Info("UpdateActivity request received", "activity_id", msg.ActivityID)

	a, trip, err := s.authorizeActivity(ctx, msg.ActivityID, models.RoleEditor)
	if err != nil {
		return nil, err
	}
	wasCompleted := a.Status == activityCompleted

	setString(&a.DayPlanID, msg.DayPlanID)
	if msg.Title != nil {
		a.Title = strings.TrimSpace(*msg.Title)
	}
	setString(&a.Description, msg.Description)
	setString(&a.Category, msg.Category)
	setString(&a.Location, msg.Location)
	setString(&a.Address, msg.Address)
	if msg.Latitude != nil {
		a.Latitude = msg.Latitude
	}
	if msg.Longitude != nil {
		a.Longitude = msg.Longitude
	}
	if msg.ActivityDate != nil {
		if a.ActivityDate, err = parseOptionalDate("activity_date", *msg.ActivityDate); err != nil {
			return nil, err
		}
	}
	setString(&a.StartTime, msg.StartTime)
	setString(&a.EndTime, msg.EndTime)
	if msg.DurationMinutes != nil {
		a.DurationMinutes = *msg.DurationMinutes
	} else if msg.StartTime != nil || msg.EndTime != nil {
		a.DurationMinutes = 0
	}
	setBool(&a.AllDay, msg.AllDay)
	setString(&a.Priority, msg.Priority)
	setString(&a.Status, msg.Status)
	setBool(&a.BookingRequired, msg.BookingRequired)
	setString(&a.BookingURL, msg.BookingURL)
	setString(&a.BookingReference, msg.BookingReference)
	setString(&a.BookingStatus, msg.BookingStatus)
	if msg.Cost != nil {
		a.Cost = *msg.Cost
	}
	setString(&a.Currency, msg.Currency)
	setBool(&a.Paid, msg.Paid)
	if msg.Rating != nil {
		a.Rating = *msg.Rating
	}
	setString(&a.Review, msg.Review)
	setString(&a.Notes, msg.Notes)
	setBool(&a.WeatherDependent, msg.WeatherDependent)
	setBool(&a.Indoor, msg.Indoor)
	if msg.Tags != nil {
		a.Tags = msg.Tags
	}

	if a.Status == activityCompleted && !wasCompleted {
		a.CompletedAt = s.now().Unix()
	}
	if err := s.prepareActivity(ctx, trip, a); err != nil {
		return nil, err
	}

	if err := s.store.UpdateActivity(ctx, a); err != nil {
		slog.Error("UpdateActivity failed", "activity_id", a.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Activity updated", "activity_id", a.ID)

	return connect.NewResponse(&api.UpdateActivityResponse{Activity: activityToAPI(a)}), nil
}

// DeleteActivity removes an activity. Requires editor access.
func (s *ActivityService) DeleteActivity(ctx context.Context, req *connect.Request[api.DeleteActivityRequest]) (*connect.Response[api.DeleteActivityResponse], error) {
	slog.Info("DeleteActivity request received", "activity_id", req.Msg.ActivityID)

	a, _, err := s.authorizeActivity(ctx, req.Msg.ActivityID, models.RoleEditor)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteActivity(ctx, a.ID); err != nil {
		slog.Error("DeleteActivity failed", "activity_id", a.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Activity deleted", "activity_id", a.ID)

	return connect.NewResponse(&api.DeleteActivityResponse{}), nil
}

// CreateDayPlan adds a plan for one date of the trip. Requires editor access.
func (s *ActivityService) CreateDayPlan(ctx context.Context, req *connect.Request[api.CreateDayPlanRequest]) (*connect.Response[api.CreateDayPlanResponse], error) {
	msg := req.Msg
	slog.Info("CreateDayPlan request received", "trip_id", msg.TripID, "date", msg.Date)

	trip, _, err := authorizeTrip(ctx, s.store, msg.TripID, models.RoleEditor)
	if err != nil {
		return nil, err
	}
	userID, _ := callerID(ctx)

	date, err := parseDate("date", msg.Date)
	if err != nil {
		return nil, err
	}
	if !trip.Contains(date) {
		return nil, invalidArgument("date %s is outside the trip dates", msg.Date)
	}

	day := trip.DayNumber(date)
	dp := &models.DayPlan{
		TripID:        trip.ID,
		Date:          date,
		DayNumber:     day,
		Title:         strings.TrimSpace(msg.Title),
		Description:   msg.Description,
		EstimatedCost: msg.EstimatedCost,
		Notes:         msg.Notes,
		IsRestDay:     msg.IsRestDay,
		CreatedBy:     userID,
	}
	if dp.Title == "" {
		dp.Title = fmt.Sprintf("Day %d", day)
	}

	if err := s.store.CreateDayPlan(ctx, dp); err != nil {
		slog.Error("CreateDayPlan failed", "trip_id", trip.ID, "date", msg.Date, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Day plan created", "day_plan_id", dp.ID, "trip_id", trip.ID, "day_number", day)

	return connect.NewResponse(&api.CreateDayPlanResponse{DayPlan: dayPlanToAPI(dp)}), nil
}

// GenerateDayPlans creates a plan for every trip date that has none.
func (s *ActivityService) GenerateDayPlans(ctx context.Context, req *connect.Request[api.GenerateDayPlansRequest]) (*connect.Response[api.GenerateDayPlansResponse], error) {
	slog.Info("GenerateDayPlans request received", "trip_id", req.Msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleEditor)
	if err != nil {
		return nil, err
	}
	userID, _ := callerID(ctx)

	existing, err := s.store.ListDayPlans(ctx, trip.ID)
	if err != nil {
		return nil, storageError(err)
	}
	planned := make(map[string]bool, len(existing))
	for _, dp := range existing {
		planned[models.FormatDate(dp.Date)] = true
	}

	created := []*api.DayPlan{}
	for date := trip.StartDate; !date.After(trip.EndDate); date = date.AddDate(0, 0, 1) {
		if planned[models.FormatDate(date)] {
			continue
		}
		day := trip.DayNumber(date)
		dp := &models.DayPlan{
			TripID:    trip.ID,
			Date:      date,
			DayNumber: day,
			Title:     fmt.Sprintf("Day %d - %s", day, trip.Destination),
			CreatedBy: userID,
		}
		if err := s.store.CreateDayPlan(ctx, dp); err != nil {
			slog.Error("GenerateDayPlans failed", "trip_id", trip.ID, "date", models.FormatDate(date), "error", err)
			return nil, storageError(err)
		}
		created = append(created, dayPlanToAPI(dp))
	}

	slog.Info("Day plans generated", "trip_id", trip.ID, "created", len(created))

	return connect.NewResponse(&api.GenerateDayPlansResponse{DayPlans: created}), nil
}

// GetItinerary returns the trip's day plans with their activities, the
// activities not assigned to any day, and summary statistics.
func (s *ActivityService) GetItinerary(ctx context.Context, req *connect.Request[api.GetItineraryRequest]) (*connect.Response[api.GetItineraryResponse], error) {
	slog.Info("GetItinerary request received", "trip_id", req.Msg.TripID)

	trip, role, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	plans, err := s.store.ListDayPlans(ctx, trip.ID)
	if err != nil {
		return nil, storageError(err)
	}
	activities, err := s.store.ListActivities(ctx, trip.ID, storage.ActivityFilter{})
	if err != nil {
		return nil, storageError(err)
	}

	byPlan := make(map[string][]*models.Activity, len(plans))
	for _, dp := range plans {
		byPlan[dp.ID] = nil
	}
	var unassigned []*models.Activity
	for _, a := range activities {
		if _, ok := byPlan[a.DayPlanID]; ok && a.DayPlanID != "" {
			byPlan[a.DayPlanID] = append(byPlan[a.DayPlanID], a)
			continue
		}
		unassigned = append(unassigned, a)
	}

	res := &api.GetItineraryResponse{
		Trip:       tripToAPI(trip, role),
		Days:       make([]*api.ItineraryDay, len(plans)),
		Unassigned: activitiesToAPI(unassigned),
		Stats:      itineraryStats(activities),
	}
	for i, dp := range plans {
		dayActivities := byPlan[dp.ID]
		res.Days[i] = &api.ItineraryDay{
			DayPlan:    dayPlanToAPI(dp),
			Activities: activitiesToAPI(dayActivities),
			TotalCost:  cents(sum(dayActivities, func(a *models.Activity) float64 { return a.Cost })),
		}
	}

	return connect.NewResponse(res), nil
}

func itineraryStats(activities []*models.Activity) *api.ItineraryStats {
	stats := &api.ItineraryStats{
		TotalActivities: len(activities),
		TotalCost:       cents(sum(activities, func(a *models.Activity) float64 { return a.Cost })),
		ByStatus:        map[string]int{},
		ByCategory:      map[string]int{},
		ByPriority:      map[string]int{},
	}
	for _, a := range activities {
		stats.ByStatus[a.Status]++
		stats.ByCategory[a.Category]++
		stats.ByPriority[a.Priority]++
		if a.BookingRequired {
			stats.BookingRequired++
			if a.BookingStatus == bookingConfirmed {
				stats.Booked++
			}
		}
	}

	stats.BookingProgress = 100
	if stats.BookingRequired > 0 {
		stats.BookingProgress = percent(decimal.NewFromInt(int64(stats.Booked)), decimal.NewFromInt(int64(stats.BookingRequired)))
	}
	return stats
}

// authorizeActivity loads an activity and checks the caller's role on its trip.
func (s *ActivityService) authorizeActivity(ctx context.Context, id string, min models.Role) (*models.Activity, *models.Trip, error) {
	if id == "" {
		return nil, nil, invalidArgument("activity_id required")
	}
	if _, err := callerID(ctx); err != nil {
		return nil, nil, err
	}
	a, err := s.store.GetActivity(ctx, id)
	if err != nil {
		return nil, nil, storageError(err)
	}
	trip, _, err := authorizeTrip(ctx, s.store, a.TripID, min)
	if err != nil {
		return nil, nil, err
	}
	return a, trip, nil
}

// prepareActivity validates a and fills in fields derived from other fields.
func (s *ActivityService) prepareActivity(ctx context.Context, trip *models.Trip, a *models.Activity) error {
	switch {
	case a.Title == "":
		return invalidArgument("title required")
	case !slices.Contains(activityCategories, a.Category):
		return invalidArgument("category must be one of %s", strings.Join(activityCategories, ", "))
	case !slices.Contains(activityPriorities, a.Priority):
		return invalidArgument("priority must be one of %s", strings.Join(activityPriorities, ", "))
	case !slices.Contains(activityStatuses, a.Status):
		return invalidArgument("status must be one of %s", strings.Join(activityStatuses, ", "))
	case a.Rating < 0 || a.Rating > 5:
		return invalidArgument("rating must be between 0 and 5")
	case a.Cost < 0:
		return invalidArgument("cost cannot be negative")
	case a.DurationMinutes < 0:
		return invalidArgument("duration_minutes cannot be negative")
	case a.Latitude != nil && math.Abs(*a.Latitude) > 90:
		return invalidArgument("latitude must be between -90 and 90")
	case a.Longitude != nil && math.Abs(*a.Longitude) > 180:
		return invalidArgument("longitude must be between -180 and 180")
	}

	if a.DayPlanID != "" {
		dp, err := s.store.GetDayPlan(ctx, a.DayPlanID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && dp.TripID != trip.ID) {
			return invalidArgument("day plan %s does not belong to this trip", a.DayPlanID)
		}
		if err != nil {
			return storageError(err)
		}
		if a.ActivityDate.IsZero() {
			a.ActivityDate = dp.Date
		}
	}
	if !a.ActivityDate.IsZero() && !trip.Contains(a.ActivityDate) {
		return invalidArgument("activity_date %s is outside the trip dates", models.FormatDate(a.ActivityDate))
	}

	var start, end int
	var err error
	if a.StartTime != "" {
		if start, err = parseClock("start_time", a.StartTime); err != nil {
			return err
		}
	}
	if a.EndTime != "" {
		if end, err = parseClock("end_time", a.EndTime); err != nil {
			return err
		}
	}
	if a.StartTime != "" && a.EndTime != "" {
		if end <= start {
			return invalidArgument("end_time must be after start_time")
		}
		if a.DurationMinutes == 0 {
			a.DurationMinutes = end - start
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
