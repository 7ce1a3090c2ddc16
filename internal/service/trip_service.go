package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/rpc"
	"github.com/mmynk/tripwiser/internal/storage"
	"github.com/mmynk/tripwiser/pkg/api"
)

// TripService implements the Connect TripService
type TripService struct {
	store storage.Store
}

// NewTripService creates a new TripService with the given storage backend.
func NewTripService(store storage.Store) *TripService {
	return &TripService{store: store}
}

// Handler returns the mount path and handler serving this service.
func (s *TripService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	m := rpc.NewServiceMux(api.TripServiceName, opts...)
	rpc.Handle(m, "CreateTrip", s.CreateTrip)
	rpc.Handle(m, "GetTrip", s.GetTrip)
	rpc.Handle(m, "ListTrips", s.ListTrips)
	rpc.Handle(m, "UpdateTrip", s.UpdateTrip)
	rpc.Handle(m, "DeleteTrip", s.DeleteTrip)
	return m.Handler()
}

// CreateTrip creates a trip owned by the caller.
func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateTrip request received", "user_id", userID, "title", req.Msg.Title, "destination", req.Msg.Destination)

	trip := &models.Trip{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Msg.Title),
		Destination: strings.TrimSpace(req.Msg.Destination),
		Description: req.Msg.Description,
		Budget:      req.Msg.Budget,
		Status:      models.TripStatus(req.Msg.Status),
	}
	if trip.Status == "" {
		trip.Status = models.TripPlanned
	}
	if trip.StartDate, err = parseDate("start_date", req.Msg.StartDate); err != nil {
		return nil, err
	}
	if trip.EndDate, err = parseDate("end_date", req.Msg.EndDate); err != nil {
		return nil, err
	}
	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	if err := s.store.CreateTrip(ctx, trip); err != nil {
		slog.Error("CreateTrip failed", "error", err)
		return nil, storageError(err)
	}

	slog.Info("Trip created", "trip_id", trip.ID, "user_id", userID)

	return connect.NewResponse(&api.CreateTripResponse{Trip: tripToAPI(trip, models.RoleOwner)}), nil
}

// GetTrip retrieves a trip, optionally with its activities.
func (s *TripService) GetTrip(ctx context.Context, req *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error) {
	slog.Info("GetTrip request received", "trip_id", req.Msg.TripID)

	trip, role, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	res := &api.GetTripResponse{Trip: tripToAPI(trip, role)}
	if req.Msg.IncludeActivities {
		activities, err := s.store.ListActivities(ctx, trip.ID, storage.ActivityFilter{})
		if err != nil {
			slog.Error("GetTrip failed - could not list activities", "trip_id", trip.ID, "error", err)
			return nil, storageError(err)
		}
		res.Activities = activitiesToAPI(activities)
		res.ActivityCount = len(activities)
		res.TotalActivityCost = cents(sum(activities, func(a *models.Activity) float64 { return a.Cost }))
	}

	return connect.NewResponse(res), nil
}

// ListTrips returns the trips the caller created or collaborates on.
func (s *TripService) ListTrips(ctx context.Context, req *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListTrips request received", "user_id", userID, "status", req.Msg.Status)

	status := models.TripStatus(req.Msg.Status)
	if status != "" && !status.Valid() {
		return nil, invalidArgument("invalid status %q", req.Msg.Status)
	}

	trips, err := s.store.ListTripsForUser(ctx, userID, status)
	if err != nil {
		slog.Error("ListTrips failed", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	out := make([]*api.Trip, len(trips))
	for i, trip := range trips {
		role, err := roleOn(ctx, s.store, trip, userID)
		if err != nil {
			return nil, storageError(err)
		}
		out[i] = tripToAPI(trip, role)
	}

	slog.Info("ListTrips successful", "user_id", userID, "count", len(out))

	return connect.NewResponse(&api.ListTripsResponse{Trips: out}), nil
}

// UpdateTrip changes the fields set in the request. Requires editor access.
func (s *TripService) UpdateTrip(ctx context.Context, req *connect.Request[api.UpdateTripRequest]) (*connect.Response[api.UpdateTripResponse], error) {
	slog.Info("UpdateTrip request received", "trip_id", req.Msg.TripID)

	trip, role, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleEditor)
	if err != nil {
		return nil, err
	}

	msg := req.Msg
	if msg.Title != nil {
		trip.Title = strings.TrimSpace(*msg.Title)
	}
	if msg.Destination != nil {
		trip.Destination = strings.TrimSpace(*msg.Destination)
	}
	if msg.StartDate != nil {
		if trip.StartDate, err = parseDate("start_date", *msg.StartDate); err != nil {
			return nil, err
		}
	}
	if msg.EndDate != nil {
		if trip.EndDate, err = parseDate("end_date", *msg.EndDate); err != nil {
			return nil, err
		}
	}
	if msg.Description != nil {
		trip.Description = *msg.Description
	}
	switch {
	case msg.ClearBudget:
		trip.Budget = nil
	case msg.Budget != nil:
		trip.Budget = msg.Budget
	}
	if msg.Status != nil {
		trip.Status = models.TripStatus(*msg.Status)
	}
	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTrip(ctx, trip); err != nil {
		slog.Error("UpdateTrip failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Trip updated", "trip_id", trip.ID)

	return connect.NewResponse(&api.UpdateTripResponse{Trip: tripToAPI(trip, role)}), nil
}

// DeleteTrip removes a trip and everything in it. Only the creator may delete.
func (s *TripService) DeleteTrip(ctx context.Context, req *connect.Request[api.DeleteTripRequest]) (*connect.Response[api.DeleteTripResponse], error) {
	slog.Info("DeleteTrip request received", "trip_id", req.Msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}
	if userID, _ := callerID(ctx); trip.UserID != userID {
		return nil, permissionDenied("only the trip creator can delete a trip")
	}

	if err := s.store.DeleteTrip(ctx, trip.ID); err != nil {
		slog.Error("DeleteTrip failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Trip deleted", "trip_id", trip.ID)

	return connect.NewResponse(&api.DeleteTripResponse{}), nil
}

func validateTrip(trip *models.Trip) error {
	switch {
	case trip.Title == "":
		return invalidArgument("title required")
	case trip.Destination == "":
		return invalidArgument("destination required")
	case trip.EndDate.Before(trip.StartDate):
		return invalidArgument("end_date must be on or after start_date")
	case !trip.Status.Valid():
		return invalidArgument("invalid status %q", trip.Status)
	case trip.Budget != nil && *trip.Budget < 0:
		return invalidArgument("budget cannot be negative")
	}
	return nil
}
