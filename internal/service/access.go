package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/middleware"
	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/storage"
)

// defaultCurrency applies to expenses, budgets and settlements created without one.
const defaultCurrency = "INR"

// roleStore is the part of storage needed to resolve trip access.
type roleStore interface {
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	GetCollaboratorByTripAndUser(ctx context.Context, tripID, userID string) (*models.Collaborator, error)
}

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	return userID, nil
}

// roleOn returns the user's role on trip. The creator is always an owner;
// anyone else needs an accepted invitation.
func roleOn(ctx context.Context, store roleStore, trip *models.Trip, userID string) (models.Role, error) {
	if trip.UserID == userID {
		return models.RoleOwner, nil
	}
	c, err := store.GetCollaboratorByTripAndUser(ctx, trip.ID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, err
	}
	if c.Status != models.InvitationAccepted {
		return models.RoleNone, nil
	}
	return c.Role, nil
}

// authorizeTrip loads a trip and checks that the caller holds at least min on
// it. Errors are already Connect errors.
func authorizeTrip(ctx context.Context, store roleStore, tripID string, min models.Role) (*models.Trip, models.Role, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, models.RoleNone, err
	}
	if tripID == "" {
		return nil, models.RoleNone, connect.NewError(connect.CodeInvalidArgument, errors.New("trip_id required"))
	}

	trip, err := store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, models.RoleNone, storageError(err)
	}
	role, err := roleOn(ctx, store, trip, userID)
	if err != nil {
		return nil, models.RoleNone, storageError(err)
	}
	if !role.AtLeast(min) {
		slog.Warn("Trip access denied", "trip_id", tripID, "user_id", userID, "role", role.String(), "required", min.String())
		return nil, role, connect.NewError(connect.CodePermissionDenied,
			fmt.Errorf("%s access to trip %s required", min, tripID))
	}
	return trip, role, nil
}

// storageError maps storage sentinels to Connect codes. Anything else is Internal.
func storageError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

func permissionDenied(format string, args ...any) error {
	return connect.NewError(connect.CodePermissionDenied, fmt.Errorf(format, args...))
}

func failedPrecondition(format string, args ...any) error {
	return connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf(format, args...))
}

// parseDate parses a YYYY-MM-DD field. field names the request field in errors.
func parseDate(field, s string) (time.Time, error) {
	t, err := models.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalidArgument("%s must be YYYY-MM-DD, got %q", field, s)
	}
	return t, nil
}

// parseOptionalDate is parseDate that maps an empty string to the zero time.
func parseOptionalDate(field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseDate(field, s)
}

// parseClock validates an HH:MM field and returns minutes since midnight.
func parseClock(field, s string) (int, error) {
	t, err := time.Parse(models.TimeLayout, s)
	if err != nil {
		return 0, invalidArgument("%s must be HH:MM, got %q", field, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// today returns the UTC calendar date of now.
func today(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
