package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/storage"
)

const tripColumns = `t.id, t.user_id, t.title, t.destination, t.start_date, t.end_date,
	t.description, t.budget, t.status, t.created_at, t.updated_at`

// CreateTrip persists a new trip to the database.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.Status == "" {
		trip.Status = models.TripPlanned
	}
	now := s.now().Unix()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trips (id, user_id, title, destination, start_date, end_date,
			description, budget, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.UserID, trip.Title, trip.Destination,
		models.FormatDate(trip.StartDate), models.FormatDate(trip.EndDate),
		trip.Description, nullFloat(trip.Budget), string(trip.Status),
		trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert trip", err)
	}
	return nil
}

// GetTrip retrieves a trip by ID.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+tripColumns+" FROM trips t WHERE t.id = ?", tripID)
	trip, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// UpdateTrip overwrites the mutable fields of a trip and bumps UpdatedAt.
func (s *SQLiteStore) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	trip.UpdatedAt = s.now().Unix()

	res, err := s.db.ExecContext(ctx,
		`UPDATE trips SET title = ?, destination = ?, start_date = ?, end_date = ?,
			description = ?, budget = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		trip.Title, trip.Destination,
		models.FormatDate(trip.StartDate), models.FormatDate(trip.EndDate),
		trip.Description, nullFloat(trip.Budget), string(trip.Status), trip.UpdatedAt,
		trip.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	return checkAffected(res, "trip", trip.ID)
}

// DeleteTrip removes a trip; its collaborators, itinerary, expenses and
// settlements are removed by ON DELETE CASCADE.
func (s *SQLiteStore) DeleteTrip(ctx context.Context, tripID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trips WHERE id = ?", tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	return checkAffected(res, "trip", tripID)
}

// ListTripsForUser retrieves trips the user owns or has accepted an invitation to.
func (s *SQLiteStore) ListTripsForUser(ctx context.Context, userID string, status models.TripStatus) ([]*models.Trip, error) {
	query := `SELECT ` + tripColumns + `
		FROM trips t
		LEFT JOIN trip_collaborators c
			ON c.trip_id = t.id AND c.user_id = ? AND c.status = 'accepted'
		WHERE (t.user_id = ? OR c.id IS NOT NULL)`
	args := []any{userID, userID}
	if status != "" {
		query += " AND t.status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY t.created_at DESC, t.rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	return trips, nil
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	trip := &models.Trip{}
	var start, end, status string
	var budget sql.NullFloat64
	if err := row.Scan(&trip.ID, &trip.UserID, &trip.Title, &trip.Destination,
		&start, &end, &trip.Description, &budget, &status,
		&trip.CreatedAt, &trip.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if trip.StartDate, err = models.ParseDate(start); err != nil {
		return nil, err
	}
	if trip.EndDate, err = models.ParseDate(end); err != nil {
		return nil, err
	}
	trip.Budget = floatPtr(budget)
	trip.Status = models.TripStatus(status)
	return trip, nil
}
