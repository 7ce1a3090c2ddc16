package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/storage"
)

const activityColumns = `id, trip_id, day_plan_id, title, description, category, location, address,
	latitude, longitude, activity_date, start_time, end_time, duration_minutes, all_day,
	priority, status, booking_required, booking_url, booking_reference, booking_status,
	cost, currency, paid, rating, review, notes, weather_dependent, indoor, tags,
	created_by, completed_at, created_at, updated_at`

// CreateActivity persists a new activity.
func (s *SQLiteStore) CreateActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := s.now().Unix()
	a.CreatedAt = now
	a.UpdatedAt = now

	tags, err := encodeTags(a.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO activities ("+activityColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TripID, nullString(a.DayPlanID), a.Title, a.Description, a.Category,
		a.Location, a.Address, nullFloat(a.Latitude), nullFloat(a.Longitude),
		nullDate(a.ActivityDate), a.StartTime, a.EndTime, a.DurationMinutes, a.AllDay,
		a.Priority, a.Status, a.BookingRequired, a.BookingURL, a.BookingReference, a.BookingStatus,
		a.Cost, a.Currency, a.Paid, a.Rating, a.Review, a.Notes, a.WeatherDependent, a.Indoor, tags,
		a.CreatedBy, a.CompletedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert activity", err)
	}
	return nil
}

// GetActivity retrieves an activity by ID.
func (s *SQLiteStore) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+activityColumns+" FROM activities WHERE id = ?", id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// UpdateActivity overwrites every mutable field of an activity.
func (s *SQLiteStore) UpdateActivity(ctx context.Context, a *models.Activity) error {
	a.UpdatedAt = s.now().Unix()
	tags, err := encodeTags(a.Tags)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE activities SET day_plan_id = ?, title = ?, description = ?, category = ?,
			location = ?, address = ?, latitude = ?, longitude = ?, activity_date = ?,
			start_time = ?, end_time = ?, duration_minutes = ?, all_day = ?, priority = ?,
			status = ?, booking_required = ?, booking_url = ?, booking_reference = ?,
			booking_status = ?, cost = ?, currency = ?, paid = ?, rating = ?, review = ?,
			notes = ?, weather_dependent = ?, indoor = ?, tags = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		nullString(a.DayPlanID), a.Title, a.Description, a.Category,
		a.Location, a.Address, nullFloat(a.Latitude), nullFloat(a.Longitude), nullDate(a.ActivityDate),
		a.StartTime, a.EndTime, a.DurationMinutes, a.AllDay, a.Priority,
		a.Status, a.BookingRequired, a.BookingURL, a.BookingReference,
		a.BookingStatus, a.Cost, a.Currency, a.Paid, a.Rating, a.Review,
		a.Notes, a.WeatherDependent, a.Indoor, tags, a.CompletedAt, a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return checkAffected(res, "activity", a.ID)
}

// DeleteActivity removes an activity.
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return checkAffected(res, "activity", id)
}

// ListActivities returns a trip's activities. Unscheduled activities sort last.
func (s *SQLiteStore) ListActivities(ctx context.Context, tripID string, filter storage.ActivityFilter) ([]*models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities WHERE trip_id = ?"
	args := []any{tripID}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		query += " AND priority = ?"
		args = append(args, filter.Priority)
	}
	if !filter.Date.IsZero() {
		query += " AND activity_date = ?"
		args = append(args, models.FormatDate(filter.Date))
	}
	if filter.IsBooked != nil {
		if *filter.IsBooked {
			query += " AND booking_status = ?"
		} else {
			query += " AND booking_status != ?"
		}
		args = append(args, models.BookingConfirmed)
	}
	query += " ORDER BY activity_date IS NULL, activity_date, start_time, created_at, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var out []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return out, nil
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	a := &models.Activity{}
	var dayPlanID, date sql.NullString
	var lat, lng sql.NullFloat64
	var tags string
	if err := row.Scan(&a.ID, &a.TripID, &dayPlanID, &a.Title, &a.Description, &a.Category,
		&a.Location, &a.Address, &lat, &lng, &date, &a.StartTime, &a.EndTime,
		&a.DurationMinutes, &a.AllDay, &a.Priority, &a.Status, &a.BookingRequired,
		&a.BookingURL, &a.BookingReference, &a.BookingStatus, &a.Cost, &a.Currency,
		&a.Paid, &a.Rating, &a.Review, &a.Notes, &a.WeatherDependent, &a.Indoor, &tags,
		&a.CreatedBy, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if a.ActivityDate, err = parseNullDate(date); err != nil {
		return nil, err
	}
	a.DayPlanID = dayPlanID.String
	a.Latitude = floatPtr(lat)
	a.Longitude = floatPtr(lng)
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return a, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

// CreateDayPlan persists a new day plan. A trip has at most one plan per date.
func (s *SQLiteStore) CreateDayPlan(ctx context.Context, dp *models.DayPlan) error {
	if dp.ID == "" {
		dp.ID = uuid.New().String()
	}
	dp.CreatedAt = s.now().Unix()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO day_plans (id, trip_id, date, day_number, title, description,
			estimated_cost, notes, is_rest_day, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dp.ID, dp.TripID, models.FormatDate(dp.Date), dp.DayNumber, dp.Title, dp.Description,
		dp.EstimatedCost, dp.Notes, dp.IsRestDay, dp.CreatedBy, dp.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert day plan", err)
	}
	return nil
}

const dayPlanColumns = `id, trip_id, date, day_number, title, description,
	estimated_cost, notes, is_rest_day, created_by, created_at`

// GetDayPlan retrieves a day plan by ID.
func (s *SQLiteStore) GetDayPlan(ctx context.Context, id string) (*models.DayPlan, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+dayPlanColumns+" FROM day_plans WHERE id = ?", id)
	dp, err := scanDayPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("day plan %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day plan: %w", err)
	}
	return dp, nil
}

// GetDayPlanByDate retrieves the trip's plan for a date.
func (s *SQLiteStore) GetDayPlanByDate(ctx context.Context, tripID string, date time.Time) (*models.DayPlan, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+dayPlanColumns+" FROM day_plans WHERE trip_id = ? AND date = ?",
		tripID, models.FormatDate(date))
	dp, err := scanDayPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("day plan for %s: %w", models.FormatDate(date), storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day plan: %w", err)
	}
	return dp, nil
}

// ListDayPlans returns a trip's day plans ordered by date.
func (s *SQLiteStore) ListDayPlans(ctx context.Context, tripID string) ([]*models.DayPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+dayPlanColumns+" FROM day_plans WHERE trip_id = ? ORDER BY date", tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list day plans: %w", err)
	}
	defer rows.Close()

	var out []*models.DayPlan
	for rows.Next() {
		dp, err := scanDayPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day plan: %w", err)
		}
		out = append(out, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day plans: %w", err)
	}
	return out, nil
}

func scanDayPlan(row rowScanner) (*models.DayPlan, error) {
	dp := &models.DayPlan{}
	var date string
	if err := row.Scan(&dp.ID, &dp.TripID, &date, &dp.DayNumber, &dp.Title, &dp.Description,
		&dp.EstimatedCost, &dp.Notes, &dp.IsRestDay, &dp.CreatedBy, &dp.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if dp.Date, err = models.ParseDate(date); err != nil {
		return nil, err
	}
	return dp, nil
}
