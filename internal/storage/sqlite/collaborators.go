package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/storage"
)

const collaboratorColumns = "id, trip_id, user_id, role, status, invited_by, invited_at, accepted_at"

// CreateCollaborator persists a new invitation.
func (s *SQLiteStore) CreateCollaborator(ctx context.Context, c *models.Collaborator) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.InvitedAt == 0 {
		c.InvitedAt = s.now().Unix()
	}
	if c.Status == "" {
		c.Status = models.InvitationPending
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO trip_collaborators ("+collaboratorColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.TripID, c.UserID, c.Role.String(), string(c.Status),
		c.InvitedBy, c.InvitedAt, c.AcceptedAt,
	)
	if err != nil {
		return wrapWriteErr("insert collaborator", err)
	}
	return nil
}

// GetCollaborator retrieves an invitation by ID.
func (s *SQLiteStore) GetCollaborator(ctx context.Context, id string) (*models.Collaborator, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+collaboratorColumns+" FROM trip_collaborators WHERE id = ?", id)
	c, err := scanCollaborator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collaborator %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collaborator: %w", err)
	}
	return c, nil
}

// GetCollaboratorByTripAndUser retrieves the user's invitation to a trip, in any status.
func (s *SQLiteStore) GetCollaboratorByTripAndUser(ctx context.Context, tripID, userID string) (*models.Collaborator, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+collaboratorColumns+" FROM trip_collaborators WHERE trip_id = ? AND user_id = ?",
		tripID, userID)
	c, err := scanCollaborator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collaborator %s on trip %s: %w", userID, tripID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collaborator: %w", err)
	}
	return c, nil
}

// UpdateCollaborator overwrites role, status and timestamps of an invitation.
func (s *SQLiteStore) UpdateCollaborator(ctx context.Context, c *models.Collaborator) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trip_collaborators
		 SET role = ?, status = ?, invited_by = ?, invited_at = ?, accepted_at = ?
		 WHERE id = ?`,
		c.Role.String(), string(c.Status), c.InvitedBy, c.InvitedAt, c.AcceptedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update collaborator: %w", err)
	}
	return checkAffected(res, "collaborator", c.ID)
}

// DeleteCollaborator removes an invitation.
func (s *SQLiteStore) DeleteCollaborator(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trip_collaborators WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete collaborator: %w", err)
	}
	return checkAffected(res, "collaborator", id)
}

// ListCollaboratorsByTrip returns every invitation for a trip, oldest first.
func (s *SQLiteStore) ListCollaboratorsByTrip(ctx context.Context, tripID string) ([]*models.Collaborator, error) {
	return s.queryCollaborators(ctx,
		"SELECT "+collaboratorColumns+" FROM trip_collaborators WHERE trip_id = ? ORDER BY invited_at, rowid",
		tripID)
}

// ListInvitationsByUser returns the invitations addressed to a user, newest first.
func (s *SQLiteStore) ListInvitationsByUser(ctx context.Context, userID string, status models.InvitationStatus) ([]*models.Collaborator, error) {
	query := "SELECT " + collaboratorColumns + " FROM trip_collaborators WHERE user_id = ?"
	args := []any{userID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY invited_at DESC, rowid DESC"
	return s.queryCollaborators(ctx, query, args...)
}

// CountAcceptedCollaborators counts the accepted collaborators of a trip.
// The trip creator is not a collaborator row and is not counted.
func (s *SQLiteStore) CountAcceptedCollaborators(ctx context.Context, tripID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM trip_collaborators WHERE trip_id = ? AND status = 'accepted'",
		tripID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count collaborators: %w", err)
	}
	return n, nil
}

// ExpirePendingInvitations marks stale pending invitations as expired.
func (s *SQLiteStore) ExpirePendingInvitations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE trip_collaborators SET status = 'expired' WHERE status = 'pending' AND invited_at < ?",
		cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) queryCollaborators(ctx context.Context, query string, args ...any) ([]*models.Collaborator, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	defer rows.Close()

	var out []*models.Collaborator
	for rows.Next() {
		c, err := scanCollaborator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collaborator: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collaborators: %w", err)
	}
	return out, nil
}

func scanCollaborator(row rowScanner) (*models.Collaborator, error) {
	c := &models.Collaborator{}
	var role, status string
	if err := row.Scan(&c.ID, &c.TripID, &c.UserID, &role, &status,
		&c.InvitedBy, &c.InvitedAt, &c.AcceptedAt); err != nil {
		return nil, err
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}
	c.Role = r
	c.Status = models.InvitationStatus(status)
	return c, nil
}
