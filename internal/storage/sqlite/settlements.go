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

const settlementColumns = `id, trip_id, from_user_id, to_user_id, amount, currency, payment_method,
	note, is_settled, settled_at, created_by, created_at, updated_at`

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	now := s.now().Unix()
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = now
	}
	settlement.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settlements ("+settlementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.TripID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, settlement.Currency, settlement.PaymentMethod,
		nullString(settlement.Note), settlement.IsSettled, settlement.SettledAt,
		settlement.CreatedBy, settlement.CreatedAt, settlement.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?", settlementID)
	settlement, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ListSettlementsByTrip retrieves the settlements of a trip.
func (s *SQLiteStore) ListSettlementsByTrip(ctx context.Context, tripID string, settled *bool) ([]*models.Settlement, error) {
	query := "SELECT " + settlementColumns + " FROM settlements WHERE trip_id = ?"
	args := []any{tripID}
	if settled != nil {
		query += " AND is_settled = ?"
		args = append(args, *settled)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by trip: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// MarkSettlementPaid records that a settlement's payment was made.
func (s *SQLiteStore) MarkSettlementPaid(ctx context.Context, settlementID string, settledAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET is_settled = 1, settled_at = ?, updated_at = ? WHERE id = ?",
		settledAt, settledAt, settlementID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark settlement paid: %w", err)
	}
	return checkAffected(res, "settlement", settlementID)
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var note sql.NullString
	if err := row.Scan(&settlement.ID, &settlement.TripID, &settlement.FromUserID, &settlement.ToUserID,
		&settlement.Amount, &settlement.Currency, &settlement.PaymentMethod, &note,
		&settlement.IsSettled, &settlement.SettledAt, &settlement.CreatedBy,
		&settlement.CreatedAt, &settlement.UpdatedAt); err != nil {
		return nil, err
	}
	if note.Valid {
		settlement.Note = note.String
	}
	return settlement, nil
}
