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

// budgetQuery selects categories with their spent amount summed from expenses.
const budgetQuery = `
	SELECT b.id, b.trip_id, b.category, b.allocated_amount, COALESCE(SUM(e.amount), 0),
		b.currency, b.notes, b.created_at, b.updated_at
	FROM budget_categories b
	LEFT JOIN expenses e ON e.category_id = b.id`

// CreateBudgetCategory persists a new budget category.
func (s *SQLiteStore) CreateBudgetCategory(ctx context.Context, b *models.BudgetCategory) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := s.now().Unix()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_categories (id, trip_id, category, allocated_amount, currency, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TripID, b.Category, b.AllocatedAmount, b.Currency, b.Notes, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert budget category", err)
	}
	return nil
}

// GetBudgetCategory retrieves a budget category by ID.
func (s *SQLiteStore) GetBudgetCategory(ctx context.Context, id string) (*models.BudgetCategory, error) {
	row := s.db.QueryRowContext(ctx, budgetQuery+" WHERE b.id = ? GROUP BY b.id", id)
	b, err := scanBudgetCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget category %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget category: %w", err)
	}
	return b, nil
}

// UpdateBudgetCategory overwrites the name, allocation and notes of a category.
func (s *SQLiteStore) UpdateBudgetCategory(ctx context.Context, b *models.BudgetCategory) error {
	b.UpdatedAt = s.now().Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE budget_categories SET category = ?, allocated_amount = ?, currency = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		b.Category, b.AllocatedAmount, b.Currency, b.Notes, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget category: %w", err)
	}
	return checkAffected(res, "budget category", b.ID)
}

// ListBudgetCategories returns a trip's categories in creation order.
func (s *SQLiteStore) ListBudgetCategories(ctx context.Context, tripID string) ([]*models.BudgetCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		budgetQuery+" WHERE b.trip_id = ? GROUP BY b.id ORDER BY b.created_at, b.rowid", tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget categories: %w", err)
	}
	defer rows.Close()

	var out []*models.BudgetCategory
	for rows.Next() {
		b, err := scanBudgetCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget category: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget categories: %w", err)
	}
	return out, nil
}

func scanBudgetCategory(row rowScanner) (*models.BudgetCategory, error) {
	b := &models.BudgetCategory{}
	if err := row.Scan(&b.ID, &b.TripID, &b.Category, &b.AllocatedAmount, &b.Spent,
		&b.Currency, &b.Notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}
