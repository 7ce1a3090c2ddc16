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

const expenseColumns = `id, trip_id, paid_by, title, description, amount, currency, category_id,
	expense_date, payment_method, vendor_name, location, is_split, split_type, is_settled,
	notes, created_at, updated_at`

// CreateExpense persists a new expense and its splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.SplitType == "" {
		e.SplitType = models.SplitEqual
	}
	now := s.now().Unix()
	e.CreatedAt = now
	e.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TripID, e.PaidBy, e.Title, e.Description, e.Amount, e.Currency,
		nullString(e.CategoryID), models.FormatDate(e.ExpenseDate), e.PaymentMethod,
		e.VendorName, e.Location, e.IsSplit, string(e.SplitType), e.IsSettled,
		e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.attachSplits(ctx, []*models.Expense{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateExpense rewrites the expense and replaces its splits in one transaction.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	e.UpdatedAt = s.now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET paid_by = ?, title = ?, description = ?, amount = ?, currency = ?,
			category_id = ?, expense_date = ?, payment_method = ?, vendor_name = ?, location = ?,
			is_split = ?, split_type = ?, is_settled = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		e.PaidBy, e.Title, e.Description, e.Amount, e.Currency,
		nullString(e.CategoryID), models.FormatDate(e.ExpenseDate), e.PaymentMethod, e.VendorName, e.Location,
		e.IsSplit, string(e.SplitType), e.IsSettled, e.Notes, e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if err := checkAffected(res, "expense", e.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", e.ID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	if err := insertSplits(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense and its splits.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return checkAffected(res, "expense", id)
}

// ListExpenses retrieves a trip's expenses matching filter, with splits.
func (s *SQLiteStore) ListExpenses(ctx context.Context, tripID string, filter storage.ExpenseFilter) ([]*models.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE trip_id = ?"
	args := []any{tripID}
	if filter.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, filter.CategoryID)
	}
	if filter.PaidBy != "" {
		query += " AND paid_by = ?"
		args = append(args, filter.PaidBy)
	}
	if filter.IsSettled != nil {
		query += " AND is_settled = ?"
		args = append(args, *filter.IsSettled)
	}
	if !filter.StartDate.IsZero() {
		query += " AND expense_date >= ?"
		args = append(args, models.FormatDate(filter.StartDate))
	}
	if !filter.EndDate.IsZero() {
		query += " AND expense_date <= ?"
		args = append(args, models.FormatDate(filter.EndDate))
	}
	query += " ORDER BY expense_date DESC, created_at DESC, rowid DESC"

	return s.queryExpenses(ctx, query, args...)
}

// ListSplitExpenses retrieves the split expenses of a trip, with splits.
// It satisfies calculator.ExpenseSource.
func (s *SQLiteStore) ListSplitExpenses(ctx context.Context, tripID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE trip_id = ? AND is_split = 1 ORDER BY created_at, rowid",
		tripID)
}

// GetSplit retrieves a single split by ID.
func (s *SQLiteStore) GetSplit(ctx context.Context, splitID string) (*models.ExpenseSplit, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+splitColumns+" FROM expense_splits WHERE id = ?", splitID)
	split, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	return split, nil
}

// MarkSplitPaid marks a split paid and settles its expense once no split is outstanding.
func (s *SQLiteStore) MarkSplitPaid(ctx context.Context, splitID string, paidAt int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var expenseID string
	err = tx.QueryRowContext(ctx, "SELECT expense_id FROM expense_splits WHERE id = ?", splitID).Scan(&expenseID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to get split: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE expense_splits SET is_paid = 1, paid_at = ? WHERE id = ?", paidAt, splitID); err != nil {
		return false, fmt.Errorf("failed to mark split paid: %w", err)
	}

	var unpaid int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expense_splits WHERE expense_id = ? AND is_paid = 0", expenseID,
	).Scan(&unpaid); err != nil {
		return false, fmt.Errorf("failed to count unpaid splits: %w", err)
	}

	settled := unpaid == 0
	if settled {
		if _, err := tx.ExecContext(ctx,
			"UPDATE expenses SET is_settled = 1, updated_at = ? WHERE id = ?", paidAt, expenseID); err != nil {
			return false, fmt.Errorf("failed to settle expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return settled, nil
}

func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var out []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	rows.Close()

	if err := s.attachSplits(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

const splitColumns = "id, expense_id, user_id, amount, percentage, is_paid, paid_at, notes"

// attachSplits loads the splits of every expense with a single query.
func (s *SQLiteStore) attachSplits(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	byID := make(map[string]*models.Expense, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		ids[i] = e.ID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+splitColumns+" FROM expense_splits WHERE expense_id IN ("+placeholders(len(ids))+
			") ORDER BY expense_id, position",
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		e := byID[split.ExpenseID]
		e.Splits = append(e.Splits, *split)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating splits: %w", err)
	}
	return nil
}

func insertSplits(ctx context.Context, tx *sql.Tx, e *models.Expense) error {
	for i := range e.Splits {
		split := &e.Splits[i]
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		split.ExpenseID = e.ID

		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits ("+splitColumns+", position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			split.ID, split.ExpenseID, split.UserID, split.Amount, split.Percentage,
			split.IsPaid, split.PaidAt, split.Notes, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var categoryID sql.NullString
	var date, splitType string
	if err := row.Scan(&e.ID, &e.TripID, &e.PaidBy, &e.Title, &e.Description, &e.Amount,
		&e.Currency, &categoryID, &date, &e.PaymentMethod, &e.VendorName, &e.Location,
		&e.IsSplit, &splitType, &e.IsSettled, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if e.ExpenseDate, err = models.ParseDate(date); err != nil {
		return nil, err
	}
	e.CategoryID = categoryID.String
	e.SplitType = models.SplitType(splitType)
	return e, nil
}

func scanSplit(row rowScanner) (*models.ExpenseSplit, error) {
	split := &models.ExpenseSplit{}
	if err := row.Scan(&split.ID, &split.ExpenseID, &split.UserID, &split.Amount,
		&split.Percentage, &split.IsPaid, &split.PaidAt, &split.Notes); err != nil {
		return nil, err
	}
	return split, nil
}
