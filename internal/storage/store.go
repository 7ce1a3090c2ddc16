// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/tripwiser/internal/models"
)

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is wrapped when a write violates a uniqueness constraint.
var ErrConflict = errors.New("already exists")

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to User. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// DeleteUser removes a user and every trip they created.
	DeleteUser(ctx context.Context, id string) error
}

// TripStore persists trips.
type TripStore interface {
	// CreateTrip persists a new trip. ID, CreatedAt and UpdatedAt are set by the store.
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	UpdateTrip(ctx context.Context, trip *models.Trip) error

	// DeleteTrip removes a trip and everything that belongs to it.
	DeleteTrip(ctx context.Context, tripID string) error

	// ListTripsForUser returns trips the user created or collaborates on
	// (accepted invitations only), newest first. An empty status matches all.
	ListTripsForUser(ctx context.Context, userID string, status models.TripStatus) ([]*models.Trip, error)
}

// CollaboratorStore persists trip invitations and roles.
type CollaboratorStore interface {
	CreateCollaborator(ctx context.Context, c *models.Collaborator) error
	GetCollaborator(ctx context.Context, id string) (*models.Collaborator, error)
	GetCollaboratorByTripAndUser(ctx context.Context, tripID, userID string) (*models.Collaborator, error)
	UpdateCollaborator(ctx context.Context, c *models.Collaborator) error
	DeleteCollaborator(ctx context.Context, id string) error
	ListCollaboratorsByTrip(ctx context.Context, tripID string) ([]*models.Collaborator, error)

	// ListInvitationsByUser returns the user's invitations. An empty status matches all.
	ListInvitationsByUser(ctx context.Context, userID string, status models.InvitationStatus) ([]*models.Collaborator, error)
	CountAcceptedCollaborators(ctx context.Context, tripID string) (int, error)

	// ExpirePendingInvitations marks pending invitations sent before cutoff as
	// expired and returns how many were changed.
	ExpirePendingInvitations(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityFilter narrows ListActivities. Zero fields match everything.
type ActivityFilter struct {
	Category string
	Status   string
	Priority string
	Date     time.Time

	// IsBooked matches on whether the booking status is confirmed.
	IsBooked *bool
}

// ActivityStore persists activities and day plans.
type ActivityStore interface {
	CreateActivity(ctx context.Context, a *models.Activity) error
	GetActivity(ctx context.Context, id string) (*models.Activity, error)
	UpdateActivity(ctx context.Context, a *models.Activity) error
	DeleteActivity(ctx context.Context, id string) error

	// ListActivities returns a trip's activities ordered by date and start time.
	ListActivities(ctx context.Context, tripID string, filter ActivityFilter) ([]*models.Activity, error)

	CreateDayPlan(ctx context.Context, dp *models.DayPlan) error
	GetDayPlan(ctx context.Context, id string) (*models.DayPlan, error)
	GetDayPlanByDate(ctx context.Context, tripID string, date time.Time) (*models.DayPlan, error)

	// ListDayPlans returns a trip's day plans ordered by date.
	ListDayPlans(ctx context.Context, tripID string) ([]*models.DayPlan, error)
}

// ExpenseFilter narrows ListExpenses. Zero fields match everything.
type ExpenseFilter struct {
	CategoryID string
	PaidBy     string
	IsSettled  *bool
	StartDate  time.Time
	EndDate    time.Time
}

// ExpenseStore persists expenses, their splits and budget categories.
type ExpenseStore interface {
	// CreateExpense persists the expense and its splits in one transaction.
	CreateExpense(ctx context.Context, e *models.Expense) error

	// GetExpense returns the expense with its splits.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// UpdateExpense rewrites the expense row and replaces its splits.
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error

	// ListExpenses returns a trip's expenses with splits, latest expense date first.
	ListExpenses(ctx context.Context, tripID string, filter ExpenseFilter) ([]*models.Expense, error)

	// ListSplitExpenses returns only the trip's split expenses, with splits.
	ListSplitExpenses(ctx context.Context, tripID string) ([]*models.Expense, error)

	GetSplit(ctx context.Context, splitID string) (*models.ExpenseSplit, error)

	// MarkSplitPaid marks a split paid. When every split of the expense is
	// paid the expense is marked settled; the returned bool reports that.
	MarkSplitPaid(ctx context.Context, splitID string, paidAt int64) (bool, error)

	CreateBudgetCategory(ctx context.Context, b *models.BudgetCategory) error

	// GetBudgetCategory and ListBudgetCategories fill in Spent from expenses.
	GetBudgetCategory(ctx context.Context, id string) (*models.BudgetCategory, error)
	UpdateBudgetCategory(ctx context.Context, b *models.BudgetCategory) error
	ListBudgetCategories(ctx context.Context, tripID string) ([]*models.BudgetCategory, error)
}

// SettlementStore persists recorded payments between trip members.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, s *models.Settlement) error
	GetSettlement(ctx context.Context, id string) (*models.Settlement, error)

	// ListSettlementsByTrip returns settlements newest first. A nil settled
	// matches both paid and unpaid.
	ListSettlementsByTrip(ctx context.Context, tripID string, settled *bool) ([]*models.Settlement, error)
	MarkSettlementPaid(ctx context.Context, id string, settledAt int64) error
}

// Store defines the full set of storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	TripStore
	CollaboratorStore
	ActivityStore
	ExpenseStore
	SettlementStore

	// Close releases any resources held by the store.
	Close() error
}
