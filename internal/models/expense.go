package models

import "time"

// SplitType controls how an expense is divided among its participants.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitCustom     SplitType = "custom"
)

// Valid reports whether t is a known split type.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitPercentage, SplitCustom:
		return true
	}
	return false
}

// Expense is money paid by one trip member, optionally split among others.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID     string
	TripID string

	// PaidBy is the user ID who paid the full amount.
	PaidBy string

	Title       string
	Description string
	Amount      float64
	Currency    string

	// CategoryID references a BudgetCategory of the same trip; empty if none.
	CategoryID string

	ExpenseDate   time.Time
	PaymentMethod string
	VendorName    string
	Location      string

	// IsSplit marks expenses shared among Splits. Only split expenses take
	// part in settlement calculations.
	IsSplit   bool
	SplitType SplitType
	Splits    []ExpenseSplit

	// IsSettled becomes true once every split is paid.
	IsSettled bool

	Notes     string
	CreatedAt int64
	UpdatedAt int64
}

// ExpenseSplit is one user's share of an expense.
type ExpenseSplit struct {
	ID        string
	ExpenseID string
	UserID    string

	// Amount is what UserID owes toward the expense.
	Amount float64

	// Percentage is the share of the expense, when known.
	Percentage float64

	IsPaid bool
	PaidAt int64
	Notes  string
}

// BudgetCategory allocates part of a trip's budget to a spending category.
type BudgetCategory struct {
	ID              string
	TripID          string
	Category        string
	AllocatedAmount float64

	// Spent is derived from the category's expenses when read; it is not stored.
	Spent float64

	Currency  string
	Notes     string
	CreatedAt int64
	UpdatedAt int64
}
