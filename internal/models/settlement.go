package models

// Settlement represents a payment between trip members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// TripID is the trip this settlement belongs to.
	TripID string

	// FromUserID is the user who pays (debtor settling up).
	FromUserID string

	// ToUserID is the user who receives payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount.
	Amount float64

	Currency      string
	PaymentMethod string

	// Note is an optional description for the settlement.
	Note string

	// IsSettled is set once the payment has been confirmed.
	IsSettled bool
	SettledAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
	UpdatedAt int64
}
