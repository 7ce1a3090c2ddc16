package api

type Split struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	Username   string  `json:"username,omitempty"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage,omitempty"`
	IsPaid     bool    `json:"is_paid"`
	PaidAt     int64   `json:"paid_at,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

type Expense struct {
	ID             string   `json:"id"`
	TripID         string   `json:"trip_id"`
	PaidBy         string   `json:"paid_by"`
	PaidByUsername string   `json:"paid_by_username,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Amount         float64  `json:"amount"`
	Currency       string   `json:"currency"`
	CategoryID     string   `json:"category_id,omitempty"`
	ExpenseDate    string   `json:"expense_date"`
	PaymentMethod  string   `json:"payment_method,omitempty"`
	VendorName     string   `json:"vendor_name,omitempty"`
	Location       string   `json:"location,omitempty"`
	IsSplit        bool     `json:"is_split"`
	SplitType      string   `json:"split_type,omitempty"`
	Splits         []*Split `json:"splits,omitempty"`
	IsSettled      bool     `json:"is_settled"`
	Notes          string   `json:"notes,omitempty"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

// SplitInput names a participant of a split expense. Percentage is read for
// percentage splits and Amount for custom splits.
type SplitInput struct {
	UserID     string  `json:"user_id"`
	Percentage float64 `json:"percentage,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

type CreateExpenseRequest struct {
	TripID        string       `json:"trip_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Amount        float64      `json:"amount"`
	Currency      string       `json:"currency,omitempty"`
	PaidBy        string       `json:"paid_by,omitempty"`
	CategoryID    string       `json:"category_id,omitempty"`
	ExpenseDate   string       `json:"expense_date,omitempty"`
	PaymentMethod string       `json:"payment_method,omitempty"`
	VendorName    string       `json:"vendor_name,omitempty"`
	Location      string       `json:"location,omitempty"`
	IsSplit       bool         `json:"is_split,omitempty"`
	SplitType     string       `json:"split_type,omitempty"`
	Splits        []SplitInput `json:"splits,omitempty"`
	Notes         string       `json:"notes,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	TripID     string `json:"trip_id"`
	CategoryID string `json:"category_id,omitempty"`
	PaidBy     string `json:"paid_by,omitempty"`
	IsSettled  *bool  `json:"is_settled,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// UpdateExpenseRequest changes only the fields that are set. Splits are
// rebuilt when the amount, split type or Splits change.
type UpdateExpenseRequest struct {
	ExpenseID     string       `json:"expense_id"`
	Title         *string      `json:"title,omitempty"`
	Description   *string      `json:"description,omitempty"`
	Amount        *float64     `json:"amount,omitempty"`
	Currency      *string      `json:"currency,omitempty"`
	CategoryID    *string      `json:"category_id,omitempty"`
	ExpenseDate   *string      `json:"expense_date,omitempty"`
	PaymentMethod *string      `json:"payment_method,omitempty"`
	VendorName    *string      `json:"vendor_name,omitempty"`
	Location      *string      `json:"location,omitempty"`
	IsSplit       *bool        `json:"is_split,omitempty"`
	SplitType     *string      `json:"split_type,omitempty"`
	Splits        []SplitInput `json:"splits,omitempty"`
	Notes         *string      `json:"notes,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type SettleSplitRequest struct {
	SplitID string `json:"split_id"`
}

type SettleSplitResponse struct {
	Split          *Split `json:"split"`
	ExpenseSettled bool   `json:"expense_settled"`
}

type BudgetCategory struct {
	ID              string  `json:"id"`
	TripID          string  `json:"trip_id"`
	Category        string  `json:"category"`
	AllocatedAmount float64 `json:"allocated_amount"`
	Spent           float64 `json:"spent"`
	Remaining       float64 `json:"remaining"`
	PercentageUsed  float64 `json:"percentage_used"`
	OverBudget      bool    `json:"over_budget"`
	Currency        string  `json:"currency"`
	Notes           string  `json:"notes,omitempty"`
}

type CreateBudgetCategoryRequest struct {
	TripID          string  `json:"trip_id"`
	Category        string  `json:"category"`
	AllocatedAmount float64 `json:"allocated_amount"`
	Currency        string  `json:"currency,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

type CreateBudgetCategoryResponse struct {
	Category *BudgetCategory `json:"category"`
}

type UpdateBudgetCategoryRequest struct {
	CategoryID      string   `json:"category_id"`
	Category        *string  `json:"category,omitempty"`
	AllocatedAmount *float64 `json:"allocated_amount,omitempty"`
	Currency        *string  `json:"currency,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

type UpdateBudgetCategoryResponse struct {
	Category *BudgetCategory `json:"category"`
}

type GetBudgetRequest struct {
	TripID string `json:"trip_id"`
}

type GetBudgetResponse struct {
	TripBudget     *float64          `json:"trip_budget,omitempty"`
	Categories     []*BudgetCategory `json:"categories"`
	TotalAllocated float64           `json:"total_allocated"`
	TotalSpent     float64           `json:"total_spent"`
	Remaining      float64           `json:"remaining"`
	PercentageUsed float64           `json:"percentage_used"`
	OverBudget     bool              `json:"over_budget"`
}

type GetExpenseAnalyticsRequest struct {
	TripID string `json:"trip_id"`
}

// AmountCount aggregates a group of expenses.
type AmountCount struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type GetExpenseAnalyticsResponse struct {
	TotalExpenses   float64                 `json:"total_expenses"`
	ExpenseCount    int                     `json:"expense_count"`
	AverageExpense  float64                 `json:"average_expense"`
	ByCategory      map[string]*AmountCount `json:"by_category"`
	ByPayer         map[string]*AmountCount `json:"by_payer"`
	ByPaymentMethod map[string]*AmountCount `json:"by_payment_method"`
	Settled         float64                 `json:"settled"`
	Unsettled       float64                 `json:"unsettled"`
	SettledPercent  float64                 `json:"settled_percentage"`
}

type CalculateSettlementsRequest struct {
	TripID string `json:"trip_id"`
}

type Balance struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Amount   float64 `json:"amount"`
}

type SettlementSuggestion struct {
	FromUserID   string  `json:"from_user_id"`
	FromUsername string  `json:"from_username"`
	ToUserID     string  `json:"to_user_id"`
	ToUsername   string  `json:"to_username"`
	Amount       float64 `json:"amount"`
}

type CalculateSettlementsResponse struct {
	Balances    []*Balance              `json:"balances"`
	Suggestions []*SettlementSuggestion `json:"suggestions"`
}

type Settlement struct {
	ID            string  `json:"id"`
	TripID        string  `json:"trip_id"`
	FromUserID    string  `json:"from_user_id"`
	FromUsername  string  `json:"from_username,omitempty"`
	ToUserID      string  `json:"to_user_id"`
	ToUsername    string  `json:"to_username,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Note          string  `json:"note,omitempty"`
	IsSettled     bool    `json:"is_settled"`
	SettledAt     int64   `json:"settled_at,omitempty"`
	CreatedBy     string  `json:"created_by"`
	CreatedAt     int64   `json:"created_at"`
}

type CreateSettlementRequest struct {
	TripID        string  `json:"trip_id"`
	FromUserID    string  `json:"from_user_id"`
	ToUserID      string  `json:"to_user_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Note          string  `json:"note,omitempty"`
}

type CreateSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type MarkSettlementPaidRequest struct {
	SettlementID string `json:"settlement_id"`
}

type MarkSettlementPaidResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	TripID  string `json:"trip_id"`
	Settled *bool  `json:"settled,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
