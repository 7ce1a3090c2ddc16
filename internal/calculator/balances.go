package calculator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripwiser/internal/models"
)

// SettledTolerance is the distance from zero under which a balance counts as
// settled. It absorbs the cent lost when an amount is split into n shares.
const SettledTolerance = 0.01

// Split is one user's share of an expense, as seen by the balance calculation.
type Split struct {
	UserID string
	Amount float64
}

// ExpenseForBalance represents an expense with the minimal information needed
// for balance calculations.
type ExpenseForBalance struct {
	PaidBy  string
	Amount  float64
	IsSplit bool
	Splits  []Split
}

// Suggestion is a proposed payment that reduces outstanding balances.
// Amount is always positive and rounded to cents.
type Suggestion struct {
	FromUserID string // Debtor who pays
	ToUserID   string // Creditor who is paid
	Amount     float64
}

// ComputeBalances nets split expenses into a per-user balance.
// Positive = owed money, Negative = owes money.
//
// The payer of each split expense is credited the full amount and every split
// user is debited their share. Expenses that are not split, or have no
// splits, are ignored.
//
// Callers must supply internally consistent expenses: split amounts are
// expected to sum to the expense amount. This is not validated here; when it
// holds the returned balances sum to zero within SettledTolerance. Splits are
// expected in whole cents; see SimplifySettlements.
func ComputeBalances(expenses []ExpenseForBalance) map[string]float64 {
	balances := make(map[string]float64)
	for _, e := range expenses {
		if !e.IsSplit || len(e.Splits) == 0 {
			continue
		}
		balances[e.PaidBy] += e.Amount
		for _, s := range e.Splits {
			balances[s.UserID] -= s.Amount
		}
	}
	return balances
}

type party struct {
	userID string
	amount float64 // always positive: credit for creditors, debt for debtors
}

// SimplifySettlements turns net balances into a short list of payments that
// zero them out.
//
// Algorithm:
//   - Creditors (balance > SettledTolerance) sorted by balance descending
//   - Debtors (balance < -SettledTolerance) sorted by debt descending
//   - Greedy: the current largest creditor is paid by the current largest
//     debtor, min(credit, debt) at a time; whoever reaches zero is skipped
//
// Each step exhausts at least one party, so at most
// len(creditors)+len(debtors)-1 suggestions are emitted. Amounts are rounded
// to cents only when emitted.
//
// Applying the suggestions zeroes every balance within SettledTolerance only
// when the balances are whole cents, as they are for splits from BuildSplits.
// Sub-cent balances can leave a residual of a few cents, since each emitted
// amount is rounded and parties within the tolerance are skipped.
//
// Ordering among equal balances is not meaningful. Users are visited in ID
// order before the stable sort, which keeps output reproducible.
func SimplifySettlements(balances map[string]float64) []Suggestion {
	ids := make([]string, 0, len(balances))
	for id := range balances {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var creditors, debtors []party
	for _, id := range ids {
		b := balances[id]
		if b > SettledTolerance {
			creditors = append(creditors, party{userID: id, amount: b})
		} else if b < -SettledTolerance {
			debtors = append(debtors, party{userID: id, amount: -b})
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })

	suggestions := make([]Suggestion, 0)
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := math.Min(creditor.amount, debtor.amount)
		if amount > SettledTolerance {
			suggestions = append(suggestions, Suggestion{
				FromUserID: debtor.userID,
				ToUserID:   creditor.userID,
				Amount:     RoundCents(amount),
			})
		}

		creditor.amount -= amount
		debtor.amount -= amount

		if creditor.amount <= SettledTolerance {
			i++
		}
		if debtor.amount <= SettledTolerance {
			j++
		}
	}

	return suggestions
}

// RoundCents rounds a currency amount to two decimal places.
func RoundCents(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// ExpenseSource provides read access to a trip's split expenses.
type ExpenseSource interface {
	ListSplitExpenses(ctx context.Context, tripID string) ([]*models.Expense, error)
}

// Result holds both halves of a settlement calculation.
type Result struct {
	Balances    map[string]float64
	Suggestions []Suggestion
}

// Engine computes settlement suggestions for trips. It keeps no state between
// calls; each calculation works on the snapshot returned by its source.
type Engine struct {
	expenses ExpenseSource
}

// NewEngine creates an Engine reading expenses from src.
func NewEngine(src ExpenseSource) *Engine {
	return &Engine{expenses: src}
}

// Calculate fetches the trip's split expenses and returns balances and
// suggestions. The only possible error is the source's.
func (e *Engine) Calculate(ctx context.Context, tripID string) (*Result, error) {
	expenses, err := e.expenses.ListSplitExpenses(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch split expenses: %w", err)
	}

	balances := ComputeBalances(FromExpenses(expenses))
	return &Result{
		Balances:    balances,
		Suggestions: SimplifySettlements(balances),
	}, nil
}

// CalculateSettlements returns only the settlement suggestions for a trip.
func (e *Engine) CalculateSettlements(ctx context.Context, tripID string) ([]Suggestion, error) {
	res, err := e.Calculate(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return res.Suggestions, nil
}

// FromExpenses converts stored expenses to the calculator's input form.
func FromExpenses(expenses []*models.Expense) []ExpenseForBalance {
	out := make([]ExpenseForBalance, 0, len(expenses))
	for _, e := range expenses {
		splits := make([]Split, len(e.Splits))
		for i, s := range e.Splits {
			splits[i] = Split{UserID: s.UserID, Amount: s.Amount}
		}
		out = append(out, ExpenseForBalance{
			PaidBy:  e.PaidBy,
			Amount:  e.Amount,
			IsSplit: e.IsSplit,
			Splits:  splits,
		})
	}
	return out
}
