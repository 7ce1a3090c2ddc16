package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripwiser/internal/models"
)

var (
	ErrNoParticipants = errors.New("split expense must have at least one participant")
	ErrDuplicateUser  = errors.New("user appears more than once in splits")
)

// Share is a requested portion of an expense for one user. Percentage is read
// for percentage splits and Amount for custom splits; both are ignored for
// equal splits.
type Share struct {
	UserID     string
	Percentage float64
	Amount     float64
	Notes      string
}

// SplitShare is the calculated portion one user owes.
type SplitShare struct {
	UserID     string
	Amount     float64
	Percentage float64
	Notes      string
}

// BuildSplits divides amount among shares according to splitType.
//
//   - equal: amount / n each, percentage 100 / n
//   - percentage: amount × percentage / 100; percentages must total 100
//   - custom: the given amounts; they must total amount
//
// Each share is rounded to cents and the last share absorbs the rounding
// remainder, so the split amounts always sum to amount exactly. Percentage and
// custom totals are checked within SettledTolerance before that adjustment.
func BuildSplits(amount float64, splitType models.SplitType, shares []Share) ([]SplitShare, error) {
	if len(shares) == 0 {
		return nil, ErrNoParticipants
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}

	seen := make(map[string]bool, len(shares))
	for _, s := range shares {
		if s.UserID == "" {
			return nil, fmt.Errorf("split user_id required")
		}
		if seen[s.UserID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, s.UserID)
		}
		seen[s.UserID] = true
	}

	total := decimal.NewFromFloat(amount)
	hundred := decimal.NewFromInt(100)
	parts := make([]decimal.Decimal, len(shares))
	splits := make([]SplitShare, len(shares))

	switch splitType {
	case models.SplitEqual:
		n := decimal.NewFromInt(int64(len(shares)))
		for i, s := range shares {
			parts[i] = total.Div(n)
			splits[i] = SplitShare{
				UserID:     s.UserID,
				Percentage: 100.0 / float64(len(shares)),
				Notes:      s.Notes,
			}
		}

	case models.SplitPercentage:
		pctTotal, sum := decimal.Zero, decimal.Zero
		for i, s := range shares {
			if s.Percentage < 0 {
				return nil, fmt.Errorf("percentage for %s cannot be negative", s.UserID)
			}
			pct := decimal.NewFromFloat(s.Percentage)
			pctTotal = pctTotal.Add(pct)
			parts[i] = total.Mul(pct).Div(hundred)
			sum = sum.Add(parts[i])
			splits[i] = SplitShare{
				UserID:     s.UserID,
				Percentage: s.Percentage,
				Notes:      s.Notes,
			}
		}
		if !withinTolerance(pctTotal, hundred) {
			return nil, fmt.Errorf("percentages must total 100, got %v", pctTotal)
		}
		// On large amounts a small percentage gap is a real sum of money.
		if !withinTolerance(sum, total) {
			return nil, fmt.Errorf("percentages cover %v of %v", sum.Round(2), total)
		}

	case models.SplitCustom:
		sum := decimal.Zero
		for i, s := range shares {
			if s.Amount < 0 {
				return nil, fmt.Errorf("amount for %s cannot be negative", s.UserID)
			}
			parts[i] = decimal.NewFromFloat(s.Amount)
			sum = sum.Add(parts[i])
			splits[i] = SplitShare{
				UserID:     s.UserID,
				Percentage: s.Amount / amount * 100,
				Notes:      s.Notes,
			}
		}
		if !withinTolerance(sum, total) {
			return nil, fmt.Errorf("custom split amounts must total %v, got %v", total, sum)
		}

	default:
		return nil, fmt.Errorf("unknown split type %q", splitType)
	}

	for i, a := range allocateCents(total, parts) {
		splits[i].Amount = a
	}
	return splits, nil
}

// allocateCents rounds every part but the last to cents and gives the last
// part whatever remains of total.
func allocateCents(total decimal.Decimal, parts []decimal.Decimal) []float64 {
	out := make([]float64, len(parts))
	assigned := decimal.Zero
	last := len(parts) - 1
	for i := range last {
		p := parts[i].Round(2)
		assigned = assigned.Add(p)
		out[i] = p.InexactFloat64()
	}
	out[last] = total.Sub(assigned).InexactFloat64()
	return out
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(decimal.NewFromFloat(SettledTolerance))
}
