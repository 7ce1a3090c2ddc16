package calculator

import (
	"math"
	"testing"

	"github.com/mmynk/tripwiser/internal/models"
)

func TestBuildSplits(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		splitType    models.SplitType
		shares       []Share
		wantErr      bool
		validateFunc func(t *testing.T, splits []SplitShare)
	}{
		{
			name:      "equal split among three",
			amount:    90,
			splitType: models.SplitEqual,
			shares:    []Share{{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"}},
			validateFunc: func(t *testing.T, splits []SplitShare) {
				for _, s := range splits {
					if math.Abs(s.Amount-30) > 0.001 {
						t.Errorf("%s amount = %v, want 30", s.UserID, s.Amount)
					}
					if math.Abs(s.Percentage-100.0/3) > 0.001 {
						t.Errorf("%s percentage = %v, want 33.33", s.UserID, s.Percentage)
					}
				}
			},
		},
		{
			name:      "equal split ignores requested amounts",
			amount:    10,
			splitType: models.SplitEqual,
			shares:    []Share{{UserID: "alice", Amount: 9}, {UserID: "bob", Amount: 1}},
			validateFunc: func(t *testing.T, splits []SplitShare) {
				if splits[0].Amount != 5 || splits[1].Amount != 5 {
					t.Errorf("amounts = %v, %v, want 5, 5", splits[0].Amount, splits[1].Amount)
				}
			},
		},
		{
			name:      "percentage split",
			amount:    200,
			splitType: models.SplitPercentage,
			shares:    []Share{{UserID: "alice", Percentage: 75}, {UserID: "bob", Percentage: 25}},
			validateFunc: func(t *testing.T, splits []SplitShare) {
				if splits[0].Amount != 150 {
					t.Errorf("alice amount = %v, want 150", splits[0].Amount)
				}
				if splits[1].Amount != 50 {
					t.Errorf("bob amount = %v, want 50", splits[1].Amount)
				}
			},
		},
		{
			name:      "percentages must total 100",
			amount:    200,
			splitType: models.SplitPercentage,
			shares:    []Share{{UserID: "alice", Percentage: 60}, {UserID: "bob", Percentage: 30}},
			wantErr:   true,
		},
		{
			name:      "equal split gives the remainder cent to the last share",
			amount:    100,
			splitType: models.SplitEqual,
			shares:    []Share{{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"}},
			validateFunc: func(t *testing.T, splits []SplitShare) {
				want := []float64{33.33, 33.33, 33.34}
				for i, s := range splits {
					if s.Amount != want[i] {
						t.Errorf("%s amount = %v, want %v", s.UserID, s.Amount, want[i])
					}
				}
			},
		},
		{
			name:      "percentage split rounds to cents",
			amount:    100,
			splitType: models.SplitPercentage,
			shares:    []Share{{UserID: "alice", Percentage: 33.333}, {UserID: "bob", Percentage: 33.333}, {UserID: "carol", Percentage: 33.334}},
			validateFunc: func(t *testing.T, splits []SplitShare) {
				want := []float64{33.33, 33.33, 33.34}
				for i, s := range splits {
					if s.Amount != want[i] {
						t.Errorf("%s amount = %v, want %v", s.UserID, s.Amount, want[i])
					}
				}
			},
		},
		{
			name:      "percentage gap on a large amount",
			amount:    1000000,
			splitType: models.SplitPercentage,
			shares:    []Share{{UserID: "alice", Percentage: 50}, {UserID: "bob", Percentage: 49.995}},
			wantErr:   true,
		},
		{
			name:      "custom split",
			amount:    100,
			splitType: models.SplitCustom,
			shares:    []Share{{UserID: "alice", Amount: 70}, {UserID: "bob", Amount: 30}},
			validateFunc: func(t *testing.T, splits []SplitShare) {
				if splits[0].Percentage != 70 {
					t.Errorf("alice percentage = %v, want 70", splits[0].Percentage)
				}
			},
		},
		{
			name:      "custom amounts must total the expense",
			amount:    100,
			splitType: models.SplitCustom,
			shares:    []Share{{UserID: "alice", Amount: 70}, {UserID: "bob", Amount: 20}},
			wantErr:   true,
		},
		{
			name:      "negative custom amount",
			amount:    10,
			splitType: models.SplitCustom,
			shares:    []Share{{UserID: "alice", Amount: 20}, {UserID: "bob", Amount: -10}},
			wantErr:   true,
		},
		{
			name:      "no participants",
			amount:    10,
			splitType: models.SplitEqual,
			wantErr:   true,
		},
		{
			name:      "duplicate participant",
			amount:    10,
			splitType: models.SplitEqual,
			shares:    []Share{{UserID: "alice"}, {UserID: "alice"}},
			wantErr:   true,
		},
		{
			name:      "unknown split type",
			amount:    10,
			splitType: "shares",
			shares:    []Share{{UserID: "alice"}},
			wantErr:   true,
		},
		{
			name:      "zero amount",
			amount:    0,
			splitType: models.SplitEqual,
			shares:    []Share{{UserID: "alice"}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := BuildSplits(tt.amount, tt.splitType, tt.shares)
			if (err != nil) != tt.wantErr {
				t.Errorf("BuildSplits() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}

func TestBuildSplits_BalancesNetToZero(t *testing.T) {
	tests := []struct {
		name      string
		amount    float64
		splitType models.SplitType
		shares    []Share
	}{
		{"equal thirds", 1000, models.SplitEqual, []Share{{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"}}},
		{"equal sevenths", 123.45, models.SplitEqual, []Share{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}, {UserID: "d"}, {UserID: "e"}, {UserID: "f"}, {UserID: "g"}}},
		{"percentages just under 100", 100, models.SplitPercentage, []Share{{UserID: "alice", Percentage: 50}, {UserID: "bob", Percentage: 49.995}}},
		{"custom amounts a fraction of a cent short", 10, models.SplitCustom, []Share{{UserID: "alice", Amount: 5}, {UserID: "bob", Amount: 4.995}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := BuildSplits(tt.amount, tt.splitType, tt.shares)
			if err != nil {
				t.Fatalf("BuildSplits() error = %v", err)
			}

			expense := ExpenseForBalance{PaidBy: "alice", Amount: tt.amount, IsSplit: true}
			for _, s := range splits {
				expense.Splits = append(expense.Splits, Split{UserID: s.UserID, Amount: s.Amount})
			}

			balances := ComputeBalances([]ExpenseForBalance{expense})
			if sum := sumBalances(balances); math.Abs(sum) > 1e-9 {
				t.Errorf("balances sum to %v, want 0", sum)
			}
			checkResiduals(t, balances, SimplifySettlements(balances))
		})
	}
}
