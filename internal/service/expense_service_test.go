package service

import (
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/pkg/api"
)

// setupExpenseTrip creates alice's trip with bob as editor and carol as viewer.
func setupExpenseTrip(t *testing.T) (*testEnv, *api.Trip) {
	t.Helper()
	env := setupTestEnv(t)
	trip := env.createTrip("alice", "2026-12-01", 4)
	env.join(trip.ID, "alice", "bob", "editor")
	env.join(trip.ID, "alice", "carol", "viewer")
	return env, trip
}

func (e *testEnv) equalShares(names ...string) []api.SplitInput {
	shares := make([]api.SplitInput, len(names))
	for i, name := range names {
		shares[i] = api.SplitInput{UserID: e.id(name)}
	}
	return shares
}

func (e *testEnv) createExpense(caller string, req *api.CreateExpenseRequest) *api.Expense {
	e.t.Helper()
	resp, err := e.expenses.CreateExpense(e.as(caller), connect.NewRequest(req))
	if err != nil {
		e.t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func TestCreateExpense_EqualSplit(t *testing.T) {
	env, trip := setupExpenseTrip(t)

	e := env.createExpense("alice", &api.CreateExpenseRequest{
		TripID:      trip.ID,
		Title:       "Dinner",
		Amount:      300,
		ExpenseDate: "2026-12-01",
		IsSplit:     true,
		Splits:      env.equalShares("alice", "bob", "carol"),
	})

	if e.PaidBy != env.id("alice") || e.PaidByUsername != "alice" {
		t.Errorf("payer: expected alice, got %s (%s)", e.PaidBy, e.PaidByUsername)
	}
	if e.Currency != "INR" {
		t.Errorf("currency: expected INR, got %q", e.Currency)
	}
	if e.SplitType != "equal" {
		t.Errorf("split_type: expected 'equal', got %q", e.SplitType)
	}
	if len(e.Splits) != 3 {
		t.Fatalf("expected 3 splits, got %d", len(e.Splits))
	}
	for _, s := range e.Splits {
		if s.Amount != 100 {
			t.Errorf("split for %s: expected 100, got %v", s.Username, s.Amount)
		}
		if s.Username == "" {
			t.Errorf("split for %s: expected username", s.UserID)
		}
	}
}

func TestCreateExpense_SplitTypes(t *testing.T) {
	env, trip := setupExpenseTrip(t)

	pct := env.createExpense("alice", &api.CreateExpenseRequest{
		TripID:    trip.ID,
		Title:     "Hotel",
		Amount:    1000,
		IsSplit:   true,
		SplitType: "percentage",
		Splits: []api.SplitInput{
			{UserID: env.id("alice"), Percentage: 50},
			{UserID: env.id("bob"), Percentage: 30},
			{UserID: env.id("carol"), Percentage: 20},
		},
	})
	want := map[string]float64{"alice": 500, "bob": 300, "carol": 200}
	for _, s := range pct.Splits {
		if s.Amount != want[s.Username] {
			t.Errorf("percentage split for %s: expected %v, got %v", s.Username, want[s.Username], s.Amount)
		}
	}

	custom := env.createExpense("bob", &api.CreateExpenseRequest{
		TripID:    trip.ID,
		Title:     "Taxi",
		Amount:    450,
		IsSplit:   true,
		SplitType: "custom",
		Splits: []api.SplitInput{
			{UserID: env.id("bob"), Amount: 150},
			{UserID: env.id("carol"), Amount: 300},
		},
	})
	if custom.PaidByUsername != "bob" {
		t.Errorf("payer: expected bob, got %q", custom.PaidByUsername)
	}
	if len(custom.Splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(custom.Splits))
	}
}

func TestCreateExpense_Validation(t *testing.T) {
	env, trip := setupExpenseTrip(t)

	tests := []struct {
		name string
		req  *api.CreateExpenseRequest
	}{
		{"zero amount", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 0}},
		{"missing title", &api.CreateExpenseRequest{TripID: trip.ID, Title: "  ", Amount: 10}},
		{"outsider payer", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, PaidBy: env.id("dave")}},
		{"outsider split user", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, IsSplit: true, Splits: env.equalShares("alice", "dave")}},
		{"no participants", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, IsSplit: true}},
		{"duplicate participant", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, IsSplit: true, Splits: env.equalShares("alice", "alice")}},
		{"bad split type", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, IsSplit: true, SplitType: "shares", Splits: env.equalShares("alice")}},
		{"percentages off", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, IsSplit: true, SplitType: "percentage", Splits: []api.SplitInput{
			{UserID: env.id("alice"), Percentage: 60},
			{UserID: env.id("bob"), Percentage: 30},
		}}},
		{"percentages short on a large amount", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 1000000, IsSplit: true, SplitType: "percentage", Splits: []api.SplitInput{
			{UserID: env.id("alice"), Percentage: 50},
			{UserID: env.id("bob"), Percentage: 49.995},
		}}},
		{"custom amounts off", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, IsSplit: true, SplitType: "custom", Splits: []api.SplitInput{
			{UserID: env.id("alice"), Amount: 4},
			{UserID: env.id("bob"), Amount: 4},
		}}},
		{"unknown category", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, CategoryID: "missing"}},
		{"bad date", &api.CreateExpenseRequest{TripID: trip.ID, Title: "x", Amount: 10, ExpenseDate: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.expenses.CreateExpense(env.as("alice"), connect.NewRequest(tt.req))
			expectCode(t, err, connect.CodeInvalidArgument)
		})
	}

	_, err := env.expenses.CreateExpense(env.as("carol"), connect.NewRequest(&api.CreateExpenseRequest{
		TripID: trip.ID, Title: "x", Amount: 10,
	}))
	expectCode(t, err, connect.CodePermissionDenied)
}

func TestListExpenses_Filters(t *testing.T) {
	env, trip := setupExpenseTrip(t)

	env.createExpense("alice", &api.CreateExpenseRequest{TripID: trip.ID, Title: "Breakfast", Amount: 120, ExpenseDate: "2026-12-01"})
	env.createExpense("alice", &api.CreateExpenseRequest{TripID: trip.ID, Title: "Lunch", Amount: 240, ExpenseDate: "2026-12-02", PaidBy: env.id("bob")})
	env.createExpense("bob", &api.CreateExpenseRequest{TripID: trip.ID, Title: "Dinner", Amount: 600, ExpenseDate: "2026-12-03"})

	all, err := env.expenses.ListExpenses(env.as("carol"), connect.NewRequest(&api.ListExpensesRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(all.Msg.Expenses) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(all.Msg.Expenses))
	}
	if all.Msg.Expenses[0].Title != "Dinner" {
		t.Errorf("expected newest expense first, got %q", all.Msg.Expenses[0].Title)
	}

	byPayer, err := env.expenses.ListExpenses(env.as("carol"), connect.NewRequest(&api.ListExpensesRequest{
		TripID: trip.ID,
		PaidBy: env.id("bob"),
	}))
	if err != nil {
		t.Fatalf("ListExpenses by payer failed: %v", err)
	}
	if len(byPayer.Msg.Expenses) != 2 {
		t.Errorf("expected 2 expenses paid by bob, got %d", len(byPayer.Msg.Expenses))
	}

	byDate, err := env.expenses.ListExpenses(env.as("carol"), connect.NewRequest(&api.ListExpensesRequest{
		TripID:    trip.ID,
		StartDate: "2026-12-02",
		EndDate:   "2026-12-02",
	}))
	if err != nil {
		t.Fatalf("ListExpenses by date failed: %v", err)
	}
	if len(byDate.Msg.Expenses) != 1 || byDate.Msg.Expenses[0].Title != "Lunch" {
		t.Errorf("expected only Lunch, got %+v", byDate.Msg.Expenses)
	}

	_, err = env.expenses.ListExpenses(env.as("dave"), connect.NewRequest(&api.ListExpensesRequest{TripID: trip.ID}))
	expectCode(t, err, connect.CodePermissionDenied)
}

func TestUpdateExpense_RebuildsSplits(t *testing.T) {
	env, trip := setupExpenseTrip(t)

	e := env.createExpense("alice", &api.CreateExpenseRequest{
		TripID:  trip.ID,
		Title:   "Groceries",
		Amount:  90,
		IsSplit: true,
		Splits:  env.equalShares("alice", "bob", "carol"),
	})

	// Pay one split so the rebuild can be seen to reset it.
	var bobSplit string
	for _, s := range e.Splits {
		if s.Username == "bob" {
			bobSplit = s.ID
		}
	}
	if _, err := env.expenses.SettleSplit(env.as("bob"), connect.NewRequest(&api.SettleSplitRequest{SplitID: bobSplit})); err != nil {
		t.Fatalf("SettleSplit failed: %v", err)
	}

	resp, err := env.expenses.UpdateExpense(env.as("bob"), connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID: e.ID,
		Amount:    ptr(150.0),
	}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	updated := resp.Msg.Expense
	if len(updated.Splits) != 3 {
		t.Fatalf("expected 3 splits, got %d", len(updated.Splits))
	}
	for _, s := range updated.Splits {
		if s.Amount != 50 {
			t.Errorf("split for %s: expected 50, got %v", s.Username, s.Amount)
		}
		if s.IsPaid {
			t.Errorf("split for %s: expected paid state to be cleared", s.Username)
		}
	}

	resp, err = env.expenses.UpdateExpense(env.as("alice"), connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID: e.ID,
		SplitType: ptr("custom"),
		Splits: []api.SplitInput{
			{UserID: env.id("alice"), Amount: 100},
			{UserID: env.id("carol"), Amount: 50},
		},
	}))
	if err != nil {
		t.Fatalf("UpdateExpense with new splits failed: %v", err)
	}
	if len(resp.Msg.Expense.Splits) != 2 {
		t.Errorf("expected 2 splits, got %d", len(resp.Msg.Expense.Splits))
	}

	resp, err = env.expenses.UpdateExpense(env.as("alice"), connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID: e.ID,
		Title:     ptr("Weekly groceries"),
	}))
	if err != nil {
		t.Fatalf("UpdateExpense title failed: %v", err)
	}
	if resp.Msg.Expense.Title != "Weekly groceries" || len(resp.Msg.Expense.Splits) != 2 {
		t.Errorf("title-only update changed splits: %+v", resp.Msg.Expense)
	}

	resp, err = env.expenses.UpdateExpense(env.as("alice"), connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID: e.ID,
		IsSplit:   ptr(false),
	}))
	if err != nil {
		t.Fatalf("UpdateExpense unsplit failed: %v", err)
	}
	if len(resp.Msg.Expense.Splits) != 0 {
		t.Errorf("expected splits to be removed, got %d", len(resp.Msg.Expense.Splits))
	}

	_, err = env.expenses.UpdateExpense(env.as("carol"), connect.NewRequest(&api.UpdateExpenseRequest{
		ExpenseID: e.ID,
		Title:     ptr("nope"),
	}))
	expectCode(t, err, connect.CodePermissionDenied)
}

func TestDeleteExpense(t *testing.T) {
	env, trip := setupExpenseTrip(t)
	e := env.createExpense("alice", &api.CreateExpenseRequest{TripID: trip.ID, Title: "Snacks", Amount: 80})

	_, err := env.expenses.DeleteExpense(env.as("carol"), connect.NewRequest(&api.DeleteExpenseRequest{ExpenseID: e.ID}))
	expectCode(t, err, connect.CodePermissionDenied)

	if _, err := env.expenses.DeleteExpense(env.as("bob"), connect.NewRequest(&api.DeleteExpenseRequest{ExpenseID: e.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	_, err = env.expenses.GetExpense(env.as("alice"), connect.NewRequest(&api.GetExpenseRequest{ExpenseID: e.ID}))
	expectCode(t, err, connect.CodeNotFound)
}

func TestSettleSplit(t *testing.T) {
	env, trip := setupExpenseTrip(t)
	e := env.createExpense("alice", &api.CreateExpenseRequest{
		TripID:  trip.ID,
		Title:   "Ferry",
		Amount:  200,
		IsSplit: true,
		Splits:  env.equalShares("bob", "carol"),
	})
	splits := map[string]string{}
	for _, s := range e.Splits {
		splits[s.Username] = s.ID
	}

	// carol cannot settle bob's share; bob can, and so can the payer.
	_, err := env.expenses.SettleSplit(env.as("carol"), connect.NewRequest(&api.SettleSplitRequest{SplitID: splits["bob"]}))
	expectCode(t, err, connect.CodePermissionDenied)

	resp, err := env.expenses.SettleSplit(env.as("bob"), connect.NewRequest(&api.SettleSplitRequest{SplitID: splits["bob"]}))
	if err != nil {
		t.Fatalf("SettleSplit failed: %v", err)
	}
	if !resp.Msg.Split.IsPaid || resp.Msg.Split.PaidAt == 0 {
		t.Errorf("expected split to be paid: %+v", resp.Msg.Split)
	}
	if resp.Msg.ExpenseSettled {
		t.Error("expense should not be settled with one split open")
	}

	_, err = env.expenses.SettleSplit(env.as("bob"), connect.NewRequest(&api.SettleSplitRequest{SplitID: splits["bob"]}))
	expectCode(t, err, connect.CodeFailedPrecondition)

	resp, err = env.expenses.SettleSplit(env.as("alice"), connect.NewRequest(&api.SettleSplitRequest{SplitID: splits["carol"]}))
	if err != nil {
		t.Fatalf("SettleSplit by payer failed: %v", err)
	}
	if !resp.Msg.ExpenseSettled {
		t.Error("expected expense to be settled once every split is paid")
	}

	got, err := env.expenses.GetExpense(env.as("carol"), connect.NewRequest(&api.GetExpenseRequest{ExpenseID: e.ID}))
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if !got.Msg.Expense.IsSettled {
		t.Error("expected stored expense to be settled")
	}

	_, err = env.expenses.SettleSplit(env.as("alice"), connect.NewRequest(&api.SettleSplitRequest{SplitID: "missing"}))
	expectCode(t, err, connect.CodeNotFound)
}
