package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/storage"
	"github.com/mmynk/tripwiser/pkg/api"
)

const (
	uncategorized  = "Uncategorized"
	unknownPayment = "Unknown"
)

// CreateBudgetCategory allocates part of a trip's budget. Requires editor access.
func (s *ExpenseService) CreateBudgetCategory(ctx context.Context, req *connect.Request[api.CreateBudgetCategoryRequest]) (*connect.Response[api.CreateBudgetCategoryResponse], error) {
	msg := req.Msg
	slog.Info("CreateBudgetCategory request received", "trip_id", msg.TripID, "category", msg.Category)

	trip, _, err := authorizeTrip(ctx, s.store, msg.TripID, models.RoleEditor)
	if err != nil {
		return nil, err
	}

	b := &models.BudgetCategory{
		TripID:          trip.ID,
		Category:        strings.TrimSpace(msg.Category),
		AllocatedAmount: msg.AllocatedAmount,
		Currency:        orDefault(msg.Currency, defaultCurrency),
		Notes:           msg.Notes,
	}
	if err := validateBudgetCategory(b); err != nil {
		return nil, err
	}
	if err := s.store.CreateBudgetCategory(ctx, b); err != nil {
		slog.Error("CreateBudgetCategory failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Budget category created", "category_id", b.ID, "trip_id", trip.ID)

	return connect.NewResponse(&api.CreateBudgetCategoryResponse{Category: budgetCategoryToAPI(b)}), nil
}

// UpdateBudgetCategory changes the fields set in the request. Requires editor access.
func (s *ExpenseService) UpdateBudgetCategory(ctx context.Context, req *connect.Request[api.UpdateBudgetCategoryRequest]) (*connect.Response[api.UpdateBudgetCategoryResponse], error) {
	msg := req.Msg
	slog.Info("UpdateBudgetCategory request received", "category_id", msg.CategoryID)

	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	if msg.CategoryID == "" {
		return nil, invalidArgument("category_id required")
	}
	b, err := s.store.GetBudgetCategory(ctx, msg.CategoryID)
	if err != nil {
		return nil, storageError(err)
	}
	if _, _, err := authorizeTrip(ctx, s.store, b.TripID, models.RoleEditor); err != nil {
		return nil, err
	}

	if msg.Category != nil {
		b.Category = strings.TrimSpace(*msg.Category)
	}
	if msg.AllocatedAmount != nil {
		b.AllocatedAmount = *msg.AllocatedAmount
	}
	setString(&b.Currency, msg.Currency)
	setString(&b.Notes, msg.Notes)
	if err := validateBudgetCategory(b); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBudgetCategory(ctx, b); err != nil {
		slog.Error("UpdateBudgetCategory failed", "category_id", b.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Budget category updated", "category_id", b.ID)

	return connect.NewResponse(&api.UpdateBudgetCategoryResponse{Category: budgetCategoryToAPI(b)}), nil
}

// GetBudget reports allocation and spending per category and for the trip.
// Remaining is measured against the trip budget when one is set, otherwise
// against the sum of category allocations.
func (s *ExpenseService) GetBudget(ctx context.Context, req *connect.Request[api.GetBudgetRequest]) (*connect.Response[api.GetBudgetResponse], error) {
	slog.Info("GetBudget request received", "trip_id", req.Msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	categories, err := s.store.ListBudgetCategories(ctx, trip.ID)
	if err != nil {
		return nil, storageError(err)
	}
	expenses, err := s.store.ListExpenses(ctx, trip.ID, storage.ExpenseFilter{})
	if err != nil {
		return nil, storageError(err)
	}

	allocated := sum(categories, func(b *models.BudgetCategory) float64 { return b.AllocatedAmount })
	spent := sum(expenses, func(e *models.Expense) float64 { return e.Amount })
	limit := allocated
	if trip.Budget != nil {
		limit = decimal.NewFromFloat(*trip.Budget)
	}

	out := &api.GetBudgetResponse{
		TripBudget:     trip.Budget,
		Categories:     make([]*api.BudgetCategory, len(categories)),
		TotalAllocated: cents(allocated),
		TotalSpent:     cents(spent),
		Remaining:      cents(limit.Sub(spent)),
		PercentageUsed: percent(spent, limit),
		OverBudget:     spent.GreaterThan(limit),
	}
	for i, b := range categories {
		out.Categories[i] = budgetCategoryToAPI(b)
	}

	slog.Info("GetBudget successful", "trip_id", trip.ID, "categories", len(categories), "over_budget", out.OverBudget)

	return connect.NewResponse(out), nil
}

// GetExpenseAnalytics summarises a trip's expenses.
func (s *ExpenseService) GetExpenseAnalytics(ctx context.Context, req *connect.Request[api.GetExpenseAnalyticsRequest]) (*connect.Response[api.GetExpenseAnalyticsResponse], error) {
	slog.Info("GetExpenseAnalytics request received", "trip_id", req.Msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpenses(ctx, trip.ID, storage.ExpenseFilter{})
	if err != nil {
		return nil, storageError(err)
	}
	categories, err := s.store.ListBudgetCategories(ctx, trip.ID)
	if err != nil {
		return nil, storageError(err)
	}
	users, err := s.usersOf(ctx, expenses)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(categories))
	for _, b := range categories {
		names[b.ID] = b.Category
	}

	byCategory := groupTotals{}
	byPayer := groupTotals{}
	byMethod := groupTotals{}
	total, settled := decimal.Zero, decimal.Zero
	for _, e := range expenses {
		amount := decimal.NewFromFloat(e.Amount)
		total = total.Add(amount)
		if e.IsSettled {
			settled = settled.Add(amount)
		}

		category := uncategorized
		if name, ok := names[e.CategoryID]; ok {
			category = name
		}
		byCategory.add(category, amount)

		payer := e.PaidBy
		if u, ok := users[e.PaidBy]; ok {
			payer = u.Username
		}
		byPayer.add(payer, amount)

		byMethod.add(orDefault(e.PaymentMethod, unknownPayment), amount)
	}

	out := &api.GetExpenseAnalyticsResponse{
		TotalExpenses:   cents(total),
		ExpenseCount:    len(expenses),
		ByCategory:      byCategory.toAPI(),
		ByPayer:         byPayer.toAPI(),
		ByPaymentMethod: byMethod.toAPI(),
		Settled:         cents(settled),
		Unsettled:       cents(total.Sub(settled)),
		SettledPercent:  percent(settled, total),
	}
	if len(expenses) > 0 {
		out.AverageExpense = cents(total.Div(decimal.NewFromInt(int64(len(expenses)))))
	}

	return connect.NewResponse(out), nil
}

type groupTotal struct {
	total decimal.Decimal
	count int
}

type groupTotals map[string]*groupTotal

func (g groupTotals) add(key string, amount decimal.Decimal) {
	t, ok := g[key]
	if !ok {
		t = &groupTotal{}
		g[key] = t
	}
	t.total = t.total.Add(amount)
	t.count++
}

func (g groupTotals) toAPI() map[string]*api.AmountCount {
	out := make(map[string]*api.AmountCount, len(g))
	for k, t := range g {
		out[k] = &api.AmountCount{Total: cents(t.total), Count: t.count}
	}
	return out
}

func validateBudgetCategory(b *models.BudgetCategory) error {
	switch {
	case b.Category == "":
		return invalidArgument("category required")
	case b.AllocatedAmount < 0:
		return invalidArgument("allocated_amount cannot be negative")
	}
	return nil
}

func budgetCategoryToAPI(b *models.BudgetCategory) *api.BudgetCategory {
	allocated := decimal.NewFromFloat(b.AllocatedAmount)
	spent := decimal.NewFromFloat(b.Spent)
	return &api.BudgetCategory{
		ID:              b.ID,
		TripID:          b.TripID,
		Category:        b.Category,
		AllocatedAmount: b.AllocatedAmount,
		Spent:           cents(spent),
		Remaining:       cents(allocated.Sub(spent)),
		PercentageUsed:  percent(spent, allocated),
		OverBudget:      spent.GreaterThan(allocated),
		Currency:        b.Currency,
		Notes:           b.Notes,
	}
}
