package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/calculator"
	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/rpc"
	"github.com/mmynk/tripwiser/internal/storage"
	"github.com/mmynk/tripwiser/pkg/api"
)

// ExpenseService implements the Connect ExpenseService: expenses and their
// splits, budget categories, and settlements between trip members.
type ExpenseService struct {
	store  storage.Store
	engine *calculator.Engine
	now    func() time.Time
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{
		store:  store,
		engine: calculator.NewEngine(store),
		now:    time.Now,
	}
}

// Handler returns the mount path and handler serving this service.
func (s *ExpenseService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	m := rpc.NewServiceMux(api.ExpenseServiceName, opts...)
	rpc.Handle(m, "CreateExpense", s.CreateExpense)
	rpc.Handle(m, "GetExpense", s.GetExpense)
	rpc.Handle(m, "ListExpenses", s.ListExpenses)
	rpc.Handle(m, "UpdateExpense", s.UpdateExpense)
	rpc.Handle(m, "DeleteExpense", s.DeleteExpense)
	rpc.Handle(m, "SettleSplit", s.SettleSplit)
	rpc.Handle(m, "CreateBudgetCategory", s.CreateBudgetCategory)
	rpc.Handle(m, "UpdateBudgetCategory", s.UpdateBudgetCategory)
	rpc.Handle(m, "GetBudget", s.GetBudget)
	rpc.Handle(m, "GetExpenseAnalytics", s.GetExpenseAnalytics)
	rpc.Handle(m, "CalculateSettlements", s.CalculateSettlements)
	rpc.Handle(m, "CreateSettlement", s.CreateSettlement)
	rpc.Handle(m, "MarkSettlementPaid", s.MarkSettlementPaid)
	rpc.Handle(m, "ListSettlements", s.ListSettlements)
	return m.Handler()
}

// CreateExpense records an expense, optionally split among trip members.
// Requires editor access.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"trip_id", msg.TripID,
		"amount", msg.Amount,
		"is_split", msg.IsSplit,
		"splits_count", len(msg.Splits),
	)

	trip, _, err := authorizeTrip(ctx, s.store, msg.TripID, models.RoleEditor)
	if err != nil {
		return nil, err
	}
	userID, _ := callerID(ctx)

	e := &models.Expense{
		TripID:        trip.ID,
		PaidBy:        orDefault(msg.PaidBy, userID),
		Title:         strings.TrimSpace(msg.Title),
		Description:   msg.Description,
		Amount:        msg.Amount,
		Currency:      orDefault(msg.Currency, defaultCurrency),
		CategoryID:    msg.CategoryID,
		PaymentMethod: msg.PaymentMethod,
		VendorName:    msg.VendorName,
		Location:      msg.Location,
		IsSplit:       msg.IsSplit,
		SplitType:     models.SplitType(orDefault(msg.SplitType, string(models.SplitEqual))),
		Notes:         msg.Notes,
	}
	if e.ExpenseDate, err = parseOptionalDate("expense_date", msg.ExpenseDate); err != nil {
		return nil, err
	}
	if e.ExpenseDate.IsZero() {
		e.ExpenseDate = today(s.now())
	}
	if err := s.validateExpense(ctx, trip, e); err != nil {
		return nil, err
	}
	if e.IsSplit {
		if err := s.buildSplits(ctx, trip, e, msg.Splits); err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		slog.Error("CreateExpense failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Expense created", "expense_id", e.ID, "trip_id", trip.ID, "amount", e.Amount)

	out, err := s.withUsernames(ctx, e)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: out}), nil
}

// GetExpense retrieves an expense with its splits.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	e, _, err := s.authorizeExpense(ctx, req.Msg.ExpenseID, models.RoleViewer)
	if err != nil {
		return nil, err
	}
	out, err := s.withUsernames(ctx, e)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: out}), nil
}

// ListExpenses lists a trip's expenses, latest expense date first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	msg := req.Msg
	slog.Info("ListExpenses request received", "trip_id", msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	filter := storage.ExpenseFilter{
		CategoryID: msg.CategoryID,
		PaidBy:     msg.PaidBy,
		IsSettled:  msg.IsSettled,
	}
	if filter.StartDate, err = parseOptionalDate("start_date", msg.StartDate); err != nil {
		return nil, err
	}
	if filter.EndDate, err = parseOptionalDate("end_date", msg.EndDate); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpenses(ctx, trip.ID, filter)
	if err != nil {
		slog.Error("ListExpenses failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}
	users, err := s.usersOf(ctx, expenses)
	if err != nil {
		return nil, err
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = expenseToAPI(e, users)
	}

	slog.Info("ListExpenses successful", "trip_id", trip.ID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// UpdateExpense changes the fields set in the request. Splits are rebuilt
// when the amount or split configuration changes, which clears their paid
// state. Requires editor access.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	msg := req.Msg
	slog.Info("UpdateExpense request received", "expense_id", msg.ExpenseID)

	e, trip, err := s.authorizeExpense(ctx, msg.ExpenseID, models.RoleEditor)
	if err != nil {
		return nil, err
	}

	if msg.Title != nil {
		e.Title = strings.TrimSpace(*msg.Title)
	}
	setString(&e.Description, msg.Description)
	if msg.Amount != nil {
		e.Amount = *msg.Amount
	}
	setString(&e.Currency, msg.Currency)
	setString(&e.CategoryID, msg.CategoryID)
	if msg.ExpenseDate != nil {
		if e.ExpenseDate, err = parseDate("expense_date", *msg.ExpenseDate); err != nil {
			return nil, err
		}
	}
	setString(&e.PaymentMethod, msg.PaymentMethod)
	setString(&e.VendorName, msg.VendorName)
	setString(&e.Location, msg.Location)
	setBool(&e.IsSplit, msg.IsSplit)
	if msg.SplitType != nil {
		e.SplitType = models.SplitType(*msg.SplitType)
	}
	setString(&e.Notes, msg.Notes)

	if err := s.validateExpense(ctx, trip, e); err != nil {
		return nil, err
	}

	rebuild := msg.Amount != nil || msg.IsSplit != nil || msg.SplitType != nil || msg.Splits != nil
	switch {
	case !e.IsSplit:
		e.Splits = nil
		e.IsSettled = false
	case rebuild:
		shares := msg.Splits
		if shares == nil {
			shares = sharesOf(e.Splits)
		}
		if err := s.buildSplits(ctx, trip, e, shares); err != nil {
			return nil, err
		}
		e.IsSettled = false
	}

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", e.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Expense updated", "expense_id", e.ID, "splits_rebuilt", rebuild && e.IsSplit)

	out, err := s.withUsernames(ctx, e)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: out}), nil
}

// DeleteExpense removes an expense and its splits. Requires editor access.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	e, _, err := s.authorizeExpense(ctx, req.Msg.ExpenseID, models.RoleEditor)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteExpense(ctx, e.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", e.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Expense deleted", "expense_id", e.ID)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// SettleSplit marks one split paid. Only the split's user or the expense's
// payer may do so.
func (s *ExpenseService) SettleSplit(ctx context.Context, req *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error) {
	slog.Info("SettleSplit request received", "split_id", req.Msg.SplitID)

	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.SplitID == "" {
		return nil, invalidArgument("split_id required")
	}
	split, err := s.store.GetSplit(ctx, req.Msg.SplitID)
	if err != nil {
		return nil, storageError(err)
	}
	e, _, err := s.authorizeExpense(ctx, split.ExpenseID, models.RoleViewer)
	if err != nil {
		return nil, err
	}
	if userID != split.UserID && userID != e.PaidBy {
		return nil, permissionDenied("only the split's user or the payer can settle it")
	}
	if split.IsPaid {
		return nil, failedPrecondition("split is already paid")
	}

	settled, err := s.store.MarkSplitPaid(ctx, split.ID, s.now().Unix())
	if err != nil {
		slog.Error("SettleSplit failed", "split_id", split.ID, "error", err)
		return nil, storageError(err)
	}
	if split, err = s.store.GetSplit(ctx, split.ID); err != nil {
		return nil, storageError(err)
	}

	slog.Info("Split settled", "split_id", split.ID, "expense_id", e.ID, "expense_settled", settled)

	return connect.NewResponse(&api.SettleSplitResponse{
		Split:          splitToAPI(split, nil),
		ExpenseSettled: settled,
	}), nil
}

// authorizeExpense loads an expense and checks the caller's role on its trip.
func (s *ExpenseService) authorizeExpense(ctx context.Context, id string, min models.Role) (*models.Expense, *models.Trip, error) {
	if id == "" {
		return nil, nil, invalidArgument("expense_id required")
	}
	if _, err := callerID(ctx); err != nil {
		return nil, nil, err
	}
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, nil, storageError(err)
	}
	trip, _, err := authorizeTrip(ctx, s.store, e.TripID, min)
	if err != nil {
		return nil, nil, err
	}
	return e, trip, nil
}

func (s *ExpenseService) validateExpense(ctx context.Context, trip *models.Trip, e *models.Expense) error {
	switch {
	case e.Title == "":
		return invalidArgument("title required")
	case e.Amount <= 0:
		return invalidArgument("amount must be positive")
	case e.IsSplit && !e.SplitType.Valid():
		return invalidArgument("split_type must be equal, percentage or custom")
	}

	if err := s.requireMember(ctx, trip, e.PaidBy, "payer"); err != nil {
		return err
	}
	if e.CategoryID != "" {
		cat, err := s.store.GetBudgetCategory(ctx, e.CategoryID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && cat.TripID != trip.ID) {
			return invalidArgument("budget category %s does not belong to this trip", e.CategoryID)
		}
		if err != nil {
			return storageError(err)
		}
	}
	return nil
}

// buildSplits replaces e.Splits with shares divided by e.SplitType. Every
// participant must have access to the trip.
func (s *ExpenseService) buildSplits(ctx context.Context, trip *models.Trip, e *models.Expense, inputs []api.SplitInput) error {
	shares := make([]calculator.Share, len(inputs))
	for i, in := range inputs {
		if err := s.requireMember(ctx, trip, in.UserID, "split user"); err != nil {
			return err
		}
		shares[i] = calculator.Share{
			UserID:     in.UserID,
			Percentage: in.Percentage,
			Amount:     in.Amount,
			Notes:      in.Notes,
		}
	}

	built, err := calculator.BuildSplits(e.Amount, e.SplitType, shares)
	if err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	e.Splits = make([]models.ExpenseSplit, len(built))
	for i, b := range built {
		e.Splits[i] = models.ExpenseSplit{
			UserID:     b.UserID,
			Amount:     b.Amount,
			Percentage: b.Percentage,
			Notes:      b.Notes,
		}
	}
	return nil
}

// requireMember checks that userID has at least viewer access to trip.
func (s *ExpenseService) requireMember(ctx context.Context, trip *models.Trip, userID, what string) error {
	if userID == "" {
		return invalidArgument("%s user_id required", what)
	}
	role, err := roleOn(ctx, s.store, trip, userID)
	if err != nil {
		return storageError(err)
	}
	if !role.AtLeast(models.RoleViewer) {
		return invalidArgument("%s %s does not have access to this trip", what, userID)
	}
	return nil
}

// usersOf loads every payer and split user referenced by expenses.
func (s *ExpenseService) usersOf(ctx context.Context, expenses []*models.Expense) (map[string]*models.User, error) {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, e := range expenses {
		add(e.PaidBy)
		for _, sp := range e.Splits {
			add(sp.UserID)
		}
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

// withUsernames converts e with its payer and split usernames filled in.
func (s *ExpenseService) withUsernames(ctx context.Context, e *models.Expense) (*api.Expense, error) {
	users, err := s.usersOf(ctx, []*models.Expense{e})
	if err != nil {
		return nil, err
	}
	return expenseToAPI(e, users), nil
}

// sharesOf recovers split inputs from existing splits so they can be rebuilt.
func sharesOf(splits []models.ExpenseSplit) []api.SplitInput {
	out := make([]api.SplitInput, len(splits))
	for i, sp := range splits {
		out[i] = api.SplitInput{
			UserID:     sp.UserID,
			Percentage: sp.Percentage,
			Amount:     sp.Amount,
			Notes:      sp.Notes,
		}
	}
	return out
}
