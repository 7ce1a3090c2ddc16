package service

import (
	"context"
	"log/slog"
	"sort"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/calculator"
	"github.com/mmynk/tripwiser/internal/metrics"
	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/pkg/api"
)

// CalculateSettlements returns every member's net balance and the smallest
// set of payments that settles the trip's split expenses.
func (s *ExpenseService) CalculateSettlements(ctx context.Context, req *connect.Request[api.CalculateSettlementsRequest]) (*connect.Response[api.CalculateSettlementsResponse], error) {
	slog.Info("CalculateSettlements request received", "trip_id", req.Msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Calculate(ctx, trip.ID)
	if err != nil {
		slog.Error("CalculateSettlements failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	ids := make([]string, 0, len(res.Balances))
	for id := range res.Balances {
		ids = append(ids, id)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, storageError(err)
	}

	out := &api.CalculateSettlementsResponse{
		Balances:    balancesToAPI(res.Balances, users),
		Suggestions: make([]*api.SettlementSuggestion, len(res.Suggestions)),
	}
	for i, sg := range res.Suggestions {
		out.Suggestions[i] = &api.SettlementSuggestion{
			FromUserID:   sg.FromUserID,
			FromUsername: usernameOf(users, sg.FromUserID),
			ToUserID:     sg.ToUserID,
			ToUsername:   usernameOf(users, sg.ToUserID),
			Amount:       sg.Amount,
		}
	}
	metrics.RecordSettlementSuggestions(len(res.Suggestions))

	slog.Info("CalculateSettlements successful",
		"trip_id", trip.ID,
		"members", len(res.Balances),
		"suggestions", len(res.Suggestions),
	)

	return connect.NewResponse(out), nil
}

// CreateSettlement records a payment from one trip member to another.
func (s *ExpenseService) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	msg := req.Msg
	slog.Info("CreateSettlement request received",
		"trip_id", msg.TripID,
		"from_user_id", msg.FromUserID,
		"to_user_id", msg.ToUserID,
		"amount", msg.Amount,
	)

	trip, _, err := authorizeTrip(ctx, s.store, msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}
	userID, _ := callerID(ctx)

	switch {
	case msg.FromUserID == msg.ToUserID:
		return nil, invalidArgument("from_user_id and to_user_id must differ")
	case msg.Amount <= 0:
		return nil, invalidArgument("amount must be positive")
	}
	if err := s.requireMember(ctx, trip, msg.FromUserID, "from"); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, trip, msg.ToUserID, "to"); err != nil {
		return nil, err
	}

	st := &models.Settlement{
		TripID:        trip.ID,
		FromUserID:    msg.FromUserID,
		ToUserID:      msg.ToUserID,
		Amount:        calculator.RoundCents(msg.Amount),
		Currency:      orDefault(msg.Currency, defaultCurrency),
		PaymentMethod: msg.PaymentMethod,
		Note:          msg.Note,
		CreatedBy:     userID,
	}
	if err := s.store.CreateSettlement(ctx, st); err != nil {
		slog.Error("CreateSettlement failed", "trip_id", trip.ID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Settlement created", "settlement_id", st.ID, "trip_id", trip.ID)

	users, err := s.store.GetUsersByIDs(ctx, []string{st.FromUserID, st.ToUserID})
	if err != nil {
		return nil, storageError(err)
	}
	return connect.NewResponse(&api.CreateSettlementResponse{Settlement: settlementToAPI(st, users)}), nil
}

// MarkSettlementPaid confirms a recorded payment. Either party or a trip
// owner may confirm it.
func (s *ExpenseService) MarkSettlementPaid(ctx context.Context, req *connect.Request[api.MarkSettlementPaidRequest]) (*connect.Response[api.MarkSettlementPaidResponse], error) {
	slog.Info("MarkSettlementPaid request received", "settlement_id", req.Msg.SettlementID)

	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.SettlementID == "" {
		return nil, invalidArgument("settlement_id required")
	}
	st, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		return nil, storageError(err)
	}
	_, role, err := authorizeTrip(ctx, s.store, st.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}
	if userID != st.FromUserID && userID != st.ToUserID && !role.AtLeast(models.RoleOwner) {
		return nil, permissionDenied("only the payer, the receiver or a trip owner can mark a settlement paid")
	}
	if st.IsSettled {
		return nil, failedPrecondition("settlement is already paid")
	}

	if err := s.store.MarkSettlementPaid(ctx, st.ID, s.now().Unix()); err != nil {
		slog.Error("MarkSettlementPaid failed", "settlement_id", st.ID, "error", err)
		return nil, storageError(err)
	}
	if st, err = s.store.GetSettlement(ctx, st.ID); err != nil {
		return nil, storageError(err)
	}

	slog.Info("Settlement paid", "settlement_id", st.ID, "trip_id", st.TripID)

	users, err := s.store.GetUsersByIDs(ctx, []string{st.FromUserID, st.ToUserID})
	if err != nil {
		return nil, storageError(err)
	}
	return connect.NewResponse(&api.MarkSettlementPaidResponse{Settlement: settlementToAPI(st, users)}), nil
}

// ListSettlements lists a trip's recorded settlements, newest first.
func (s *ExpenseService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	slog.Info("ListSettlements request received", "trip_id", req.Msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlementsByTrip(ctx, trip.ID, req.Msg.Settled)
	if err != nil {
		return nil, storageError(err)
	}

	var ids []string
	for _, st := range settlements {
		ids = append(ids, st.FromUserID, st.ToUserID)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, storageError(err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = settlementToAPI(st, users)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// balancesToAPI orders balances from largest creditor to largest debtor.
func balancesToAPI(balances map[string]float64, users map[string]*models.User) []*api.Balance {
	out := make([]*api.Balance, 0, len(balances))
	for id, amount := range balances {
		out = append(out, &api.Balance{
			UserID:   id,
			Username: usernameOf(users, id),
			Amount:   calculator.RoundCents(amount),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// usernameOf falls back to the id for users that no longer exist.
func usernameOf(users map[string]*models.User, id string) string {
	if u, ok := users[id]; ok {
		return u.Username
	}
	return id
}
