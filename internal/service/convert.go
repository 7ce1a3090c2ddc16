package service

import (
	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/pkg/api"
)

func userToAPI(u *models.User) *api.User {
	return &api.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func tripToAPI(t *models.Trip, role models.Role) *api.Trip {
	out := &api.Trip{
		ID:           t.ID,
		UserID:       t.UserID,
		Title:        t.Title,
		Destination:  t.Destination,
		StartDate:    models.FormatDate(t.StartDate),
		EndDate:      models.FormatDate(t.EndDate),
		Description:  t.Description,
		Budget:       t.Budget,
		Status:       string(t.Status),
		DurationDays: t.DurationDays(),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if role != models.RoleNone {
		out.Role = role.String()
	}
	return out
}

func collaboratorToAPI(c *models.Collaborator, users map[string]*models.User) *api.Collaborator {
	out := &api.Collaborator{
		ID:         c.ID,
		TripID:     c.TripID,
		UserID:     c.UserID,
		Role:       c.Role.String(),
		Status:     string(c.Status),
		InvitedBy:  c.InvitedBy,
		InvitedAt:  c.InvitedAt,
		AcceptedAt: c.AcceptedAt,
	}
	if u, ok := users[c.UserID]; ok {
		out.Username = u.Username
	}
	return out
}

func activityToAPI(a *models.Activity) *api.Activity {
	return &api.Activity{
		ID:               a.ID,
		TripID:           a.TripID,
		DayPlanID:        a.DayPlanID,
		Title:            a.Title,
		Description:      a.Description,
		Category:         a.Category,
		Location:         a.Location,
		Address:          a.Address,
		Latitude:         a.Latitude,
		Longitude:        a.Longitude,
		ActivityDate:     models.FormatDate(a.ActivityDate),
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		DurationMinutes:  a.DurationMinutes,
		AllDay:           a.AllDay,
		Priority:         a.Priority,
		Status:           a.Status,
		BookingRequired:  a.BookingRequired,
		BookingURL:       a.BookingURL,
		BookingReference: a.BookingReference,
		BookingStatus:    a.BookingStatus,
		Cost:             a.Cost,
		Currency:         a.Currency,
		Paid:             a.Paid,
		Rating:           a.Rating,
		Review:           a.Review,
		Notes:            a.Notes,
		WeatherDependent: a.WeatherDependent,
		Indoor:           a.Indoor,
		Tags:             a.Tags,
		CreatedBy:        a.CreatedBy,
		CompletedAt:      a.CompletedAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func activitiesToAPI(activities []*models.Activity) []*api.Activity {
	out := make([]*api.Activity, len(activities))
	for i, a := range activities {
		out[i] = activityToAPI(a)
	}
	return out
}

func dayPlanToAPI(dp *models.DayPlan) *api.DayPlan {
	return &api.DayPlan{
		ID:            dp.ID,
		TripID:        dp.TripID,
		Date:          models.FormatDate(dp.Date),
		DayNumber:     dp.DayNumber,
		Title:         dp.Title,
		Description:   dp.Description,
		EstimatedCost: dp.EstimatedCost,
		Notes:         dp.Notes,
		IsRestDay:     dp.IsRestDay,
		CreatedBy:     dp.CreatedBy,
		CreatedAt:     dp.CreatedAt,
	}
}

// expenseToAPI converts an expense. users, when non-nil, supplies usernames.
func expenseToAPI(e *models.Expense, users map[string]*models.User) *api.Expense {
	out := &api.Expense{
		ID:            e.ID,
		TripID:        e.TripID,
		PaidBy:        e.PaidBy,
		Title:         e.Title,
		Description:   e.Description,
		Amount:        e.Amount,
		Currency:      e.Currency,
		CategoryID:    e.CategoryID,
		ExpenseDate:   models.FormatDate(e.ExpenseDate),
		PaymentMethod: e.PaymentMethod,
		VendorName:    e.VendorName,
		Location:      e.Location,
		IsSplit:       e.IsSplit,
		SplitType:     string(e.SplitType),
		IsSettled:     e.IsSettled,
		Notes:         e.Notes,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if u, ok := users[e.PaidBy]; ok {
		out.PaidByUsername = u.Username
	}
	for i := range e.Splits {
		out.Splits = append(out.Splits, splitToAPI(&e.Splits[i], users))
	}
	return out
}

func splitToAPI(s *models.ExpenseSplit, users map[string]*models.User) *api.Split {
	out := &api.Split{
		ID:         s.ID,
		UserID:     s.UserID,
		Amount:     s.Amount,
		Percentage: s.Percentage,
		IsPaid:     s.IsPaid,
		PaidAt:     s.PaidAt,
		Notes:      s.Notes,
	}
	if u, ok := users[s.UserID]; ok {
		out.Username = u.Username
	}
	return out
}

func settlementToAPI(s *models.Settlement, users map[string]*models.User) *api.Settlement {
	out := &api.Settlement{
		ID:            s.ID,
		TripID:        s.TripID,
		FromUserID:    s.FromUserID,
		ToUserID:      s.ToUserID,
		Amount:        s.Amount,
		Currency:      s.Currency,
		PaymentMethod: s.PaymentMethod,
		Note:          s.Note,
		IsSettled:     s.IsSettled,
		SettledAt:     s.SettledAt,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
	}
	if u, ok := users[s.FromUserID]; ok {
		out.FromUsername = u.Username
	}
	if u, ok := users[s.ToUserID]; ok {
		out.ToUsername = u.Username
	}
	return out
}
