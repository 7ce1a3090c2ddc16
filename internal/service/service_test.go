package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/middleware"
	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/storage/sqlite"
	"github.com/mmynk/tripwiser/pkg/api"
)

// testEnv wires every service to one temp-file SQLite database seeded with
// the users alice, bob, carol and dave.
type testEnv struct {
	t     *testing.T
	store *sqlite.SQLiteStore
	users map[string]*models.User

	trips      *TripService
	collabs    *CollaboratorService
	activities *ActivityService
	expenses   *ExpenseService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		t:          t,
		store:      store,
		users:      map[string]*models.User{},
		trips:      NewTripService(store),
		collabs:    NewCollaboratorService(store, 10, 7*24*time.Hour),
		activities: NewActivityService(store),
		expenses:   NewExpenseService(store),
	}
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		u := &models.User{Username: name, Email: name + "@example.com"}
		if err := store.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("failed to create user %s: %v", name, err)
		}
		env.users[name] = u
	}
	return env
}

// as returns a context authenticated as the named user.
func (e *testEnv) as(name string) context.Context {
	u, ok := e.users[name]
	if !ok {
		e.t.Fatalf("unknown test user %q", name)
	}
	return middleware.WithUser(context.Background(), u.ID, u.Username)
}

func (e *testEnv) id(name string) string {
	return e.users[name].ID
}

// createTrip creates a trip owned by owner running from start for days days.
func (e *testEnv) createTrip(owner, start string, days int) *api.Trip {
	e.t.Helper()

	startDate, err := models.ParseDate(start)
	if err != nil {
		e.t.Fatalf("bad start date: %v", err)
	}
	resp, err := e.trips.CreateTrip(e.as(owner), connect.NewRequest(&api.CreateTripRequest{
		Title:       "Goa getaway",
		Destination: "Goa",
		StartDate:   start,
		EndDate:     models.FormatDate(startDate.AddDate(0, 0, days-1)),
	}))
	if err != nil {
		e.t.Fatalf("CreateTrip failed: %v", err)
	}
	return resp.Msg.Trip
}

// join invites member onto tripID with role and accepts the invitation.
func (e *testEnv) join(tripID, owner, member, role string) *api.Collaborator {
	e.t.Helper()

	invite, err := e.collabs.InviteCollaborator(e.as(owner), connect.NewRequest(&api.InviteCollaboratorRequest{
		TripID: tripID,
		UserID: e.id(member),
		Role:   role,
	}))
	if err != nil {
		e.t.Fatalf("InviteCollaborator failed: %v", err)
	}
	accepted, err := e.collabs.AcceptInvitation(e.as(member), connect.NewRequest(&api.AcceptInvitationRequest{
		CollaboratorID: invite.Msg.Collaborator.ID,
	}))
	if err != nil {
		e.t.Fatalf("AcceptInvitation failed: %v", err)
	}
	return accepted.Msg.Collaborator
}

// expectCode fails the test unless err carries the given Connect code.
func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
