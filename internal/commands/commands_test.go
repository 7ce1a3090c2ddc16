package commands_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tripwiser/internal/auth"
	"github.com/mmynk/tripwiser/internal/commands"
	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/storage/sqlite"
)

func runTripctl(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--db", dbPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserAddAndList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trips.db")

	out, err := runTripctl(t, dbPath, "user", "add", "alice", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user alice")

	_, err = runTripctl(t, dbPath, "user", "add", "bob")
	require.NoError(t, err)

	_, err = runTripctl(t, dbPath, "user", "add", "alice")
	require.Error(t, err, "duplicate usernames must be rejected")

	out, err = runTripctl(t, dbPath, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "bob@localhost")
}

func TestToken(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trips.db")
	_, err := runTripctl(t, dbPath, "user", "add", "alice")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = runTripctl(t, dbPath, "token", "alice")
	require.Error(t, err, "a token needs a secret")

	t.Setenv("JWT_SECRET", "cli-secret")
	out, err := runTripctl(t, dbPath, "token", "alice", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.NewJWTManager("cli-secret", time.Hour).Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	_, err = runTripctl(t, dbPath, "token", "nobody")
	require.Error(t, err)
}

func TestSettle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trips.db")
	store, err := sqlite.New(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	users := map[string]*models.User{}
	for _, name := range []string{"alice", "bob", "carol"} {
		u := models.NewUser(name, name+"@example.com")
		require.NoError(t, store.CreateUser(ctx, u))
		users[name] = u
	}

	start := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	trip := &models.Trip{
		UserID:      users["alice"].ID,
		Title:       "Goa getaway",
		Destination: "Goa",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 3),
		Status:      models.TripPlanned,
	}
	require.NoError(t, store.CreateTrip(ctx, trip))
	require.NoError(t, store.CreateExpense(ctx, &models.Expense{
		TripID:      trip.ID,
		PaidBy:      users["alice"].ID,
		Title:       "Villa",
		Amount:      300,
		Currency:    "INR",
		ExpenseDate: start,
		IsSplit:     true,
		SplitType:   models.SplitEqual,
		Splits: []models.ExpenseSplit{
			{UserID: users["alice"].ID, Amount: 100},
			{UserID: users["bob"].ID, Amount: 100},
			{UserID: users["carol"].ID, Amount: 100},
		},
	}))
	require.NoError(t, store.Close())

	out, err := runTripctl(t, dbPath, "settle", trip.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Goa getaway: Goa")
	assert.Contains(t, out, "bob pays alice 100.00")
	assert.Contains(t, out, "carol pays alice 100.00")

	_, err = runTripctl(t, dbPath, "settle", "no-such-trip")
	require.Error(t, err)
}

func TestSettle_NoExpenses(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trips.db")
	store, err := sqlite.New(dbPath)
	require.NoError(t, err)

	owner := models.NewUser("alice", "alice@example.com")
	require.NoError(t, store.CreateUser(context.Background(), owner))
	day := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	trip := &models.Trip{UserID: owner.ID, Title: "Day trip", Destination: "Pune", StartDate: day, EndDate: day, Status: models.TripPlanned}
	require.NoError(t, store.CreateTrip(context.Background(), trip))
	require.NoError(t, store.Close())

	out, err := runTripctl(t, dbPath, "settle", trip.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "All settled up.")
}
