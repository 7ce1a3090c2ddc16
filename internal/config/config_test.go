package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_PATH", "PORT", "JWT_SECRET", "WEATHER_API_KEY", "GEMINI_API_KEY", "FAQ_PATH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data/tripwiser.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Collaboration.MaxCollaboratorsPerTrip)
	assert.Equal(t, 7, cfg.Collaboration.InviteExpiryDays)
	assert.Equal(t, 7*24*time.Hour, cfg.InviteExpiry())
	assert.Equal(t, "@hourly", cfg.Jobs.InvitationSweep)
	assert.Empty(t, cfg.Chatbot.ReloadSchedule)
}

func TestLoad(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		dir := chdir(t)
		clearEnv(t)

		cfg, err := Load(filepath.Join(dir, "tripwiser.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		dir := chdir(t)
		clearEnv(t)

		path := filepath.Join(dir, "tripwiser.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
auth:
  jwt_secret: from-file
collaboration:
  max_collaborators_per_trip: 3
chatbot:
  reload_schedule: "*/15 * * * *"
  timeout: 5s
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
		assert.Equal(t, 3, cfg.Collaboration.MaxCollaboratorsPerTrip)
		assert.Equal(t, 7, cfg.Collaboration.InviteExpiryDays)
		assert.Equal(t, "*/15 * * * *", cfg.Chatbot.ReloadSchedule)
		assert.Equal(t, 5*time.Second, cfg.Chatbot.Timeout)
	})

	t.Run("environment overrides yaml", func(t *testing.T) {
		dir := chdir(t)
		clearEnv(t)

		path := filepath.Join(dir, "tripwiser.yaml")
		require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: from-file\n"), 0o644))
		t.Setenv("JWT_SECRET", "from-env")
		t.Setenv("PORT", "7000")
		t.Setenv("DB_PATH", "/tmp/x.db")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
		assert.Equal(t, 7000, cfg.Server.Port)
		assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("dotenv fills unset variables", func(t *testing.T) {
		dir := chdir(t)
		clearEnv(t)
		// godotenv skips variables that are present, even if empty.
		os.Unsetenv("GEMINI_API_KEY")
		t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=g-123\n"), 0o644))

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "g-123", cfg.Chatbot.GeminiAPIKey)
	})

	t.Run("invalid port", func(t *testing.T) {
		chdir(t)
		clearEnv(t)
		t.Setenv("PORT", "http")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid PORT")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := chdir(t)
		clearEnv(t)
		path := filepath.Join(dir, "tripwiser.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "parsing config")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Auth.JWTSecret = "secret"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"no db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"collaborator cap", func(c *Config) { c.Collaboration.MaxCollaboratorsPerTrip = 0 }, "max_collaborators_per_trip"},
		{"invite expiry", func(c *Config) { c.Collaboration.InviteExpiryDays = -1 }, "invite_expiry_days"},
		{"ask rate", func(c *Config) { c.Chatbot.AskBurst = 0 }, "ask_burst"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
