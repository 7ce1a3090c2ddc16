// Package config loads the Tripwiser server configuration from a YAML file,
// an optional .env file and environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level tripwiser.yaml configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
	Collaboration CollaborationConfig `yaml:"collaboration"`
	Weather       WeatherConfig       `yaml:"weather"`
	Chatbot       ChatbotConfig       `yaml:"chatbot"`
	Jobs          JobsConfig          `yaml:"jobs"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigin   string        `yaml:"allowed_origin"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds the token verification settings.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

// LoggingConfig sets the minimum log level: debug, info, warn or error.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CollaborationConfig limits trip sharing.
type CollaborationConfig struct {
	MaxCollaboratorsPerTrip int `yaml:"max_collaborators_per_trip"`
	InviteExpiryDays        int `yaml:"invite_expiry_days"`
}

// WeatherConfig configures the WeatherAPI.com client.
type WeatherConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ChatbotConfig configures the FAQ assistant.
type ChatbotConfig struct {
	FAQPath        string        `yaml:"faq_path"`
	GeminiAPIKey   string        `yaml:"gemini_api_key"`
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	AskPerMinute   int           `yaml:"ask_per_minute"`
	AskBurst       int           `yaml:"ask_burst"`
	ReloadSchedule string        `yaml:"reload_schedule"` // cron spec; empty disables
}

// JobsConfig holds cron specs for background jobs.
type JobsConfig struct {
	InvitationSweep string `yaml:"invitation_sweep"` // empty disables
}

// Default returns a Config with sensible defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigin:   "*",
		},
		Database: DatabaseConfig{
			Path: "./data/tripwiser.db",
		},
		Auth: AuthConfig{
			TokenDuration: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Collaboration: CollaborationConfig{
			MaxCollaboratorsPerTrip: 10,
			InviteExpiryDays:        7,
		},
		Weather: WeatherConfig{
			Timeout: 10 * time.Second,
		},
		Chatbot: ChatbotConfig{
			FAQPath:      "./data/faqs.json",
			Timeout:      30 * time.Second,
			AskPerMinute: 10,
			AskBurst:     3,
		},
		Jobs: JobsConfig{
			InvitationSweep: "@hourly",
		},
	}
}

// Load builds the configuration. A missing file at path is not an error; the
// defaults are used instead. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		c.Weather.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Chatbot.GeminiAPIKey = v
	}
	if v := os.Getenv("FAQ_PATH"); v != "" {
		c.Chatbot.FAQPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate reports the first setting that would prevent the server from running.
func (c *Config) Validate() error {
	switch {
	case c.Auth.JWTSecret == "":
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	case c.Database.Path == "":
		return errors.New("database.path is required")
	case c.Collaboration.MaxCollaboratorsPerTrip <= 0:
		return errors.New("collaboration.max_collaborators_per_trip must be positive")
	case c.Collaboration.InviteExpiryDays <= 0:
		return errors.New("collaboration.invite_expiry_days must be positive")
	case c.Chatbot.AskPerMinute <= 0 || c.Chatbot.AskBurst <= 0:
		return errors.New("chatbot.ask_per_minute and chatbot.ask_burst must be positive")
	case c.Auth.TokenDuration <= 0:
		return errors.New("auth.token_duration must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}

// InviteExpiry returns the invitation expiry window as a duration.
func (c *Config) InviteExpiry() time.Duration {
	return time.Duration(c.Collaboration.InviteExpiryDays) * 24 * time.Hour
}
