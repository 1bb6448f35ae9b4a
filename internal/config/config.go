// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/notify.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // COMPANY_TIMEZONE must resolve in minimal containers
)

// ErrMissingConfig is returned by Load when a required variable is unset.
var ErrMissingConfig = errors.New("missing required configuration")

// MaxWindowTolerance keeps the six reminder windows from overlapping.
const MaxWindowTolerance = 4

// --------------------------------------------------------------------------
// Config is populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Backend (push function host)
	SupabaseURL        string
	SupabaseServiceKey string

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    slog.Level

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Trigger
	TriggerToken string

	// Notification job
	CompanyTimezone *time.Location
	WindowTolerance int
	EventRangeDays  int
	JobTimeout      time.Duration

	// Push client
	PushTimeout       time.Duration
	PushRatePerSecond float64

	// In-process scheduler
	SchedulerEnabled bool
	SchedulerCron    string

	// Maintenance
	MaintenanceInterval time.Duration
	ClaimRetention      time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	var missing []string
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	supabaseURL := strings.TrimRight(envOr("SUPABASE_URL", ""), "/")
	if supabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	serviceKey := envOr("SUPABASE_SERVICE_ROLE_KEY", "")
	if serviceKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s must be set", ErrMissingConfig, strings.Join(missing, ", "))
	}

	tzName := envOr("COMPANY_TIMEZONE", "Europe/Rome")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tzName, err)
	}

	tolerance := envInt("WINDOW_TOLERANCE_MINUTES", 1)
	if tolerance < 0 || tolerance > MaxWindowTolerance {
		return nil, fmt.Errorf("WINDOW_TOLERANCE_MINUTES must be between 0 and %d, got %d", MaxWindowTolerance, tolerance)
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		SupabaseURL:        supabaseURL,
		SupabaseServiceKey: serviceKey,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envLevel("LOG_LEVEL", slog.LevelInfo),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		TriggerToken: envOr("TRIGGER_TOKEN", ""),

		CompanyTimezone: loc,
		WindowTolerance: tolerance,
		EventRangeDays:  envInt("EVENT_RANGE_DAYS", 1),
		JobTimeout:      time.Duration(envInt("JOB_TIMEOUT_SECONDS", 120)) * time.Second,

		PushTimeout:       time.Duration(envInt("PUSH_TIMEOUT_SECONDS", 15)) * time.Second,
		PushRatePerSecond: envFloat("PUSH_RATE_PER_SECOND", 10),

		SchedulerEnabled: envBool("SCHEDULER_ENABLED", false),
		SchedulerCron:    envOr("SCHEDULER_CRON", "*/2 * * * *"),

		MaintenanceInterval: time.Duration(envInt("MAINTENANCE_INTERVAL_MINUTES", 30)) * time.Minute,
		ClaimRetention:      time.Duration(envInt("CLAIM_RETENTION_HOURS", 48)) * time.Hour,
	}, nil
}

// LoadDatabaseURL reads only DATABASE_URL, for commands such as migrate that
// never touch the push backend.
func LoadDatabaseURL() (string, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return "", fmt.Errorf("%w: DATABASE_URL must be set", ErrMissingConfig)
	}
	return dbURL, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PushEndpoint is the URL of the push-delivery function.
func (c *Config) PushEndpoint() string {
	return c.SupabaseURL + "/functions/v1/send-push-notification"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
