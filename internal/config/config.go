// Package config loads FlightRisk runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/flightrisk/flightrisk/internal/database"
	"github.com/flightrisk/flightrisk/internal/featureflags"
	"github.com/flightrisk/flightrisk/internal/telemetry"
)

// History backends.
const (
	HistoryNone     = "none"
	HistoryPostgres = "postgres"
	HistorySQLite   = "sqlite"
)

// Config is the runtime configuration shared by the FlightRisk binaries.
type Config struct {
	Port        string
	Environment string
	RequireTLS  bool

	Telemetry telemetry.Config

	RiskCacheTTL       time.Duration
	LayoverCallTimeout time.Duration
	LayoverMaxWorkers  int

	OpenWeatherMapAPIKey string
	TextGenURL           string
	TextGenAPIKey        string

	HistoryBackend    string
	HistorySQLitePath string
	Database          database.Config

	AdminSigningKey string

	// PinnedFlags are feature flags forced by FEATURE_FLAGS_PINNED.
	PinnedFlags map[string]bool

	WarmSchedule string
	WarmAirports string

	PubSubProjectID    string
	PubSubSubscription string
}

// LoadDotEnv loads variables from the given files without overriding ones
// already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv reads the configuration from environment variables.
func FromEnv(serviceName, version string) (Config, error) {
	var errs []error

	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnvOrDefault(key, def))
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, os.Getenv(key)))
		}
		return d
	}
	integer := func(key, def string) int {
		n, err := strconv.Atoi(getEnvOrDefault(key, def))
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid positive integer %q", key, os.Getenv(key)))
		}
		return n
	}

	env := getEnvOrDefault("APP_ENV", "development")

	cfg := Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		Environment: env,
		RequireTLS:  os.Getenv("REQUIRE_TLS") == "true",
		Telemetry:   telemetry.ConfigFromEnv(serviceName, version, env),

		RiskCacheTTL:       duration("RISK_CACHE_TTL", "10m"),
		LayoverCallTimeout: duration("LAYOVER_CALL_TIMEOUT", "5s"),
		LayoverMaxWorkers:  integer("LAYOVER_MAX_WORKERS", "4"),

		OpenWeatherMapAPIKey: os.Getenv("OPENWEATHERMAP_API_KEY"),
		TextGenURL:           os.Getenv("TEXTGEN_URL"),
		TextGenAPIKey:        os.Getenv("TEXTGEN_API_KEY"),

		HistoryBackend:    strings.ToLower(getEnvOrDefault("HISTORY_BACKEND", HistoryNone)),
		HistorySQLitePath: getEnvOrDefault("HISTORY_SQLITE_PATH", "flightrisk.db"),
		Database:          database.ConfigFromEnv(),

		AdminSigningKey: os.Getenv("ADMIN_JWT_SIGNING_KEY"),

		WarmSchedule: os.Getenv("WEATHER_WARM_SCHEDULE"),
		WarmAirports: os.Getenv("WEATHER_WARM_AIRPORTS"),

		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "flightrisk-worker"),
	}

	pinned, err := featureflags.ParsePinned(os.Getenv("FEATURE_FLAGS_PINNED"))
	if err != nil {
		errs = append(errs, fmt.Errorf("FEATURE_FLAGS_PINNED: %w", err))
	}
	cfg.PinnedFlags = pinned

	switch cfg.HistoryBackend {
	case HistoryNone, HistoryPostgres, HistorySQLite:
	default:
		errs = append(errs, fmt.Errorf("HISTORY_BACKEND: unknown backend %q", cfg.HistoryBackend))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
