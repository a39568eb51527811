// Package app assembles the FlightRisk assessment pipeline from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/api/handler"
	"github.com/flightrisk/flightrisk/internal/assessment"
	"github.com/flightrisk/flightrisk/internal/auth"
	"github.com/flightrisk/flightrisk/internal/config"
	"github.com/flightrisk/flightrisk/internal/database"
	"github.com/flightrisk/flightrisk/internal/explain"
	"github.com/flightrisk/flightrisk/internal/featureflags"
	"github.com/flightrisk/flightrisk/internal/history"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/provider/resilience"
	"github.com/flightrisk/flightrisk/internal/telemetry"
	"github.com/flightrisk/flightrisk/internal/textgen"
	"github.com/flightrisk/flightrisk/internal/weather"
	"github.com/flightrisk/flightrisk/internal/weather/openweathermap"
)

// App holds the wired components of a FlightRisk process.
type App struct {
	Assessments  *assessment.Service
	Weather      *weather.Service
	History      *history.Service
	Airports     *airport.Service
	FeatureFlags *featureflags.Service
	Tokens       *auth.TokenService
	Registry     *resilience.Registry

	// Checks are readiness probes for the configured backends.
	Checks map[string]handler.CheckFunc

	pool   *pgxpool.Pool
	sqlite *sql.DB
	logger zerolog.Logger
}

// Options tune how the pipeline is assembled.
type Options struct {
	// Offline skips every network-backed provider, using climatology weather
	// and deterministic explanations regardless of configured keys.
	Offline bool

	// Instrument enables provider and assessment metrics.
	Instrument bool
}

// New connects the configured backends and builds the pipeline.
// Callers must Close the returned App.
func New(ctx context.Context, cfg config.Config, opts Options, logger zerolog.Logger) (*App, error) {
	a := &App{
		Registry: resilience.NewRegistry(),
		Checks:   make(map[string]handler.CheckFunc),
		logger:   logger,
	}

	var providerMetrics *telemetry.ProviderMetrics
	var assessmentMetrics *assessment.Metrics
	if opts.Instrument {
		var err error
		if providerMetrics, err = telemetry.NewProviderMetrics(); err != nil {
			return nil, fmt.Errorf("provider metrics: %w", err)
		}
		if assessmentMetrics, err = assessment.NewMetrics(); err != nil {
			return nil, fmt.Errorf("assessment metrics: %w", err)
		}
	}

	historyRepo, err := a.openHistory(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var flagRepo featureflags.Repository = featureflags.NewInMemoryRepository()
	if a.pool != nil {
		flagRepo = featureflags.NewPostgresRepository(a.pool)
	}
	flagRepo = featureflags.WithPinned(flagRepo, cfg.PinnedFlags)
	a.FeatureFlags = featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     logger,
	})

	a.History = history.NewService(history.ServiceConfig{
		Provider: historyRepo,
		Name:     "history:" + cfg.HistoryBackend,
		Logger:   logger,
		Metrics:  providerMetrics,
	})

	a.Weather = weather.NewService(weather.ServiceConfig{
		Provider:     a.weatherProvider(cfg, opts),
		Logger:       logger,
		Metrics:      providerMetrics,
		FeatureFlags: a.FeatureFlags,
	})

	a.Airports = airport.NewService(airport.ServiceConfig{
		Provider: airport.NewStaticProvider(),
		Logger:   logger,
		Metrics:  providerMetrics,
	})

	var generator textgen.Generator
	var feasibility layover.FeasibilityAnalyzer = layover.NewRuleAnalyzer()
	if cfg.TextGenURL != "" && !opts.Offline {
		client := textgen.NewClient(textgen.ClientConfig{
			URL:        cfg.TextGenURL,
			APIKey:     cfg.TextGenAPIKey,
			HTTPClient: a.httpClient(textgen.ProviderName, 20*time.Second, 1),
			Logger:     logger,
		})
		generator = client
		feasibility = layover.NewTextAnalyzer(client)
	}

	layovers := layover.NewAnalyzer(layover.Config{
		Weather:      a.Weather,
		Complexity:   a.Airports,
		Feasibility:  feasibility,
		FeatureFlags: a.FeatureFlags,
		MaxWorkers:   cfg.LayoverMaxWorkers,
		CallTimeout:  cfg.LayoverCallTimeout,
		Logger:       logger,
	})

	explainer := explain.NewAdapter(explain.Config{
		Generator:    generator,
		FeatureFlags: a.FeatureFlags,
		Logger:       logger,
	})

	a.Assessments = assessment.NewService(assessment.ServiceConfig{
		History:    a.History,
		Weather:    a.Weather,
		Complexity: a.Airports,
		Layovers:   layovers,
		Explainer:  explainer,
		Cache: assessment.NewCache(assessment.CacheConfig{
			TTL:    cfg.RiskCacheTTL,
			Logger: logger,
		}),
		Metrics: assessmentMetrics,
		Logger:  logger,
	})

	if cfg.AdminSigningKey != "" {
		a.Tokens, err = auth.NewTokenService(auth.TokenConfig{SigningKey: cfg.AdminSigningKey})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("admin tokens: %w", err)
		}
	}

	return a, nil
}

func (a *App) openHistory(ctx context.Context, cfg config.Config) (history.Provider, error) {
	switch cfg.HistoryBackend {
	case config.HistoryPostgres:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("history postgres: %w", err)
		}
		a.pool = pool
		a.Checks["postgres"] = func(ctx context.Context) error { return pool.Ping(ctx) }

		repo := history.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("history postgres schema: %w", err)
		}
		a.logger.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("history database connected")
		return repo, nil

	case config.HistorySQLite:
		db, err := database.OpenSQLite(ctx, cfg.HistorySQLitePath)
		if err != nil {
			return nil, fmt.Errorf("history sqlite: %w", err)
		}
		a.sqlite = db
		a.Checks["sqlite"] = db.PingContext

		repo := history.NewSQLiteRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("history sqlite schema: %w", err)
		}
		a.logger.Info().Str("path", cfg.HistorySQLitePath).Msg("history database opened")
		return repo, nil

	default:
		a.logger.Warn().Msg("no history backend configured; historical performance unavailable")
		return nil, nil
	}
}

func (a *App) weatherProvider(cfg config.Config, opts Options) weather.Provider {
	if cfg.OpenWeatherMapAPIKey == "" || opts.Offline {
		a.logger.Info().Msg("using climatology weather provider")
		return weather.NewClimatologyProvider()
	}
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.OpenWeatherMapAPIKey,
		HTTPClient: a.httpClient(openweathermap.ProviderName, 10*time.Second, 3),
		Logger:     a.logger,
	})
}

func (a *App) httpClient(name string, timeout time.Duration, retries uint64) *resilience.Client {
	rc := resilience.DefaultClientConfig(name)
	rc.Timeout = timeout
	rc.MaxRetries = retries
	rc.Registry = a.Registry
	cb := resilience.DefaultCircuitBreakerConfig(name)
	cb.OnStateChange = resilience.LogStateChange(a.logger)
	rc.CircuitBreaker = &cb
	return resilience.NewClient(rc)
}

// Close releases database handles.
func (a *App) Close() error {
	var errs []error
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.sqlite != nil {
		errs = append(errs, a.sqlite.Close())
		a.sqlite = nil
	}
	return errors.Join(errs...)
}
