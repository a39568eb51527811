package weather

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/featureflags"
	"github.com/flightrisk/flightrisk/internal/telemetry"
)

// Provider defines the interface for weather risk providers.
type Provider interface {
	// GetWeatherRisk returns the weather disruption risk at an airport on a date.
	GetWeatherRisk(ctx context.Context, code string, date time.Time) (*Risk, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather risk provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider calls and cache hits (optional).
	Metrics *telemetry.ProviderMetrics

	// FeatureFlags enables the cached-only switch (optional).
	FeatureFlags *featureflags.Service

	// CacheTTL is how long to cache weather risk (default: 30 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 3 hours).
	StaleIfErrorTTL time.Duration
}

// Service provides airport weather risk with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	metrics         *telemetry.ProviderMetrics
	featureFlags    *featureflags.Service
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration

	mu              sync.RWMutex
	cache           map[string]*cachedRisk
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedRisk struct {
	risk      *Risk
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 3 * time.Hour
	}

	provider := cfg.Provider
	if provider == nil {
		provider = NewClimatologyProvider()
	}

	return &Service{
		provider:        provider,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		featureFlags:    cfg.FeatureFlags,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedRisk),
		cleanupInterval: 10 * time.Minute,
	}
}

// Name returns the underlying provider name.
func (s *Service) Name() string {
	return s.provider.Name()
}

// GetWeatherRisk returns the weather risk for an airport on a date.
// Uses cached data if available and not expired.
func (s *Service) GetWeatherRisk(ctx context.Context, code string, date time.Time) (*Risk, error) {
	code = airport.NormalizeCode(code)
	if code == "" {
		return nil, ErrNoDataForAirport
	}
	key := cacheKey(code, date)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()

	if ok && time.Now().Before(cached.expiresAt) {
		s.metrics.RecordCacheHit(s.provider.Name(), "weather_risk")
		return cached.risk, nil
	}

	if s.featureFlags.WeatherCachedOnly(ctx) {
		if ok {
			return cached.risk, nil
		}
		return nil, ErrCachedOnly
	}

	s.metrics.RecordCacheMiss(s.provider.Name(), "weather_risk")
	return s.fetch(ctx, code, date, key)
}

// Refresh fetches fresh weather risk for an airport regardless of cache state.
func (s *Service) Refresh(ctx context.Context, code string, date time.Time) (*Risk, error) {
	code = airport.NormalizeCode(code)
	if code == "" {
		return nil, ErrNoDataForAirport
	}
	return s.fetch(ctx, code, date, cacheKey(code, date))
}

func (s *Service) fetch(ctx context.Context, code string, date time.Time, key string) (*Risk, error) {
	s.logger.Debug().
		Str("airport", code).
		Str("date", date.Format(time.DateOnly)).
		Str("provider", s.provider.Name()).
		Msg("fetching weather risk from provider")

	start := time.Now()
	risk, err := s.provider.GetWeatherRisk(ctx, code, date)
	s.metrics.RecordRequest(s.provider.Name(), "weather_risk", time.Since(start), err)

	if err != nil {
		s.logger.Error().Err(err).
			Str("airport", code).
			Msg("failed to fetch weather risk")

		s.mu.RLock()
		cached, ok := s.cache[key]
		s.mu.RUnlock()
		if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Str("airport", code).
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale weather risk due to provider error")
			return cached.risk, nil
		}

		if errors.Is(err, ErrNoDataForAirport) {
			return nil, err
		}
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	now := time.Now()
	risk.Airport = code
	if risk.Date.IsZero() {
		risk.Date = date
	}
	if risk.Source == "" {
		risk.Source = s.provider.Name()
	}
	if risk.FetchedAt.IsZero() {
		risk.FetchedAt = now
	}

	s.mu.Lock()
	s.cache[key] = &cachedRisk{
		risk:      risk,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded(now)
	s.mu.Unlock()

	return risk, nil
}

func cacheKey(code string, date time.Time) string {
	return code + "|" + date.Format(time.DateOnly)
}

// cleanupIfNeeded drops entries past their stale window. Caller holds the write lock.
func (s *Service) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired weather cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRisk)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int    `json:"entries"`
	FreshEntries int    `json:"fresh_entries"`
	Provider     string `json:"provider"`
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}

	return CacheStats{
		Entries:      len(s.cache),
		FreshEntries: fresh,
		Provider:     s.provider.Name(),
	}
}
