package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/telemetry"
)

// ServiceConfig holds configuration for the history service.
type ServiceConfig struct {
	// Provider is the backing repository. Nil means no history is configured
	// and every lookup returns ErrNoData.
	Provider Provider

	// Name labels the backend in logs and metrics (default: "history").
	Name string

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider calls and cache hits (optional).
	Metrics *telemetry.ProviderMetrics

	// CacheTTL is how long to cache summaries (default: 1 hour).
	CacheTTL time.Duration

	// Window limits statistics to recent flights (default: 365 days).
	Window time.Duration
}

// Service provides historical performance with caching.
type Service struct {
	provider Provider
	name     string
	logger   zerolog.Logger
	metrics  *telemetry.ProviderMetrics
	cacheTTL time.Duration
	window   time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	cache map[Query]*cachedPerformance
}

type cachedPerformance struct {
	performance *Performance
	err         error
	expiresAt   time.Time
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) *Service {
	name := cfg.Name
	if name == "" {
		name = "history"
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Hour
	}

	window := cfg.Window
	if window == 0 {
		window = 365 * 24 * time.Hour
	}

	return &Service{
		provider: cfg.Provider,
		name:     name,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		cacheTTL: cacheTTL,
		window:   window,
		now:      time.Now,
		cache:    make(map[Query]*cachedPerformance),
	}
}

// Name returns the backend label.
func (s *Service) Name() string {
	return s.name
}

// GetPerformance returns statistics for the query over the configured window.
// ErrNoData results are cached like successes.
func (s *Service) GetPerformance(ctx context.Context, q Query) (*Performance, error) {
	if s.provider == nil {
		return nil, ErrNoData
	}

	q = q.Normalize()
	if q.Since.IsZero() {
		q.Since = dayOf(s.now().Add(-s.window))
	}

	s.mu.RLock()
	cached, ok := s.cache[q]
	s.mu.RUnlock()
	if ok && s.now().Before(cached.expiresAt) {
		s.metrics.RecordCacheHit(s.name, "performance")
		return cached.performance, cached.err
	}
	s.metrics.RecordCacheMiss(s.name, "performance")

	start := time.Now()
	perf, err := s.provider.GetPerformance(ctx, q)
	s.metrics.RecordRequest(s.name, "performance", time.Since(start), err)

	if err != nil && !errors.Is(err, ErrNoData) {
		s.logger.Warn().Err(err).
			Str("airline", q.Airline).
			Str("flight", q.FlightNumber).
			Str("route", q.Origin+"-"+q.Destination).
			Msg("failed to load historical performance")
		return nil, err
	}

	s.mu.Lock()
	s.cache[q] = &cachedPerformance{
		performance: perf,
		err:         err,
		expiresAt:   s.now().Add(s.cacheTTL),
	}
	s.mu.Unlock()

	return perf, err
}

// InvalidateCache clears all cached summaries.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[Query]*cachedPerformance)
}

// CacheSize returns the number of cached summaries.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
