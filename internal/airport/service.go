package airport

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/telemetry"
)

// ServiceConfig holds configuration for the airport complexity service.
type ServiceConfig struct {
	// Provider is the complexity data provider.
	Provider ComplexityProvider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider calls and cache hits (optional).
	Metrics *telemetry.ProviderMetrics

	// CacheTTL is how long to cache complexity data (default: 24 hours).
	// Airport layouts and concerns change rarely.
	CacheTTL time.Duration
}

// Service provides airport complexity with caching.
type Service struct {
	provider ComplexityProvider
	logger   zerolog.Logger
	metrics  *telemetry.ProviderMetrics
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedComplexity
}

type cachedComplexity struct {
	complexity *Complexity
	expiresAt  time.Time
}

// NewService creates a new airport complexity service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	provider := cfg.Provider
	if provider == nil {
		provider = NewStaticProvider()
	}

	return &Service{
		provider: provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		cacheTTL: cacheTTL,
		cache:    make(map[string]*cachedComplexity),
	}
}

// GetComplexity returns the complexity of an airport, using the cache when fresh.
func (s *Service) GetComplexity(ctx context.Context, code string) (*Complexity, error) {
	key := NormalizeCode(code)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.metrics.RecordCacheHit(s.provider.Name(), "complexity")
		return cached.complexity, nil
	}
	s.mu.RUnlock()
	s.metrics.RecordCacheMiss(s.provider.Name(), "complexity")

	start := time.Now()
	c, err := s.provider.GetComplexity(ctx, key)
	s.metrics.RecordRequest(s.provider.Name(), "complexity", time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("airport", key).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch airport complexity")
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = &cachedComplexity{
		complexity: c,
		expiresAt:  time.Now().Add(s.cacheTTL),
	}
	s.mu.Unlock()

	return c, nil
}

// Name returns the underlying provider name.
func (s *Service) Name() string {
	return s.provider.Name()
}

// InvalidateCache clears all cached complexity data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedComplexity)
}

// CacheSize returns the number of cached airports.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
