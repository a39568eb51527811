package assessment

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/flightrisk/flightrisk/internal/explain"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/risk"
)

// DefaultCacheTTL is how long an assessment is reused.
const DefaultCacheTTL = 10 * time.Minute

// Key identifies a cached assessment.
type Key struct {
	AirlineCode  string
	FlightNumber string
	Date         string
}

// KeyFor returns the cache key of a flight leg.
func KeyFor(leg FlightLeg) Key {
	return Key{
		AirlineCode:  leg.AirlineCode,
		FlightNumber: leg.FlightNumber,
		Date:         leg.Date.Format(DateLayout),
	}
}

// String renders the key for logs.
func (k Key) String() string {
	return k.AirlineCode + "|" + k.FlightNumber + "|" + k.Date
}

// Entry is a computed assessment with its explanation.
type Entry struct {
	ID          string
	Leg         FlightLeg
	Assessment  risk.Assessment
	Explanation explain.Outcome
	ComputedAt  time.Time
}

// clone deep-copies the entry so callers cannot modify the cached one.
func (e *Entry) clone() *Entry {
	cp := *e
	a := &cp.Assessment
	a.RiskFactors = append([]string(nil), a.RiskFactors...)
	a.Recommendations = append([]string(nil), a.Recommendations...)
	a.SeasonalFactors = append([]string(nil), a.SeasonalFactors...)
	a.Components.Degraded = append([]string(nil), a.Components.Degraded...)
	if a.Connections != nil {
		conns := make([]layover.Connection, len(a.Connections))
		for i, c := range a.Connections {
			conns[i] = c.Clone()
		}
		a.Connections = conns
	}
	x := &cp.Explanation
	x.RiskFactors = append([]string(nil), x.RiskFactors...)
	x.Recommendations = append([]string(nil), x.Recommendations...)
	return &cp
}

// CacheConfig holds configuration for the result cache.
type CacheConfig struct {
	// TTL is how long entries are served (default: 10 minutes).
	TTL time.Duration

	// CleanupInterval is the minimum time between sweeps of expired entries
	// (default: TTL).
	CleanupInterval time.Duration

	// Now is the clock (default: time.Now).
	Now func() time.Time

	// Logger for cache operations.
	Logger zerolog.Logger
}

// Cache holds recent assessments keyed by flight and date. Concurrent misses
// for the same key share one computation.
type Cache struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	logger          zerolog.Logger

	group singleflight.Group

	mu          sync.RWMutex
	entries     map[Key]*cachedEntry
	lastCleanup time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type cachedEntry struct {
	entry     *Entry
	expiresAt time.Time
}

// NewCache creates a new result cache.
func NewCache(cfg CacheConfig) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = ttl
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Cache{
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		now:             now,
		logger:          cfg.Logger,
		entries:         make(map[Key]*cachedEntry),
		lastCleanup:     now(),
	}
}

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of a fresh entry.
func (c *Cache) Get(key Key) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.entries[key]
	if !ok || !c.now().Before(cached.expiresAt) {
		return nil, false
	}
	return cached.entry.clone(), true
}

// Set stores a fully built entry.
func (c *Cache) Set(key Key, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cachedEntry{entry: e.clone(), expiresAt: c.now().Add(c.ttl)}
	c.cleanupIfNeeded()
}

// GetOrCompute returns the cached entry for key or computes and stores it.
// The boolean reports whether the entry came from the cache. Errors are not cached.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute func(context.Context) (*Entry, error)) (*Entry, bool, error) {
	if e, ok := c.Get(key); ok {
		c.hits.Add(1)
		return e, true, nil
	}

	v, err, shared := c.group.Do(key.String(), func() (any, error) {
		// Another caller may have stored the entry while this one waited.
		if e, ok := c.Get(key); ok {
			return e, nil
		}
		c.misses.Add(1)
		e, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, e)
		return e, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		c.logger.Debug().Str("key", key.String()).Msg("assessment computation shared with concurrent caller")
	}
	return v.(*Entry).clone(), false, nil
}

// Invalidate removes every entry and returns how many were removed.
func (c *Cache) Invalidate() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[Key]*cachedEntry)
	c.logger.Info().Int("entries", n).Msg("assessment cache invalidated")
	return n
}

// CacheStats describes the cache contents.
type CacheStats struct {
	Entries      int           `json:"entries"`
	FreshEntries int           `json:"fresh_entries"`
	Hits         int64         `json:"hits"`
	Misses       int64         `json:"misses"`
	TTL          time.Duration `json:"-"`
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	fresh := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			fresh++
		}
	}
	return CacheStats{
		Entries:      len(c.entries),
		FreshEntries: fresh,
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		TTL:          c.ttl,
	}
}

// cleanupIfNeeded removes expired entries if the cleanup interval has passed.
// Must be called with c.mu held.
func (c *Cache) cleanupIfNeeded() {
	now := c.now()
	if now.Sub(c.lastCleanup) < c.cleanupInterval {
		return
	}
	c.lastCleanup = now

	expired := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			expired++
		}
	}
	if expired > 0 {
		c.logger.Debug().Int("expired", expired).Msg("cleaned up assessment cache")
	}
}
