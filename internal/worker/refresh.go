package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/flightrisk/flightrisk/internal/weather"
)

// WeatherRefresher fetches weather risk bypassing any fresh cache entry.
// *weather.Service satisfies it.
type WeatherRefresher interface {
	Refresh(ctx context.Context, code string, date time.Time) (*weather.Risk, error)
}

// RefreshJob warms the weather cache for configured airports.
type RefreshJob struct {
	config  RefreshConfig
	weather WeatherRefresher
	logger  zerolog.Logger
	now     func() time.Time

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns           int64
	SuccessfulRefreshes int64
	FailedRefreshes     int64
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Weather WeatherRefresher
	Logger  zerolog.Logger

	// Now is the clock (default: time.Now).
	Now func() time.Time
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RefreshJob{
		config:  cfg.Config.withDefaults(),
		weather: cfg.Weather,
		logger:  cfg.Logger,
		now:     now,
		metrics: &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	TotalAirports int
	Successful    int
	Failed        int
	Errors        []RefreshError
}

// RefreshError records one failed airport/day refresh.
type RefreshError struct {
	Airport string
	Date    string
	Error   string
}

// Run refreshes every configured airport for each configured day, with at
// most Concurrency refreshes in flight. Individual failures are recorded in
// the result and never abort the run.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.run(ctx, j.config.AllAirports())
}

// RunAirports refreshes only the given airports.
func (j *RefreshJob) RunAirports(ctx context.Context, codes []string) *RefreshResult {
	return j.run(ctx, RefreshConfig{Targets: []RefreshTarget{{Airports: codes}}}.AllAirports())
}

func (j *RefreshJob) run(ctx context.Context, airports []string) *RefreshResult {
	start := j.now()
	result := &RefreshResult{
		StartTime:     start,
		TotalAirports: len(airports),
	}

	if j.weather == nil {
		j.logger.Warn().Msg("weather refresh skipped: no weather service configured")
		result.EndTime = j.now()
		return result
	}

	j.logger.Info().
		Int("airports", len(airports)).
		Int("days", j.config.Days).
		Int("concurrency", j.config.Concurrency).
		Msg("starting weather refresh job")

	today := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for _, code := range airports {
		for d := 0; d < j.config.Days; d++ {
			date := today.AddDate(0, 0, d)
			g.Go(func() error {
				err := j.refreshOne(gctx, code, date)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, RefreshError{
						Airport: code,
						Date:    date.Format(time.DateOnly),
						Error:   err.Error(),
					})
					return nil
				}
				result.Successful++
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.Slice(result.Errors, func(a, b int) bool {
		if result.Errors[a].Airport != result.Errors[b].Airport {
			return result.Errors[a].Airport < result.Errors[b].Airport
		}
		return result.Errors[a].Date < result.Errors[b].Date
	})

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(start)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("weather refresh job completed")

	return result
}

func (j *RefreshJob) refreshOne(ctx context.Context, code string, date time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := j.weather.Refresh(ctx, code, date)
	if err != nil {
		j.logger.Debug().Err(err).Str("airport", code).Time("date", date).Msg("weather refresh failed")
	}
	return err
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulRefreshes += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		SuccessfulRefreshes: j.metrics.SuccessfulRefreshes,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]any {
	m := j.GetMetrics()
	return map[string]any{
		"total_runs":            m.TotalRuns,
		"successful_refreshes":  m.SuccessfulRefreshes,
		"failed_refreshes":      m.FailedRefreshes,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
