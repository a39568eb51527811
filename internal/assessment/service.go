// Package assessment runs the risk pipeline for an itinerary: normalize the
// request, gather signals, aggregate, explain, and cache the result.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/explain"
	"github.com/flightrisk/flightrisk/internal/history"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/risk"
	"github.com/flightrisk/flightrisk/internal/seasonal"
	"github.com/flightrisk/flightrisk/internal/telemetry"
	"github.com/flightrisk/flightrisk/internal/weather"
)

const tracerName = "github.com/flightrisk/flightrisk/internal/assessment"

// ComputationError is returned when scoring fails. No partial assessment
// accompanies it.
type ComputationError struct {
	Flight string
	Err    error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computing assessment for %s: %v", e.Flight, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// ServiceConfig holds configuration for the assessment service.
type ServiceConfig struct {
	// History supplies historical performance (optional).
	// Nil means every assessment reports history as unavailable.
	History history.Provider

	// Weather supplies origin and destination weather risk (required).
	Weather weather.Provider

	// Complexity supplies origin and destination complexity (required).
	Complexity airport.ComplexityProvider

	// Layovers analyzes connections (optional).
	// If nil, an analyzer over Weather and Complexity without batch verdicts is used.
	Layovers *layover.Analyzer

	// Explainer phrases the result (optional).
	// If nil, explanations are deterministic.
	Explainer *explain.Adapter

	// Cache holds recent results (optional).
	// If nil, a cache with the default TTL is created.
	Cache *Cache

	// Metrics records assessment outcomes (optional).
	Metrics *Metrics

	// SignalTimeout bounds each history, weather and complexity call
	// for the origin and destination (default: 5 seconds).
	SignalTimeout time.Duration

	// Logger for service operations.
	Logger zerolog.Logger

	// Now is the clock (default: time.Now).
	Now func() time.Time
}

// Service produces risk assessments.
type Service struct {
	history       history.Provider
	weather       weather.Provider
	complexity    airport.ComplexityProvider
	layovers      *layover.Analyzer
	explainer     *explain.Adapter
	cache         *Cache
	metrics       *Metrics
	signalTimeout time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewService creates a new assessment service.
func NewService(cfg ServiceConfig) *Service {
	signalTimeout := cfg.SignalTimeout
	if signalTimeout == 0 {
		signalTimeout = 5 * time.Second
	}

	layovers := cfg.Layovers
	if layovers == nil {
		layovers = layover.NewAnalyzer(layover.Config{
			Weather:    cfg.Weather,
			Complexity: cfg.Complexity,
			Logger:     cfg.Logger,
		})
	}

	explainer := cfg.Explainer
	if explainer == nil {
		explainer = explain.NewAdapter(explain.Config{Logger: cfg.Logger})
	}

	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(CacheConfig{Logger: cfg.Logger, Now: cfg.Now})
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		history:       cfg.History,
		weather:       cfg.Weather,
		complexity:    cfg.Complexity,
		layovers:      layovers,
		explainer:     explainer,
		cache:         cache,
		metrics:       cfg.Metrics,
		signalTimeout: signalTimeout,
		logger:        cfg.Logger,
		now:           now,
	}
}

// Assess normalizes the request and returns its assessment, from the cache
// when a fresh one exists for the same flight and date.
func (s *Service) Assess(ctx context.Context, req Request) (*Output, error) {
	itin, err := Normalize(req)
	if err != nil {
		return nil, err
	}

	key := KeyFor(itin.Leg)

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "assessment.Assess")
	defer span.End()
	span.SetAttributes(
		attribute.String("flight.key", key.String()),
		attribute.Int("flight.connections", len(itin.Connections)),
	)

	entry, cached, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*Entry, error) {
		return s.compute(ctx, itin)
	})
	if err != nil {
		s.metrics.recordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error().Err(err).Str("flight", key.String()).Msg("assessment failed")
		return nil, err
	}

	s.metrics.recordAssessment(entry, cached)
	span.SetAttributes(
		attribute.Int("risk.score", entry.Assessment.Score),
		attribute.String("risk.level", string(entry.Assessment.Level)),
		attribute.Bool("cache.hit", cached),
	)

	s.logger.Info().
		Str("flight", key.String()).
		Int("score", entry.Assessment.Score).
		Str("level", string(entry.Assessment.Level)).
		Bool("cached", cached).
		Bool("safety_override", entry.Assessment.SafetyOverride).
		Msg("assessment served")

	return NewOutput(entry, cached), nil
}

// InvalidateCache drops every cached assessment.
func (s *Service) InvalidateCache() int {
	return s.cache.Invalidate()
}

// CacheStats returns result cache statistics.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

func (s *Service) compute(ctx context.Context, itin Itinerary) (*Entry, error) {
	in := s.gatherSignals(ctx, itin)

	a, err := s.score(in, itin.Leg)
	if err != nil {
		return nil, err
	}

	outcome := s.explainer.Explain(ctx, *a)

	return &Entry{
		ID:          uuid.NewString(),
		Leg:         itin.Leg,
		Assessment:  *a,
		Explanation: outcome,
		ComputedAt:  s.now().UTC(),
	}, nil
}

// score runs the aggregation, turning errors and panics into a ComputationError.
func (s *Service) score(in risk.Inputs, leg FlightLeg) (a *risk.Assessment, err error) {
	flight := KeyFor(leg).String()
	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = &ComputationError{Flight: flight, Err: fmt.Errorf("%w: panic: %v", risk.ErrComputation, r)}
		}
	}()

	a, err = risk.Assess(in)
	if err != nil {
		return nil, &ComputationError{Flight: flight, Err: err}
	}
	return a, nil
}

func (s *Service) gatherSignals(ctx context.Context, itin Itinerary) risk.Inputs {
	leg := itin.Leg
	in := risk.Inputs{
		Origin:      leg.Origin,
		Destination: leg.Destination,
		Seasonal:    seasonal.Calculate(leg.Date),
	}
	in.Historical, in.HistoricalFailed = s.historical(ctx, leg)

	in.OriginWeather = s.weatherRisk(ctx, leg.Origin, leg.Date)
	in.DestinationWeather = s.weatherRisk(ctx, leg.Destination, leg.Date)
	in.OriginComplexity = s.airportComplexity(ctx, leg.Origin)
	in.DestinationComplexity = s.airportComplexity(ctx, leg.Destination)

	if len(itin.Connections) > 0 {
		in.Connections = s.layovers.Analyze(ctx, itin.Connections, leg.Date)
	}
	return in
}

// historical returns the flight's performance and whether the lookup failed.
// ErrNoData is not a failure.
func (s *Service) historical(ctx context.Context, leg FlightLeg) (*history.Performance, bool) {
	if s.history == nil {
		return history.Unavailable(), false
	}

	callCtx, cancel := context.WithTimeout(ctx, s.signalTimeout)
	defer cancel()

	perf, err := s.history.GetPerformance(callCtx, history.Query{
		Airline:      leg.AirlineCode,
		FlightNumber: leg.FlightNumber,
		Origin:       leg.Origin,
		Destination:  leg.Destination,
	})
	switch {
	case errors.Is(err, history.ErrNoData):
		s.logger.Debug().Str("flight", leg.FlightNumber).Msg("no historical data")
		return history.Unavailable(), false
	case err != nil:
		s.logger.Warn().Err(err).Str("flight", leg.FlightNumber).Msg("historical lookup failed")
		return history.Unavailable(), true
	case !perf.Available():
		return history.Unavailable(), false
	}
	return perf, false
}

func (s *Service) weatherRisk(ctx context.Context, code string, date time.Time) *weather.Risk {
	callCtx, cancel := context.WithTimeout(ctx, s.signalTimeout)
	defer cancel()

	r, err := s.weather.GetWeatherRisk(callCtx, code, date)
	if err != nil {
		s.logger.Warn().Err(err).Str("airport", code).Msg("weather lookup failed")
		return nil
	}
	return r
}

func (s *Service) airportComplexity(ctx context.Context, code string) *airport.Complexity {
	callCtx, cancel := context.WithTimeout(ctx, s.signalTimeout)
	defer cancel()

	c, err := s.complexity.GetComplexity(callCtx, code)
	if err != nil {
		s.logger.Warn().Err(err).Str("airport", code).Msg("complexity lookup failed")
		return nil
	}
	return c
}
