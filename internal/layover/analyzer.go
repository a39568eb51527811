package layover

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/featureflags"
	"github.com/flightrisk/flightrisk/internal/telemetry"
	"github.com/flightrisk/flightrisk/internal/weather"
)

const tracerName = "github.com/flightrisk/flightrisk/internal/layover"

// Config holds configuration for the layover analyzer.
type Config struct {
	// Weather supplies per-airport weather risk (required).
	Weather weather.Provider

	// Complexity supplies per-airport complexity (required).
	Complexity airport.ComplexityProvider

	// Feasibility runs the batched verdict (optional).
	// Nil means every layover gets the duration-only fallback.
	Feasibility FeasibilityAnalyzer

	// FeatureFlags can switch off batch analysis (optional).
	FeatureFlags *featureflags.Service

	// MaxWorkers bounds concurrent per-airport calls (default: 4).
	MaxWorkers int

	// CallTimeout bounds each per-airport call (default: 5 seconds).
	CallTimeout time.Duration

	// BatchTimeout bounds the batched feasibility call (default: 15 seconds).
	BatchTimeout time.Duration

	// Logger for analyzer operations.
	Logger zerolog.Logger
}

// Analyzer fetches per-airport signals concurrently and merges batch verdicts.
type Analyzer struct {
	weather      weather.Provider
	complexity   airport.ComplexityProvider
	feasibility  FeasibilityAnalyzer
	featureFlags *featureflags.Service
	maxWorkers   int
	callTimeout  time.Duration
	batchTimeout time.Duration
	logger       zerolog.Logger
}

// NewAnalyzer creates a new layover analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	callTimeout := cfg.CallTimeout
	if callTimeout == 0 {
		callTimeout = 5 * time.Second
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 15 * time.Second
	}

	return &Analyzer{
		weather:      cfg.Weather,
		complexity:   cfg.Complexity,
		feasibility:  cfg.Feasibility,
		featureFlags: cfg.FeatureFlags,
		maxWorkers:   maxWorkers,
		callTimeout:  callTimeout,
		batchTimeout: batchTimeout,
		logger:       cfg.Logger,
	}
}

// airportSignals holds the per-airport results of the concurrent phase.
type airportSignals struct {
	weather       *weather.Risk
	weatherErr    string
	complexity    *airport.Complexity
	complexityErr string
}

// Analyze returns a copy of conns with weather, complexity and feasibility
// attached. It never fails: per-airport errors are recorded on the affected
// connections and a failed batch falls back to duration-only verdicts.
func (a *Analyzer) Analyze(ctx context.Context, conns []Connection, date time.Time) []Connection {
	out := make([]Connection, len(conns))
	copy(out, conns)
	if len(out) == 0 {
		return out
	}

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "layover.Analyze")
	defer span.End()

	var codes []string
	index := make(map[string]int)
	for i := range out {
		code := airport.NormalizeCode(out[i].AirportCode)
		out[i].AirportCode = code
		if _, seen := index[code]; !seen {
			index[code] = len(codes)
			codes = append(codes, code)
		}
	}
	span.SetAttributes(
		attribute.Int("layover.connections", len(out)),
		attribute.Int("layover.airports", len(codes)),
	)

	signals := a.fetchSignals(ctx, codes, date)

	for i := range out {
		s := signals[index[out[i].AirportCode]]
		out[i].Weather = s.weather
		out[i].WeatherErr = s.weatherErr
		out[i].Complexity = s.complexity
		out[i].ComplexityErr = s.complexityErr
	}

	verdicts := a.batch(ctx, out)
	fallbacks := 0
	for i := range out {
		if v, ok := verdicts[out[i].AirportCode]; ok && v != nil {
			out[i].Feasibility = v
			continue
		}
		out[i].Feasibility = FallbackVerdict(out[i].DurationMinutes)
		fallbacks++
	}
	span.SetAttributes(attribute.Int("layover.fallback_verdicts", fallbacks))

	return out
}

// fetchSignals runs one weather and one complexity call per airport on a
// bounded pool. Each slot in the result is written by exactly one goroutine.
func (a *Analyzer) fetchSignals(ctx context.Context, codes []string, date time.Time) []airportSignals {
	signals := make([]airportSignals, len(codes))

	var g errgroup.Group
	g.SetLimit(a.maxWorkers)

	for i, code := range codes {
		s := &signals[i]

		g.Go(func() error {
			defer a.recoverInto(&s.weatherErr, code, "weather")
			callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
			defer cancel()

			risk, err := a.weather.GetWeatherRisk(callCtx, code, date)
			if err != nil {
				s.weatherErr = failureMarker(err)
				a.logger.Warn().Err(err).Str("airport", code).Msg("layover weather lookup failed")
				return nil
			}
			s.weather = risk
			return nil
		})

		g.Go(func() error {
			defer a.recoverInto(&s.complexityErr, code, "complexity")
			callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
			defer cancel()

			c, err := a.complexity.GetComplexity(callCtx, code)
			if err != nil {
				s.complexityErr = failureMarker(err)
				a.logger.Warn().Err(err).Str("airport", code).Msg("layover complexity lookup failed")
				return nil
			}
			s.complexity = c
			return nil
		})
	}

	_ = g.Wait() // workers record failures locally and never return errors

	return signals
}

// recoverInto turns a panicking provider call into a failure marker for
// that airport alone.
func (a *Analyzer) recoverInto(marker *string, code, signal string) {
	r := recover()
	if r == nil {
		return
	}
	*marker = failureMarker(fmt.Errorf("%w: %v", ErrProviderPanic, r))
	a.logger.Error().
		Str("airport", code).
		Str("signal", signal).
		Interface("panic", r).
		Msg("layover provider call panicked")
}

func (a *Analyzer) batch(ctx context.Context, conns []Connection) map[string]*Feasibility {
	if a.feasibility == nil {
		return nil
	}
	if a.featureFlags.LayoverBatchAnalysisDisabled(ctx) {
		a.logger.Debug().Msg("batch layover analysis disabled by feature flag")
		return nil
	}

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "layover.AnalyzeBatch")
	defer span.End()
	span.SetAttributes(attribute.String("layover.analyzer", a.feasibility.Name()))

	batchCtx, cancel := context.WithTimeout(ctx, a.batchTimeout)
	defer cancel()

	verdicts, err := a.analyzeBatch(batchCtx, conns)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn().Err(err).
			Str("analyzer", a.feasibility.Name()).
			Int("connections", len(conns)).
			Msg("batch layover analysis failed, using fallback verdicts")
		return nil
	}

	normalized := make(map[string]*Feasibility, len(verdicts))
	for code, v := range verdicts {
		if v == nil {
			continue
		}
		if v.Source == "" {
			v.Source = a.feasibility.Name()
		}
		normalized[airport.NormalizeCode(code)] = v
	}
	return normalized
}

func (a *Analyzer) analyzeBatch(ctx context.Context, conns []Connection) (verdicts map[string]*Feasibility, err error) {
	defer func() {
		if r := recover(); r != nil {
			verdicts, err = nil, fmt.Errorf("%w: %v", ErrProviderPanic, r)
		}
	}()
	return a.feasibility.AnalyzeBatch(ctx, conns)
}

func failureMarker(err error) string {
	return fmt.Sprintf("%s: %v", ErrAnalysisFailed, err)
}
