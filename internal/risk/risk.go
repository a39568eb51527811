// Package risk combines historical, weather, complexity, connection and
// seasonal signals into a 0-100 disruption score with probability ranges.
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/history"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/seasonal"
	"github.com/flightrisk/flightrisk/internal/weather"
)

// Errors returned by the aggregator.
var (
	ErrComputation    = errors.New("risk computation failed")
	ErrInvalidWeights = errors.New("invalid component weights")
)

// Level is the discrete risk bucket.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Level thresholds. A score at a threshold belongs to the lower bucket.
const (
	LowMaxScore    = 35
	MediumMaxScore = 70
)

// LevelFor buckets a score.
func LevelFor(score int) Level {
	switch {
	case score <= LowMaxScore:
		return LevelLow
	case score <= MediumMaxScore:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Weights are the component weights of the final score.
type Weights struct {
	Historical  float64
	Weather     float64
	Complexity  float64
	Connections float64
	Seasonal    float64
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Historical:  0.30,
		Weather:     0.20,
		Complexity:  0.15,
		Connections: 0.30,
		Seasonal:    0.05,
	}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Historical + w.Weather + w.Complexity + w.Connections + w.Seasonal
}

// Validate checks that weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Historical, w.Weather, w.Complexity, w.Connections, w.Seasonal} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: negative or non-finite weight %v", ErrInvalidWeights, v)
		}
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// Components are the unweighted component scores.
type Components struct {
	Historical  float64
	Weather     float64
	Complexity  float64
	Connections float64
	Seasonal    float64

	// HistoricalAvailable is false when the historical default was used.
	HistoricalAvailable bool

	// Degraded names the signals that failed and were replaced by the medium value.
	Degraded []string
}

// Inputs are the normalized signals for one itinerary.
type Inputs struct {
	// Historical is nil or empty when no history exists.
	Historical *history.Performance

	// HistoricalFailed is set when the history lookup errored rather than
	// finding no data.
	HistoricalFailed bool

	// Origin and destination signals. Nil means the lookup failed.
	Origin                string
	Destination           string
	OriginWeather         *weather.Risk
	DestinationWeather    *weather.Risk
	OriginComplexity      *airport.Complexity
	DestinationComplexity *airport.Complexity

	// Connections in itinerary order. Empty for direct flights.
	Connections []layover.Connection

	Seasonal seasonal.Context
}

// Result is the numeric outcome of aggregation.
type Result struct {
	Score int
	Level Level

	// WeightedScore is the weighted sum before rounding and clamping.
	WeightedScore float64

	Components    Components
	Probabilities Probabilities

	// SafetyOverride is true when a tight connection forced the level to high.
	SafetyOverride bool
}

// Assessment is a complete numeric risk assessment with its supporting detail.
type Assessment struct {
	Score                   int
	Level                   Level
	DelayProbability        ProbabilityRange
	CancellationProbability ProbabilityRange
	RiskFactors             []string
	Recommendations         []string
	SafetyOverride          bool
	Historical              history.Performance
	SeasonalFactors         []string
	Components              Components
	Connections             []layover.Connection
}

// Output list limits.
const (
	MaxRiskFactors     = 4
	MaxRecommendations = 4
	MaxSeasonalFactors = 5
)

// Assess aggregates the inputs with the default weights and attaches
// factors and recommendations.
func Assess(in Inputs) (*Assessment, error) {
	res, err := Aggregate(in)
	if err != nil {
		return nil, err
	}

	hist := history.Unavailable()
	if in.Historical.Available() {
		hist = in.Historical
	}

	factors, recs := Factors(in, res)

	return &Assessment{
		Score:                   res.Score,
		Level:                   res.Level,
		DelayProbability:        res.Probabilities.Delay,
		CancellationProbability: res.Probabilities.Cancellation,
		RiskFactors:             factors,
		Recommendations:         recs,
		SafetyOverride:          res.SafetyOverride,
		Historical:              *hist,
		SeasonalFactors:         truncate(in.Seasonal.Factors, MaxSeasonalFactors),
		Components:              res.Components,
		Connections:             in.Connections,
	}, nil
}

func truncate(s []string, n int) []string {
	if len(s) <= n {
		return append([]string(nil), s...)
	}
	return append([]string(nil), s[:n]...)
}
