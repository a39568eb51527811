package risk

import (
	"fmt"
	"math"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/history"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/weather"
)

// DegradedHistorical marks a failed history lookup in Components.Degraded.
const DegradedHistorical = "historical"

// Component scores used when a signal is missing.
const (
	historicalDefault     = 25.0
	weatherFailedScore    = 15.0
	complexityFailedScore = 10.0
)

// Safety override triggers on the unclamped delay upper bound.
const (
	overrideSevereDelay   = 100.0
	overrideSevereScore   = 75
	overrideElevatedDelay = 80.0
	overrideElevatedScore = 70
)

// WeatherScore maps a weather level to its component score.
func WeatherScore(l weather.RiskLevel) (float64, bool) {
	switch l {
	case weather.RiskLow:
		return 5, true
	case weather.RiskMedium:
		return 15, true
	case weather.RiskHigh:
		return 25, true
	case weather.RiskVeryHigh:
		return 30, true
	default:
		return weatherFailedScore, false
	}
}

// ComplexityScore maps a complexity level to its component score.
func ComplexityScore(l airport.ComplexityLevel) (float64, bool) {
	switch l {
	case airport.ComplexityLow:
		return 3, true
	case airport.ComplexityMedium:
		return 10, true
	case airport.ComplexityHigh:
		return 20, true
	default:
		return complexityFailedScore, false
	}
}

// HistoricalScore returns the historical component and whether data was available.
func HistoricalScore(p *history.Performance) (float64, bool) {
	if !p.Available() {
		return historicalDefault, false
	}
	cancel := math.Min(p.CancellationRate*12.5, 25)
	delay := math.Min(p.AvgDelayMinutes/2.4, 25)
	return cancel + delay, true
}

// Aggregate scores the inputs with the default weights.
func Aggregate(in Inputs) (Result, error) {
	return AggregateWeighted(DefaultWeights(), in)
}

// AggregateWeighted scores the inputs. Any non-finite intermediate value
// yields ErrComputation; the result is never partial.
func AggregateWeighted(w Weights, in Inputs) (Result, error) {
	if err := w.Validate(); err != nil {
		return Result{}, err
	}

	c := components(in)

	for _, v := range []struct {
		name  string
		value float64
	}{
		{"historical", c.Historical},
		{"weather", c.Weather},
		{"complexity", c.Complexity},
		{"connections", c.Connections},
		{"seasonal", c.Seasonal},
	} {
		if !finite(v.value) {
			return Result{}, fmt.Errorf("%w: %s component is %v", ErrComputation, v.name, v.value)
		}
	}

	weighted := c.Historical*w.Historical +
		c.Weather*w.Weather +
		c.Complexity*w.Complexity +
		c.Connections*w.Connections +
		c.Seasonal*w.Seasonal
	if !finite(weighted) {
		return Result{}, fmt.Errorf("%w: weighted score is %v", ErrComputation, weighted)
	}

	score := clampScore(weighted)
	res := Result{
		Score:         score,
		Level:         LevelFor(score),
		WeightedScore: weighted,
		Components:    c,
	}

	p, err := EstimateProbabilities(in.Historical, c, res.Level)
	if err != nil {
		return Result{}, err
	}
	res.Probabilities = p
	if p.FromHistory {
		applySafetyOverride(&res, in)
	}

	return res, nil
}

func components(in Inputs) Components {
	var c Components
	c.Historical, c.HistoricalAvailable = HistoricalScore(in.Historical)
	if in.HistoricalFailed && !c.HistoricalAvailable {
		c.Degraded = append(c.Degraded, DegradedHistorical)
	}

	originWeather := endpointWeather(in.OriginWeather, endpointLabel("origin", in.Origin), &c)
	destWeather := endpointWeather(in.DestinationWeather, endpointLabel("destination", in.Destination), &c)
	c.Weather = (originWeather + destWeather) / 2

	originCx := endpointComplexity(in.OriginComplexity, endpointLabel("origin", in.Origin), &c)
	destCx := endpointComplexity(in.DestinationComplexity, endpointLabel("destination", in.Destination), &c)
	c.Complexity = (originCx + destCx) / 2

	c.Connections = connectionScore(in.Connections, &c)
	c.Seasonal = in.Seasonal.Score
	return c
}

func endpointLabel(role, code string) string {
	if code == "" {
		return role
	}
	return role + " " + airport.NormalizeCode(code)
}

func endpointWeather(r *weather.Risk, label string, c *Components) float64 {
	if r == nil {
		c.Degraded = append(c.Degraded, label+" weather")
		return weatherFailedScore
	}
	s, ok := WeatherScore(r.Level)
	if !ok {
		c.Degraded = append(c.Degraded, label+" weather")
	}
	return s
}

func endpointComplexity(x *airport.Complexity, label string, c *Components) float64 {
	if x == nil {
		c.Degraded = append(c.Degraded, label+" complexity")
		return complexityFailedScore
	}
	s, ok := ComplexityScore(x.Level)
	if !ok {
		c.Degraded = append(c.Degraded, label+" complexity")
	}
	return s
}

func applySafetyOverride(res *Result, in Inputs) {
	if !hasTightConnection(in.Connections) {
		return
	}
	raw := res.Probabilities.DelayUpperUnclamped
	switch {
	case raw > overrideSevereDelay:
		res.Score = max(res.Score, overrideSevereScore)
	case raw > overrideElevatedDelay:
		res.Score = max(res.Score, overrideElevatedScore)
	default:
		return
	}
	res.Level = LevelHigh
	res.SafetyOverride = true
}

func hasTightConnection(conns []layover.Connection) bool {
	for _, c := range conns {
		if c.IsTight() {
			return true
		}
	}
	return false
}

func clampScore(v float64) int {
	return int(math.Max(0, math.Min(100, math.Round(v))))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
