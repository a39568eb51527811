// Package layover analyzes the connection airports of an itinerary: weather
// and complexity per airport, then one batched feasibility pass.
package layover

import (
	"context"
	"errors"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/weather"
)

var (
	// ErrAnalysisFailed prefixes per-airport failure markers.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrProviderPanic wraps a recovered panic from a provider call.
	ErrProviderPanic = errors.New("provider panicked")
)

// Level is a feasibility risk level.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Valid reports whether the level is one of the known values.
func (l Level) Valid() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// Feasibility is the verdict on making a connection at an airport.
type Feasibility struct {
	Level       Level
	Score       int
	Description string

	// MinimumConnectionMinutes is the recommended minimum layover.
	MinimumConnectionMinutes int

	Recommendations []string
	RiskFactors     []string

	// Source names the analyzer that produced the verdict, or "fallback".
	Source string
}

// Connection is one layover in an itinerary.
type Connection struct {
	AirportCode       string
	DurationMinutes   int
	DurationEstimated bool

	Weather       *weather.Risk
	WeatherErr    string
	Complexity    *airport.Complexity
	ComplexityErr string
	Feasibility   *Feasibility
}

// Clone returns a copy that shares no pointers or slices with c.
func (c Connection) Clone() Connection {
	if c.Weather != nil {
		w := *c.Weather
		c.Weather = &w
	}
	if c.Complexity != nil {
		cx := *c.Complexity
		cx.Concerns = append([]string(nil), cx.Concerns...)
		c.Complexity = &cx
	}
	if c.Feasibility != nil {
		f := *c.Feasibility
		f.Recommendations = append([]string(nil), f.Recommendations...)
		f.RiskFactors = append([]string(nil), f.RiskFactors...)
		c.Feasibility = &f
	}
	return c
}

// Class returns the tier-relative connection class.
func (c Connection) Class() airport.ConnectionClass {
	return airport.ClassifyConnection(c.AirportCode, c.DurationMinutes)
}

// IsTight reports whether the layover is under the airport's tight threshold.
func (c Connection) IsTight() bool {
	return c.Class() == airport.ConnectionTight
}

// FeasibilityAnalyzer produces verdicts for a whole set of layovers in one call.
// The result is keyed by upper-case airport code; omitted airports get the
// duration-only fallback.
type FeasibilityAnalyzer interface {
	AnalyzeBatch(ctx context.Context, conns []Connection) (map[string]*Feasibility, error)
	Name() string
}

// FallbackVerdict is the duration-only verdict used when batch analysis is
// unavailable or omits an airport.
func FallbackVerdict(minutes int) *Feasibility {
	switch {
	case minutes >= 180:
		return &Feasibility{
			Level:                    LevelLow,
			Score:                    25,
			Description:              "Ample connection time",
			MinimumConnectionMinutes: 60,
			Source:                   "fallback",
		}
	case minutes >= 90:
		return &Feasibility{
			Level:                    LevelMedium,
			Score:                    50,
			Description:              "Adequate connection time with limited buffer for delays",
			MinimumConnectionMinutes: 60,
			Recommendations:          []string{"Check the inbound flight status before landing"},
			Source:                   "fallback",
		}
	default:
		return &Feasibility{
			Level:                    LevelHigh,
			Score:                    75,
			Description:              "Short connection time; a modest inbound delay could cause a missed connection",
			MinimumConnectionMinutes: 90,
			Recommendations:          []string{"Consider a later connecting flight or a protected itinerary"},
			RiskFactors:              []string{"Short connection time"},
			Source:                   "fallback",
		}
	}
}
