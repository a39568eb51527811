package risk

import (
	"fmt"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/seasonal"
	"github.com/flightrisk/flightrisk/internal/weather"
)

// Historical thresholds that earn a factor.
const (
	notableCancellationRate = 3.0
	notableOnTimePercent    = 75.0
)

// Fallback lines used when nothing stands out.
const (
	NoFactorsLine     = "No significant risk factors identified"
	DefaultAdviceLine = "Check your flight status before leaving for the airport"
)

// list is an ordered, de-duplicated, capped list of lines.
type list struct {
	items []string
	seen  map[string]bool
	limit int
}

func newList(limit int) *list {
	return &list{seen: make(map[string]bool), limit: limit}
}

func (l *list) add(s string) {
	if s == "" || l.seen[s] || len(l.items) >= l.limit {
		return
	}
	l.seen[s] = true
	l.items = append(l.items, s)
}

// Factors derives risk factors and recommendations from the inputs and the
// aggregated result, most severe first. Both lists are capped at four.
func Factors(in Inputs, res Result) (factors, recs []string) {
	f := newList(MaxRiskFactors)
	r := newList(MaxRecommendations)

	shortest := shortestLayovers(in.Connections)
	for _, c := range in.Connections {
		code := airport.NormalizeCode(c.AirportCode)
		connectionFactors(c, c.DurationMinutes == shortest[code], f, r)
	}

	endpointWeatherFactor(in.Origin, in.OriginWeather, f, r)
	endpointWeatherFactor(in.Destination, in.DestinationWeather, f, r)

	if res.Components.HistoricalAvailable {
		h := in.Historical
		if h.CancellationRate >= notableCancellationRate {
			f.add(fmt.Sprintf("Elevated historical cancellation rate (%.1f%%)", h.CancellationRate))
			r.add("Review the airline's rebooking policy before you travel")
		}
		if h.OnTimePercent < notableOnTimePercent {
			f.add(fmt.Sprintf("Below-average on-time performance (%.0f%% on time)", h.OnTimePercent))
		}
	}

	endpointComplexityFactor(in.Origin, in.OriginComplexity, f, r)
	endpointComplexityFactor(in.Destination, in.DestinationComplexity, f, r)

	if in.Seasonal.Holiday != seasonal.HolidayNone && len(in.Seasonal.Factors) > 0 {
		f.add(in.Seasonal.Factors[0])
		r.add("Arrive at the airport early during holiday travel periods")
	}

	if !res.Components.HistoricalAvailable && !in.HistoricalFailed {
		f.add("No historical performance data for this flight")
	}

	for _, d := range res.Components.Degraded {
		f.add(fmt.Sprintf("Signal unavailable: %s (medium risk assumed)", d))
	}

	if len(f.items) == 0 {
		f.add(NoFactorsLine)
	}
	r.add(DefaultAdviceLine)

	return f.items, r.items
}

// shortestLayovers returns the shortest layover per airport. Feasibility
// verdicts are keyed by airport and describe that layover.
func shortestLayovers(conns []layover.Connection) map[string]int {
	out := make(map[string]int, len(conns))
	for _, c := range conns {
		code := airport.NormalizeCode(c.AirportCode)
		if prev, ok := out[code]; !ok || c.DurationMinutes < prev {
			out[code] = c.DurationMinutes
		}
	}
	return out
}

// connectionFactors adds the lines for one layover. ownsVerdict is false when
// the airport's verdict was written for a shorter layover there.
func connectionFactors(c layover.Connection, ownsVerdict bool, f, r *list) {
	code := airport.NormalizeCode(c.AirportCode)
	profile := airport.ProfileFor(code)
	tight := profile.Thresholds.Tight

	if c.IsTight() {
		f.add(fmt.Sprintf("Tight %d-minute connection at %s (under the %d-minute minimum for a %s)",
			c.DurationMinutes, code, tight, tierName(profile.Tier)))
		r.add(fmt.Sprintf("Allow at least %d minutes to connect at %s or choose a later connecting flight", tight, code))
	} else if ownsVerdict && c.Feasibility != nil && c.Feasibility.Level == layover.LevelHigh {
		f.add(fmt.Sprintf("Connection at %s rated high risk: %s", code, c.Feasibility.Description))
	}

	if c.DurationEstimated {
		f.add(fmt.Sprintf("Layover duration at %s was estimated", code))
	}

	if c.Weather != nil {
		layoverWeatherFactor(code, c.Weather.Level, f, r)
	}
}

func layoverWeatherFactor(code string, level weather.RiskLevel, f, r *list) {
	switch level {
	case weather.RiskVeryHigh:
		f.add("Severe weather expected at " + code)
	case weather.RiskHigh:
		f.add("Adverse weather expected at " + code)
	default:
		return
	}
	r.add("Monitor weather advisories for " + code + " on the day of travel")
}

func endpointWeatherFactor(code string, w *weather.Risk, f, r *list) {
	if w == nil || code == "" {
		return
	}
	layoverWeatherFactor(airport.NormalizeCode(code), w.Level, f, r)
}

func endpointComplexityFactor(code string, cx *airport.Complexity, f, r *list) {
	if cx == nil || code == "" || cx.Level != airport.ComplexityHigh {
		return
	}
	c := airport.NormalizeCode(code)
	f.add("Complex operations at " + c)
	r.add("Allow extra time for security and terminal transfers at " + c)
}

func tierName(t airport.Tier) string {
	switch t {
	case airport.TierMajorHub:
		return "major hub"
	case airport.TierLargeHub:
		return "large hub"
	default:
		return "regional airport"
	}
}
