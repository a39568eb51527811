package risk

import (
	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/layover"
)

// perConnectionBase is added once per connection before the penalties.
const perConnectionBase = 20.0

// Hub multipliers applied to the layover complexity penalty.
const (
	majorHubComplexityMultiplier       = 2.0
	highComplexityMultiplier           = 1.5
	defaultComplexityPenaltyMultiplier = 1.0
)

// connectionScore is 0 for direct flights. The sum is not capped here;
// only the final score is clamped.
func connectionScore(conns []layover.Connection, c *Components) float64 {
	if len(conns) == 0 {
		return 0
	}
	total := perConnectionBase * float64(len(conns))
	for _, conn := range conns {
		total += connectionPenalty(conn, c)
	}
	return total
}

// ConnectionPenalty returns the penalty one connection adds on top of the
// per-connection base.
func ConnectionPenalty(conn layover.Connection) float64 {
	var c Components
	return connectionPenalty(conn, &c)
}

func connectionPenalty(conn layover.Connection, c *Components) float64 {
	code := airport.NormalizeCode(conn.AirportCode)
	profile := airport.ProfileFor(code)

	penalty := DurationPenalty(conn.DurationMinutes, profile.Thresholds) * profile.DurationMultiplier

	cx, ok := complexityFailedScore, false
	if conn.Complexity != nil {
		cx, ok = ComplexityScore(conn.Complexity.Level)
	}
	if !ok {
		c.Degraded = append(c.Degraded, code+" layover complexity")
	}
	penalty += cx * hubMultiplier(code, conn.Complexity)

	if tight := profile.Thresholds.Tight; conn.DurationMinutes < tight {
		penalty += float64(tight-conn.DurationMinutes) * profile.MissedMultiplier
	}

	wx, ok := weatherFailedScore, false
	if conn.Weather != nil {
		wx, ok = WeatherScore(conn.Weather.Level)
	}
	if !ok {
		c.Degraded = append(c.Degraded, code+" layover weather")
	}
	penalty += wx

	return penalty
}

// DurationPenalty is the tier-relative penalty for a layover duration,
// before the tier multiplier.
func DurationPenalty(minutes int, t airport.Thresholds) float64 {
	m := float64(minutes)
	tight := float64(t.Tight)
	reasonable := float64(t.Reasonable)
	switch {
	case m < 0.5*tight:
		return 50
	case m < tight:
		return 35
	case m < 1.5*tight:
		return 20
	case m < reasonable:
		return 8
	case m > 2*reasonable:
		return 3
	default:
		return 1
	}
}

func hubMultiplier(code string, cx *airport.Complexity) float64 {
	switch {
	case airport.IsMajorHub(code):
		return majorHubComplexityMultiplier
	case cx != nil && cx.Level == airport.ComplexityHigh:
		return highComplexityMultiplier
	default:
		return defaultComplexityPenaltyMultiplier
	}
}
