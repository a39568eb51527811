package layover

import (
	"context"
	"fmt"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/weather"
)

// RuleAnalyzer produces deterministic, tier-aware verdicts.
type RuleAnalyzer struct{}

// NewRuleAnalyzer creates a rule-based feasibility analyzer.
func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

// Name returns the analyzer name.
func (RuleAnalyzer) Name() string {
	return "rules"
}

// AnalyzeBatch scores each airport by its shortest layover.
func (r RuleAnalyzer) AnalyzeBatch(_ context.Context, conns []Connection) (map[string]*Feasibility, error) {
	shortest := make(map[string]Connection, len(conns))
	for _, c := range conns {
		code := airport.NormalizeCode(c.AirportCode)
		if prev, ok := shortest[code]; !ok || c.DurationMinutes < prev.DurationMinutes {
			c.AirportCode = code
			shortest[code] = c
		}
	}

	out := make(map[string]*Feasibility, len(shortest))
	for code, c := range shortest {
		out[code] = r.verdict(c)
	}
	return out, nil
}

func (RuleAnalyzer) verdict(c Connection) *Feasibility {
	profile := airport.ProfileFor(c.AirportCode)
	tight := profile.Thresholds.Tight

	var (
		score   int
		factors []string
		recs    []string
		desc    string
	)

	switch c.Class() {
	case airport.ConnectionTight:
		score = 70
		desc = fmt.Sprintf("%d minutes is below the %d-minute minimum for %s", c.DurationMinutes, tight, c.AirportCode)
		factors = append(factors, fmt.Sprintf("Connection under %d minutes at a %s airport", tight, tierLabel(profile.Tier)))
		recs = append(recs, fmt.Sprintf("Book a connection of at least %d minutes at %s", tight, c.AirportCode))
	case airport.ConnectionStandard:
		score = 40
		desc = fmt.Sprintf("%d minutes is workable at %s with limited buffer", c.DurationMinutes, c.AirportCode)
		recs = append(recs, "Sit near the front of the aircraft to deplane quickly")
	default:
		score = 15
		desc = fmt.Sprintf("%d minutes leaves plenty of time at %s", c.DurationMinutes, c.AirportCode)
	}

	if c.Weather != nil {
		switch c.Weather.Level {
		case weather.RiskVeryHigh:
			score += 20
			factors = append(factors, "Severe weather expected at "+c.AirportCode)
			recs = append(recs, "Monitor weather advisories for "+c.AirportCode)
		case weather.RiskHigh:
			score += 12
			factors = append(factors, "Adverse weather expected at "+c.AirportCode)
			recs = append(recs, "Monitor weather advisories for "+c.AirportCode)
		case weather.RiskMedium:
			score += 5
		}
	}

	if c.Complexity != nil && c.Complexity.Level == airport.ComplexityHigh {
		score += 8
		factors = append(factors, "Complex terminal layout at "+c.AirportCode)
	}

	if c.DurationEstimated {
		factors = append(factors, "Layover duration was estimated")
	}

	score = min(max(score, 0), 100)

	return &Feasibility{
		Level:                    levelForScore(score),
		Score:                    score,
		Description:              desc,
		MinimumConnectionMinutes: tight,
		Recommendations:          recs,
		RiskFactors:              factors,
		Source:                   "rules",
	}
}

func levelForScore(score int) Level {
	switch {
	case score >= 70:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

func tierLabel(t airport.Tier) string {
	switch t {
	case airport.TierMajorHub:
		return "major hub"
	case airport.TierLargeHub:
		return "large hub"
	default:
		return "regional"
	}
}
