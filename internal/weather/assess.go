package weather

import (
	"fmt"
	"strings"
)

// Thresholds for operational impact.
const (
	gustVeryHigh   = 25.0 // m/s, crosswind limits for most airliners
	gustHigh       = 17.0
	windMedium     = 10.0
	visibilityLow  = 800.0 // meters, CAT I minimums territory
	visibilityFair = 3000.0
	freezingTemp   = 0.0
)

// RiskFromObservation maps an observation to an operational risk level.
func RiskFromObservation(code string, obs *Observation) *Risk {
	level := RiskLow
	var reasons []string

	raise := func(l RiskLevel, reason string) {
		if rank(l) > rank(level) {
			level = l
		}
		reasons = append(reasons, reason)
	}

	switch obs.Condition {
	case ConditionSevere:
		raise(RiskVeryHigh, "severe weather")
	case ConditionThunderstorm:
		raise(RiskHigh, "thunderstorms")
	case ConditionSnow:
		raise(RiskHigh, "snow")
	case ConditionFog:
		raise(RiskMedium, "fog")
	case ConditionRain:
		raise(RiskMedium, "rain")
	case ConditionDrizzle, ConditionMist, ConditionHaze:
		raise(RiskLow, strings.ToLower(string(obs.Condition)))
	}

	switch {
	case obs.WindGust >= gustVeryHigh:
		raise(RiskVeryHigh, fmt.Sprintf("gusts of %.0f m/s", obs.WindGust))
	case obs.WindGust >= gustHigh:
		raise(RiskHigh, fmt.Sprintf("gusts of %.0f m/s", obs.WindGust))
	case obs.WindSpeed >= windMedium:
		raise(RiskMedium, fmt.Sprintf("sustained wind of %.0f m/s", obs.WindSpeed))
	}

	if obs.Visibility > 0 {
		switch {
		case obs.Visibility < visibilityLow:
			raise(RiskHigh, fmt.Sprintf("visibility %.0f m", obs.Visibility))
		case obs.Visibility < visibilityFair:
			raise(RiskMedium, fmt.Sprintf("visibility %.0f m", obs.Visibility))
		}
	}

	// Precipitation near freezing means de-icing.
	if obs.Temperature <= freezingTemp && (obs.Condition == ConditionRain || obs.Condition == ConditionDrizzle) {
		raise(RiskHigh, "freezing precipitation")
	}

	desc := "Good flying conditions"
	if len(reasons) > 0 {
		desc = "Conditions: " + strings.Join(reasons, ", ")
	}
	if obs.Description != "" {
		desc += " (" + obs.Description + ")"
	}

	return &Risk{
		Airport:     code,
		Level:       level,
		Description: desc,
		Score:       level.Score(),
	}
}

func rank(l RiskLevel) int {
	switch l {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskVeryHigh:
		return 4
	default:
		return 0
	}
}
