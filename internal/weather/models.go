package weather

import (
	"errors"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrNoDataForAirport    = errors.New("no weather data for airport")
	ErrCachedOnly          = errors.New("weather lookups restricted to cache")
)

// RiskLevel is the weather disruption risk at an airport.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// Valid reports whether the level is one of the known values.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh, RiskVeryHigh:
		return true
	default:
		return false
	}
}

// Score returns the nominal 0-100 score for a level.
func (l RiskLevel) Score() float64 {
	switch l {
	case RiskLow:
		return 15
	case RiskMedium:
		return 40
	case RiskHigh:
		return 70
	case RiskVeryHigh:
		return 90
	default:
		return 40
	}
}

// Risk is the weather disruption risk at an airport on a date.
type Risk struct {
	Airport     string
	Date        time.Time
	Level       RiskLevel
	Description string

	// Score is a 0-100 numeric risk score.
	Score float64

	// Source is the provider name that produced the risk.
	Source    string
	FetchedAt time.Time
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionSevere       Condition = "SEVERE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// Observation is a point weather observation near an airport.
type Observation struct {
	Lat float64
	Lon float64

	Temperature float64 // Celsius
	WindSpeed   float64 // m/s
	WindGust    float64 // m/s, 0 if not available
	Visibility  float64 // meters, 0 if not available

	Condition   Condition
	Description string

	ObservedAt time.Time
}
