package weather

import (
	"context"
	"time"

	"github.com/flightrisk/flightrisk/internal/airport"
)

// ClimatologyProvider estimates weather risk from seasonal norms. It never
// calls out, so it serves as the offline default and the fallback when no
// forecast API is configured.
type ClimatologyProvider struct {
	overrides map[string]RiskLevel
}

// NewClimatologyProvider returns a provider backed by built-in regional norms.
func NewClimatologyProvider() *ClimatologyProvider {
	return &ClimatologyProvider{overrides: make(map[string]RiskLevel)}
}

// WithOverride pins the risk level for an airport, ignoring the date.
func (p *ClimatologyProvider) WithOverride(code string, level RiskLevel) *ClimatologyProvider {
	p.overrides[airport.NormalizeCode(code)] = level
	return p
}

// Name returns the provider name.
func (p *ClimatologyProvider) Name() string {
	return "climatology"
}

// GetWeatherRisk returns the typical weather risk for the airport's region and month.
func (p *ClimatologyProvider) GetWeatherRisk(_ context.Context, code string, date time.Time) (*Risk, error) {
	code = airport.NormalizeCode(code)
	if code == "" {
		return nil, ErrNoDataForAirport
	}

	level, desc := p.lookup(code, date.Month())
	return &Risk{
		Airport:     code,
		Date:        date,
		Level:       level,
		Description: desc,
		Score:       level.Score(),
		Source:      p.Name(),
	}, nil
}

func (p *ClimatologyProvider) lookup(code string, month time.Month) (RiskLevel, string) {
	if level, ok := p.overrides[code]; ok {
		return level, "Configured weather risk"
	}

	if _, ok := winterStorm[code]; ok && (month == time.December || month <= time.March) {
		return RiskMedium, "Winter storms and de-icing are common this time of year"
	}
	if _, ok := summerConvective[code]; ok && month >= time.June && month <= time.August {
		return RiskMedium, "Afternoon thunderstorms are common this time of year"
	}
	if _, ok := hurricaneZone[code]; ok && month >= time.August && month <= time.October {
		return RiskMedium, "Peak tropical storm season"
	}
	if _, ok := fogProne[code]; ok && (month >= time.November || month <= time.February) {
		return RiskMedium, "Seasonal fog frequently reduces arrival rates"
	}
	return RiskLow, "Seasonal conditions are typically benign"
}

var (
	winterStorm = setOf(
		"ORD", "MDW", "DEN", "MSP", "DTW", "BOS", "JFK", "LGA", "EWR", "PHL",
		"IAD", "DCA", "BWI", "SLC", "CLE", "PIT", "BUF", "YYZ", "YUL", "ANC",
		"MUC", "VIE", "ZRH", "CPH", "OSL", "ARN", "IST", "PEK", "ICN",
	)
	summerConvective = setOf(
		"ATL", "DFW", "IAH", "ORD", "DEN", "CLT", "MCO", "TPA", "MIA", "FLL",
		"EWR", "JFK", "LGA", "PHL", "IAD", "DCA", "BWI", "BNA", "AUS", "SAT",
		"MSY", "STL", "MCI", "IND", "CMH", "PHX", "LAS",
	)
	hurricaneZone = setOf(
		"MIA", "FLL", "MCO", "TPA", "IAH", "MSY", "CUN", "HNL", "HKG", "TPE", "MNL",
	)
	fogProne = setOf(
		"SFO", "LHR", "LGW", "AMS", "FRA", "CDG", "DEL", "YVR", "SEA", "PDX",
	)
)

func setOf(codes ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}
