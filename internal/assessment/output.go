package assessment

import (
	"time"

	"github.com/flightrisk/flightrisk/internal/explain"
	"github.com/flightrisk/flightrisk/internal/history"
	"github.com/flightrisk/flightrisk/internal/risk"
)

// Output is the JSON assessment returned to callers.
type Output struct {
	AssessmentID            string             `json:"assessment_id"`
	Flight                  FlightOutput       `json:"flight"`
	OverallRiskScore        int                `json:"overall_risk_score"`
	RiskLevel               risk.Level         `json:"risk_level"`
	DelayProbability        string             `json:"delay_probability"`
	CancellationProbability string             `json:"cancellation_probability"`
	KeyRiskFactors          []string           `json:"key_risk_factors"`
	Recommendations         []string           `json:"recommendations"`
	Explanation             string             `json:"explanation"`
	ExplanationSource       explain.Source     `json:"explanation_source"`
	HistoricalPerformance   HistoricalOutput   `json:"historical_performance"`
	SeasonalFactors         []string           `json:"seasonal_factors"`
	SafetyOverride          bool               `json:"safety_override"`
	Connections             []ConnectionOutput `json:"connections,omitempty"`
	DegradedSignals         []string           `json:"degraded_signals,omitempty"`
	Cached                  bool               `json:"cached"`
	ComputedAt              time.Time          `json:"computed_at"`
}

// FlightOutput echoes the normalized flight.
type FlightOutput struct {
	AirlineCode  string `json:"airline_code"`
	FlightNumber string `json:"flight_number"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Date         string `json:"date"`
}

// HistoricalOutput is the historical performance block. Reliability is
// "unavailable" when no history exists.
type HistoricalOutput struct {
	TotalFlightsAnalyzed int                 `json:"total_flights_analyzed"`
	CancellationRate     float64             `json:"cancellation_rate"`
	AverageDelay         float64             `json:"average_delay"`
	OnTimePerformance    float64             `json:"on_time_performance"`
	DataReliability      history.Reliability `json:"data_reliability"`
}

// ConnectionOutput is the per-layover analysis.
type ConnectionOutput struct {
	AirportCode       string   `json:"airport_code"`
	DurationMinutes   int      `json:"duration_minutes"`
	DurationEstimated bool     `json:"duration_estimated"`
	ConnectionClass   string   `json:"connection_class"`
	WeatherRisk       string   `json:"weather_risk,omitempty"`
	WeatherError      string   `json:"weather_error,omitempty"`
	Complexity        string   `json:"complexity,omitempty"`
	ComplexityError   string   `json:"complexity_error,omitempty"`
	FeasibilityLevel  string   `json:"feasibility_level,omitempty"`
	FeasibilityScore  int      `json:"feasibility_score"`
	Feasibility       string   `json:"feasibility,omitempty"`
	MinimumConnection int      `json:"minimum_connection_minutes,omitempty"`
	FeasibilitySource string   `json:"feasibility_source,omitempty"`
	RiskFactors       []string `json:"risk_factors,omitempty"`
}

// NewOutput renders an entry.
func NewOutput(e *Entry, cached bool) *Output {
	a := e.Assessment
	x := e.Explanation

	out := &Output{
		AssessmentID: e.ID,
		Flight: FlightOutput{
			AirlineCode:  e.Leg.AirlineCode,
			FlightNumber: e.Leg.FlightNumber,
			Origin:       e.Leg.Origin,
			Destination:  e.Leg.Destination,
			Date:         e.Leg.Date.Format(DateLayout),
		},
		OverallRiskScore:        a.Score,
		RiskLevel:               a.Level,
		DelayProbability:        a.DelayProbability.String(),
		CancellationProbability: a.CancellationProbability.String(),
		KeyRiskFactors:          nonNil(x.RiskFactors),
		Recommendations:         nonNil(x.Recommendations),
		Explanation:             x.Explanation,
		ExplanationSource:       x.Source,
		HistoricalPerformance: HistoricalOutput{
			TotalFlightsAnalyzed: a.Historical.TotalFlights,
			CancellationRate:     round1(a.Historical.CancellationRate),
			AverageDelay:         round1(a.Historical.AvgDelayMinutes),
			OnTimePerformance:    round1(a.Historical.OnTimePercent),
			DataReliability:      a.Historical.Reliability,
		},
		SeasonalFactors: nonNil(a.SeasonalFactors),
		SafetyOverride:  a.SafetyOverride,
		DegradedSignals: a.Components.Degraded,
		Cached:          cached,
		ComputedAt:      e.ComputedAt,
	}
	if out.HistoricalPerformance.DataReliability == "" {
		out.HistoricalPerformance.DataReliability = history.ReliabilityUnavailable
	}

	for _, c := range a.Connections {
		co := ConnectionOutput{
			AirportCode:       c.AirportCode,
			DurationMinutes:   c.DurationMinutes,
			DurationEstimated: c.DurationEstimated,
			ConnectionClass:   string(c.Class()),
			WeatherError:      c.WeatherErr,
			ComplexityError:   c.ComplexityErr,
		}
		if c.Weather != nil {
			co.WeatherRisk = string(c.Weather.Level)
		}
		if c.Complexity != nil {
			co.Complexity = string(c.Complexity.Level)
		}
		if f := c.Feasibility; f != nil {
			co.FeasibilityLevel = string(f.Level)
			co.FeasibilityScore = f.Score
			co.Feasibility = f.Description
			co.MinimumConnection = f.MinimumConnectionMinutes
			co.FeasibilitySource = f.Source
			co.RiskFactors = f.RiskFactors
		}
		out.Connections = append(out.Connections, co)
	}

	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
