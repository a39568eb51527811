package risk_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/history"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/risk"
	"github.com/flightrisk/flightrisk/internal/seasonal"
	"github.com/flightrisk/flightrisk/internal/weather"
)

// A Tuesday in February: winter base only.
var quietDate = time.Date(2025, time.February, 11, 0, 0, 0, 0, time.UTC)

func wx(level weather.RiskLevel) *weather.Risk {
	return &weather.Risk{Level: level, Score: level.Score()}
}

func cx(level airport.ComplexityLevel) *airport.Complexity {
	return &airport.Complexity{Level: level}
}

func directLowInputs() risk.Inputs {
	return risk.Inputs{
		Origin:                "BUF",
		Destination:           "ALB",
		OriginWeather:         wx(weather.RiskLow),
		DestinationWeather:    wx(weather.RiskLow),
		OriginComplexity:      cx(airport.ComplexityLow),
		DestinationComplexity: cx(airport.ComplexityLow),
		Seasonal:              seasonal.Calculate(quietDate),
	}
}

func goodHistory() *history.Performance {
	return &history.Performance{
		TotalFlights:     200,
		CancellationRate: 1,
		AvgDelayMinutes:  10,
		OnTimePercent:    90,
		Reliability:      history.ReliabilityHigh,
	}
}

func TestWeights_SumToOne(t *testing.T) {
	w := risk.DefaultWeights()
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.NoError(t, w.Validate())

	bad := w
	bad.Seasonal = 0.10
	assert.True(t, errors.Is(bad.Validate(), risk.ErrInvalidWeights))

	negative := w
	negative.Historical = -0.30
	negative.Connections = 0.90
	assert.True(t, errors.Is(negative.Validate(), risk.ErrInvalidWeights))
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  risk.Level
	}{
		{0, risk.LevelLow},
		{35, risk.LevelLow},
		{36, risk.LevelMedium},
		{70, risk.LevelMedium},
		{71, risk.LevelHigh},
		{100, risk.LevelHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, risk.LevelFor(tt.score), tt.score)
	}
}

func TestHistoricalScore(t *testing.T) {
	s, ok := risk.HistoricalScore(nil)
	assert.False(t, ok)
	assert.Equal(t, 25.0, s)

	s, ok = risk.HistoricalScore(history.Unavailable())
	assert.False(t, ok)
	assert.Equal(t, 25.0, s)

	s, ok = risk.HistoricalScore(&history.Performance{TotalFlights: 10, CancellationRate: 4, AvgDelayMinutes: 120})
	assert.True(t, ok)
	assert.Equal(t, 50.0, s, "both parts are capped at 25")
}

func TestDurationPenalty(t *testing.T) {
	major := airport.ThresholdsFor("ORD")
	tests := []struct {
		minutes int
		want    float64
	}{
		{0, 50},
		{44, 50},
		{45, 35},
		{89, 35},
		{90, 20},
		{134, 20},
		{135, 8},
		{239, 8},
		{240, 1},
		{480, 1},
		{481, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, risk.DurationPenalty(tt.minutes, major), tt.minutes)
	}
}

func TestConnectionPenalty_TightMajorHub(t *testing.T) {
	p := risk.ConnectionPenalty(layover.Connection{
		AirportCode:     "ord",
		DurationMinutes: 55,
		Weather:         wx(weather.RiskHigh),
		Complexity:      cx(airport.ComplexityHigh),
	})
	// 35*1.2 duration + 20*2.0 complexity + 35*2.5 missed + 25 weather
	assert.InDelta(t, 194.5, p, 1e-9)
}

func TestConnectionPenalty_MissingSignalsUseMedium(t *testing.T) {
	p := risk.ConnectionPenalty(layover.Connection{AirportCode: "BUF", DurationMinutes: 100})
	// 8 duration + 10 complexity + 15 weather
	assert.InDelta(t, 33.0, p, 1e-9)
}

func TestAggregate_DirectLowScenario(t *testing.T) {
	in := directLowInputs()
	in.Historical = goodHistory()

	res, err := risk.Aggregate(in)
	require.NoError(t, err)

	assert.Equal(t, 7, res.Score)
	assert.Equal(t, risk.LevelLow, res.Level)
	assert.LessOrEqual(t, res.Score, 35)
	assert.False(t, res.SafetyOverride)
	assert.True(t, res.Components.HistoricalAvailable)
	assert.Empty(t, res.Components.Degraded)
	assert.Zero(t, res.Components.Connections)

	require.True(t, res.Probabilities.FromHistory)
	assert.Equal(t, "4-6%", res.Probabilities.Delay.String())
	assert.Equal(t, "0.4-0.6%", res.Probabilities.Cancellation.String())
	assert.LessOrEqual(t, res.Probabilities.Delay.Max, 15.0)
}

func TestAggregate_TightMajorHubScenario(t *testing.T) {
	in := directLowInputs()
	in.Connections = []layover.Connection{{
		AirportCode:     "ORD",
		DurationMinutes: 55,
		Weather:         wx(weather.RiskHigh),
		Complexity:      cx(airport.ComplexityHigh),
	}}

	a, err := risk.Assess(in)
	require.NoError(t, err)

	assert.Equal(t, 74, a.Score)
	assert.Equal(t, risk.LevelHigh, a.Level)
	assert.False(t, a.SafetyOverride)
	assert.Equal(t, "40-60%", a.DelayProbability.String())
	assert.Equal(t, "6-12%", a.CancellationProbability.String())
	assert.Equal(t, history.ReliabilityUnavailable, a.Historical.Reliability)

	require.NotEmpty(t, a.RiskFactors)
	assert.Equal(t, "Tight 55-minute connection at ORD (under the 90-minute minimum for a major hub)", a.RiskFactors[0])
	assert.Contains(t, a.RiskFactors, "Adverse weather expected at ORD")
	assert.Contains(t, a.Recommendations, "Allow at least 90 minutes to connect at ORD or choose a later connecting flight")
	assert.LessOrEqual(t, len(a.RiskFactors), risk.MaxRiskFactors)
	assert.LessOrEqual(t, len(a.Recommendations), risk.MaxRecommendations)
}

func TestAssess_RepeatedAirportVerdictStaysWithShortLayover(t *testing.T) {
	// One verdict for ORD, written for the 40-minute layover.
	verdict := &layover.Feasibility{
		Level:       layover.LevelHigh,
		Score:       80,
		Description: "40 minutes is below the 90-minute minimum for ORD",
	}
	in := directLowInputs()
	in.Connections = []layover.Connection{
		{AirportCode: "ORD", DurationMinutes: 40, Feasibility: verdict},
		{AirportCode: "ord", DurationMinutes: 300, Feasibility: verdict},
	}

	a, err := risk.Assess(in)
	require.NoError(t, err)

	require.NotEmpty(t, a.RiskFactors)
	assert.Contains(t, a.RiskFactors[0], "Tight 40-minute connection at ORD")
	for _, f := range a.RiskFactors {
		assert.NotContains(t, f, "rated high risk")
		assert.NotContains(t, f, "300")
	}
}

func TestAssess_HighVerdictOnUntightLayover(t *testing.T) {
	in := directLowInputs()
	in.Connections = []layover.Connection{{
		AirportCode:     "ORD",
		DurationMinutes: 100,
		Feasibility: &layover.Feasibility{
			Level:       layover.LevelHigh,
			Description: "terminal change with a long walk",
		},
	}}

	a, err := risk.Assess(in)
	require.NoError(t, err)

	assert.Contains(t, a.RiskFactors, "Connection at ORD rated high risk: terminal change with a long walk")
}

func TestAggregate_Monotonicity(t *testing.T) {
	direct, err := risk.Aggregate(directLowInputs())
	require.NoError(t, err)

	in := directLowInputs()
	in.Connections = []layover.Connection{{
		AirportCode:     "JFK",
		DurationMinutes: 50,
		Weather:         wx(weather.RiskLow),
		Complexity:      cx(airport.ComplexityLow),
	}}
	connecting, err := risk.Aggregate(in)
	require.NoError(t, err)

	assert.Less(t, direct.Score, connecting.Score)
	assert.Less(t, direct.WeightedScore, connecting.WeightedScore)
}

func TestAggregate_ClampsAdversarialInputs(t *testing.T) {
	in := directLowInputs()
	in.Historical = &history.Performance{TotalFlights: 50, CancellationRate: 40, AvgDelayMinutes: 300, OnTimePercent: 5}
	for i := 0; i < 10; i++ {
		in.Connections = append(in.Connections, layover.Connection{
			AirportCode:     "JFK",
			DurationMinutes: 1,
			Weather:         wx(weather.RiskVeryHigh),
			Complexity:      cx(airport.ComplexityHigh),
		})
	}

	res, err := risk.Aggregate(in)
	require.NoError(t, err)

	assert.Greater(t, res.WeightedScore, 100.0)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, risk.LevelHigh, res.Level)
	assert.LessOrEqual(t, res.Probabilities.Delay.Max, 100.0)
	assert.LessOrEqual(t, res.Probabilities.Cancellation.Max, 100.0)
	assert.GreaterOrEqual(t, res.Probabilities.Delay.Min, 0.0)
}

func TestAggregate_NeverNegative(t *testing.T) {
	in := directLowInputs()
	in.Seasonal.Score = -10000

	res, err := risk.Aggregate(in)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, risk.LevelLow, res.Level)
}

// tightStandardConnection raises the connection modifier enough that the
// delay estimate depends mostly on the historical on-time rate.
func tightStandardConnection() []layover.Connection {
	return []layover.Connection{{
		AirportCode:     "BUF",
		DurationMinutes: 50,
		Weather:         wx(weather.RiskLow),
		Complexity:      cx(airport.ComplexityLow),
	}}
}

func TestAggregate_SafetyOverride(t *testing.T) {
	tests := []struct {
		name      string
		onTime    float64
		wantScore int
	}{
		{"severe delay estimate", 40, 75},
		{"elevated delay estimate", 85, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := directLowInputs()
			in.Historical = &history.Performance{TotalFlights: 120, CancellationRate: 1, AvgDelayMinutes: 12, OnTimePercent: tt.onTime}
			in.Connections = tightStandardConnection()

			res, err := risk.Aggregate(in)
			require.NoError(t, err)

			assert.Equal(t, risk.LevelLow, risk.LevelFor(int(math.Round(res.WeightedScore))))
			assert.True(t, res.SafetyOverride)
			assert.Equal(t, risk.LevelHigh, res.Level)
			assert.Equal(t, tt.wantScore, res.Score)
			assert.Greater(t, res.Probabilities.DelayUpperUnclamped, 80.0)
			assert.LessOrEqual(t, res.Probabilities.Delay.Max, 100.0)
		})
	}
}

func TestAggregate_NoOverrideWithoutTightConnection(t *testing.T) {
	in := directLowInputs()
	in.Historical = &history.Performance{TotalFlights: 120, CancellationRate: 1, AvgDelayMinutes: 12, OnTimePercent: 40}
	in.Connections = tightStandardConnection()
	in.Connections[0].DurationMinutes = 100

	res, err := risk.Aggregate(in)
	require.NoError(t, err)
	assert.False(t, res.SafetyOverride)
	assert.Equal(t, risk.LevelFor(res.Score), res.Level)
}

func TestAggregate_LevelIsBucketUnlessOverridden(t *testing.T) {
	variants := []func(*risk.Inputs){
		func(in *risk.Inputs) {},
		func(in *risk.Inputs) { in.Historical = goodHistory() },
		func(in *risk.Inputs) { in.OriginWeather = wx(weather.RiskVeryHigh) },
		func(in *risk.Inputs) { in.Connections = tightStandardConnection() },
		func(in *risk.Inputs) {
			in.Historical = &history.Performance{TotalFlights: 120, OnTimePercent: 30, CancellationRate: 2}
			in.Connections = tightStandardConnection()
		},
		func(in *risk.Inputs) {
			in.Connections = []layover.Connection{{AirportCode: "ATL", DurationMinutes: 20}, {AirportCode: "DFW", DurationMinutes: 30}}
		},
	}
	for i, v := range variants {
		in := directLowInputs()
		v(&in)
		res, err := risk.Aggregate(in)
		require.NoError(t, err, i)

		assert.GreaterOrEqual(t, res.Score, 0, i)
		assert.LessOrEqual(t, res.Score, 100, i)
		if res.SafetyOverride {
			assert.Equal(t, risk.LevelHigh, res.Level, i)
			assert.GreaterOrEqual(t, res.Score, 70, i)
		} else {
			assert.Equal(t, risk.LevelFor(res.Score), res.Level, i)
		}
	}
}

func TestAggregate_DegradedSignals(t *testing.T) {
	in := directLowInputs()
	in.OriginWeather = nil
	in.DestinationComplexity = nil

	res, err := risk.Aggregate(in)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, res.Components.Weather, 1e-9)
	assert.InDelta(t, 6.5, res.Components.Complexity, 1e-9)
	assert.Equal(t, []string{"origin BUF weather", "destination ALB complexity"}, res.Components.Degraded)
}

func TestAggregate_NonFiniteInputs(t *testing.T) {
	t.Run("NaN history", func(t *testing.T) {
		in := directLowInputs()
		in.Historical = &history.Performance{TotalFlights: 10, AvgDelayMinutes: math.NaN(), OnTimePercent: 80}
		_, err := risk.Aggregate(in)
		assert.True(t, errors.Is(err, risk.ErrComputation))
	})

	t.Run("infinite seasonal", func(t *testing.T) {
		in := directLowInputs()
		in.Seasonal.Score = math.Inf(1)
		_, err := risk.Aggregate(in)
		assert.True(t, errors.Is(err, risk.ErrComputation))
	})

	t.Run("assess surfaces the error", func(t *testing.T) {
		in := directLowInputs()
		in.Seasonal.Score = math.NaN()
		a, err := risk.Assess(in)
		assert.Nil(t, a)
		assert.True(t, errors.Is(err, risk.ErrComputation))
	})
}

func TestAssess_TruncatesSeasonalFactors(t *testing.T) {
	in := directLowInputs()
	in.Seasonal.Factors = []string{"a", "b", "c", "d", "e", "f", "g"}

	a, err := risk.Assess(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, a.SeasonalFactors)
}
