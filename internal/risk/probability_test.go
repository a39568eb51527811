package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/history"
	"github.com/flightrisk/flightrisk/internal/risk"
)

func TestProbabilityRange_String(t *testing.T) {
	tests := []struct {
		r    risk.ProbabilityRange
		want string
	}{
		{risk.ProbabilityRange{Min: 4, Max: 6}, "4-6%"},
		{risk.ProbabilityRange{Min: 7.6, Max: 11.4}, "8-11%"},
		{risk.ProbabilityRange{Min: 0.5, Max: 2, Decimals: 1}, "0.5-2%"},
		{risk.ProbabilityRange{Min: 0.84, Max: 1.26, Decimals: 1}, "0.8-1.3%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.r.String())
	}

	text, err := risk.ProbabilityRange{Min: 40, Max: 60}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "40-60%", string(text))
}

func TestEstimateProbabilities_StaticTable(t *testing.T) {
	tests := []struct {
		level        risk.Level
		delay        string
		cancellation string
	}{
		{risk.LevelLow, "5-15%", "0.5-2%"},
		{risk.LevelMedium, "20-35%", "2-6%"},
		{risk.LevelHigh, "40-60%", "6-12%"},
	}
	for _, tt := range tests {
		p, err := risk.EstimateProbabilities(nil, risk.Components{}, tt.level)
		require.NoError(t, err)
		assert.False(t, p.FromHistory)
		assert.Equal(t, tt.delay, p.Delay.String())
		assert.Equal(t, tt.cancellation, p.Cancellation.String())
	}
}

func TestEstimateProbabilities_FromHistory(t *testing.T) {
	perf := &history.Performance{TotalFlights: 100, OnTimePercent: 80, CancellationRate: 2}
	// Neutral modifiers: each term is zero.
	c := risk.Components{Weather: 10, Complexity: 6.5, Connections: 7.5}

	p, err := risk.EstimateProbabilities(perf, c, risk.LevelLow)
	require.NoError(t, err)

	assert.True(t, p.FromHistory)
	assert.InDelta(t, 16.0, p.Delay.Min, 1e-9)
	assert.InDelta(t, 24.0, p.Delay.Max, 1e-9)
	assert.InDelta(t, 1.6, p.Cancellation.Min, 1e-9)
	assert.InDelta(t, 2.4, p.Cancellation.Max, 1e-9)
	assert.InDelta(t, 24.0, p.DelayUpperUnclamped, 1e-9)
}

func TestEstimateProbabilities_Floors(t *testing.T) {
	perf := &history.Performance{TotalFlights: 100, OnTimePercent: 99, CancellationRate: 0}
	c := risk.Components{Weather: 5, Complexity: 3}

	p, err := risk.EstimateProbabilities(perf, c, risk.LevelLow)
	require.NoError(t, err)

	// Base delay is floored at 5 and the modifier at 0.5.
	assert.InDelta(t, 2.0, p.Delay.Min, 1e-9)
	assert.InDelta(t, 3.0, p.Delay.Max, 1e-9)
	assert.InDelta(t, 0.1, p.Cancellation.Min, 1e-9)
	assert.InDelta(t, 0.1, p.Cancellation.Max, 1e-9)
}

func TestEstimateProbabilities_NegativeModifierIsFloored(t *testing.T) {
	perf := &history.Performance{TotalFlights: 200, OnTimePercent: 90, CancellationRate: 1}
	// Low weather and complexity at both ends of a direct flight.
	c := risk.Components{Weather: 5, Complexity: 3, Connections: 0}

	raw := 1 + (c.Weather-10)/20 + (c.Complexity-6.5)/13.5 + (c.Connections-7.5)/15
	require.Negative(t, raw)

	p, err := risk.EstimateProbabilities(perf, c, risk.LevelLow)
	require.NoError(t, err)

	// Half the observed base rather than the 1% and 0.1% output floors.
	assert.Equal(t, "4-6%", p.Delay.String())
	assert.Equal(t, "0.4-0.6%", p.Cancellation.String())
	assert.InDelta(t, 6.0, p.DelayUpperUnclamped, 1e-9)
}

func TestEstimateProbabilities_ClampsPublishedRange(t *testing.T) {
	perf := &history.Performance{TotalFlights: 100, OnTimePercent: 10, CancellationRate: 30}
	c := risk.Components{Weather: 30, Complexity: 20, Connections: 300}

	p, err := risk.EstimateProbabilities(perf, c, risk.LevelHigh)
	require.NoError(t, err)

	assert.Equal(t, 100.0, p.Delay.Max)
	assert.Equal(t, 100.0, p.Cancellation.Max)
	assert.Greater(t, p.DelayUpperUnclamped, 100.0)
}
