package layover_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/weather"
)

func TestRuleAnalyzer_Verdicts(t *testing.T) {
	conns := []layover.Connection{
		{
			AirportCode:     "ORD",
			DurationMinutes: 55,
			Weather:         &weather.Risk{Level: weather.RiskHigh},
			Complexity:      &airport.Complexity{Level: airport.ComplexityHigh},
		},
		{AirportCode: "CLT", DurationMinutes: 100},
		{AirportCode: "BUF", DurationMinutes: 180},
	}

	verdicts, err := layover.NewRuleAnalyzer().AnalyzeBatch(context.Background(), conns)
	require.NoError(t, err)
	require.Len(t, verdicts, 3)

	ord := verdicts["ORD"]
	assert.Equal(t, 90, ord.Score)
	assert.Equal(t, layover.LevelHigh, ord.Level)
	assert.Equal(t, 90, ord.MinimumConnectionMinutes)
	assert.Contains(t, ord.RiskFactors, "Connection under 90 minutes at a major hub airport")
	assert.Equal(t, "rules", ord.Source)

	clt := verdicts["CLT"]
	assert.Equal(t, 40, clt.Score)
	assert.Equal(t, layover.LevelMedium, clt.Level)
	assert.Equal(t, 75, clt.MinimumConnectionMinutes)

	buf := verdicts["BUF"]
	assert.Equal(t, 15, buf.Score)
	assert.Equal(t, layover.LevelLow, buf.Level)
	assert.Empty(t, buf.RiskFactors)
}

func TestRuleAnalyzer_UsesShortestLayoverPerAirport(t *testing.T) {
	verdicts, err := layover.NewRuleAnalyzer().AnalyzeBatch(context.Background(), []layover.Connection{
		{AirportCode: "den", DurationMinutes: 300},
		{AirportCode: "DEN", DurationMinutes: 60},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, layover.LevelHigh, verdicts["DEN"].Level)
}

func TestRuleAnalyzer_AccumulatesFactors(t *testing.T) {
	verdicts, err := layover.NewRuleAnalyzer().AnalyzeBatch(context.Background(), []layover.Connection{{
		AirportCode:       "JFK",
		DurationMinutes:   20,
		DurationEstimated: true,
		Weather:           &weather.Risk{Level: weather.RiskVeryHigh},
		Complexity:        &airport.Complexity{Level: airport.ComplexityHigh},
	}})
	require.NoError(t, err)
	assert.Equal(t, 98, verdicts["JFK"].Score)
	assert.Contains(t, verdicts["JFK"].RiskFactors, "Layover duration was estimated")
}
