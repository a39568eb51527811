package layover_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightrisk/flightrisk/internal/layover"
	"github.com/flightrisk/flightrisk/internal/textgen"
	"github.com/flightrisk/flightrisk/internal/weather"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestTextAnalyzer_ParsesFencedReply(t *testing.T) {
	gen := &stubGenerator{text: "Here you go:\n```json\n" + `{"layovers":[
		{"airport":"ord","risk_level":"High","risk_score":81.6,"description":" Tight at ORD ","minimum_connection_minutes":90,
		 "recommendations":["Rebook"],"risk_factors":["Terminal change"]},
		{"airport":"XXX","risk_level":"low","risk_score":5},
		{"airport":"DEN","risk_level":"catastrophic","risk_score":99},
		{"airport":"ATL","risk_level":"low","risk_score":-4}
	]}` + "\n```"}

	conns := []layover.Connection{
		{AirportCode: "ORD", DurationMinutes: 55, Weather: &weather.Risk{Level: weather.RiskMedium}},
		{AirportCode: "DEN", DurationMinutes: 120},
		{AirportCode: "ATL", DurationMinutes: 200, DurationEstimated: true},
	}

	verdicts, err := layover.NewTextAnalyzer(gen).AnalyzeBatch(context.Background(), conns)
	require.NoError(t, err)
	require.Len(t, verdicts, 2)

	ord := verdicts["ORD"]
	assert.Equal(t, layover.LevelHigh, ord.Level)
	assert.Equal(t, 82, ord.Score)
	assert.Equal(t, "Tight at ORD", ord.Description)
	assert.Equal(t, 90, ord.MinimumConnectionMinutes)
	assert.Equal(t, "textgen", ord.Source)

	assert.Equal(t, 0, verdicts["ATL"].Score)
	assert.NotContains(t, verdicts, "DEN")
	assert.NotContains(t, verdicts, "XXX")

	assert.Contains(t, gen.prompt, "- ORD: 55 minute layover, airport tier major_hub, weather risk medium")
	assert.Contains(t, gen.prompt, "- ATL: 200 minute layover (estimated)")
}

func TestTextAnalyzer_Errors(t *testing.T) {
	conns := []layover.Connection{{AirportCode: "ORD", DurationMinutes: 55}}

	t.Run("generator error", func(t *testing.T) {
		_, err := layover.NewTextAnalyzer(&stubGenerator{err: textgen.ErrNotConfigured}).AnalyzeBatch(context.Background(), conns)
		assert.True(t, errors.Is(err, textgen.ErrNotConfigured))
	})

	t.Run("no json", func(t *testing.T) {
		_, err := layover.NewTextAnalyzer(&stubGenerator{text: "I cannot help with that"}).AnalyzeBatch(context.Background(), conns)
		assert.True(t, errors.Is(err, textgen.ErrNoJSON))
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := layover.NewTextAnalyzer(&stubGenerator{text: `{"layovers": [oops]}`}).AnalyzeBatch(context.Background(), conns)
		assert.Error(t, err)
	})
}
