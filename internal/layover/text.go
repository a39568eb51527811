package layover

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flightrisk/flightrisk/internal/airport"
	"github.com/flightrisk/flightrisk/internal/textgen"
)

// TextAnalyzer asks the text-generation service for verdicts on all layovers at once.
type TextAnalyzer struct {
	generator textgen.Generator
}

// NewTextAnalyzer creates a feasibility analyzer backed by a text generator.
func NewTextAnalyzer(generator textgen.Generator) *TextAnalyzer {
	return &TextAnalyzer{generator: generator}
}

// Name returns the analyzer name.
func (t *TextAnalyzer) Name() string {
	return "textgen"
}

type batchReply struct {
	Layovers []struct {
		Airport                  string   `json:"airport"`
		RiskLevel                string   `json:"risk_level"`
		RiskScore                float64  `json:"risk_score"`
		Description              string   `json:"description"`
		MinimumConnectionMinutes int      `json:"minimum_connection_minutes"`
		Recommendations          []string `json:"recommendations"`
		RiskFactors              []string `json:"risk_factors"`
	} `json:"layovers"`
}

// AnalyzeBatch sends one prompt covering every layover. Entries with an
// unknown airport or level are dropped so they receive the fallback verdict.
func (t *TextAnalyzer) AnalyzeBatch(ctx context.Context, conns []Connection) (map[string]*Feasibility, error) {
	text, err := t.generator.Generate(ctx, BatchPrompt(conns))
	if err != nil {
		return nil, err
	}

	raw, err := textgen.ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var reply batchReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("decoding layover analysis: %w", err)
	}

	wanted := make(map[string]bool, len(conns))
	for _, c := range conns {
		wanted[airport.NormalizeCode(c.AirportCode)] = true
	}

	out := make(map[string]*Feasibility, len(reply.Layovers))
	for _, l := range reply.Layovers {
		code := airport.NormalizeCode(l.Airport)
		level := Level(strings.ToLower(strings.TrimSpace(l.RiskLevel)))
		if !wanted[code] || !level.Valid() {
			continue
		}
		out[code] = &Feasibility{
			Level:                    level,
			Score:                    min(max(int(l.RiskScore+0.5), 0), 100),
			Description:              strings.TrimSpace(l.Description),
			MinimumConnectionMinutes: l.MinimumConnectionMinutes,
			Recommendations:          l.Recommendations,
			RiskFactors:              l.RiskFactors,
			Source:                   t.Name(),
		}
	}
	return out, nil
}

// BatchPrompt renders the layover set for the text-generation service.
func BatchPrompt(conns []Connection) string {
	var b strings.Builder
	b.WriteString("Assess whether each flight connection below is feasible.\n")
	b.WriteString("Reply with JSON only, shaped as {\"layovers\":[{\"airport\":\"ORD\",\"risk_level\":\"low|medium|high\",")
	b.WriteString("\"risk_score\":0-100,\"description\":\"...\",\"minimum_connection_minutes\":90,")
	b.WriteString("\"recommendations\":[\"...\"],\"risk_factors\":[\"...\"]}]}.\n\n")

	for _, c := range conns {
		code := airport.NormalizeCode(c.AirportCode)
		fmt.Fprintf(&b, "- %s: %d minute layover", code, c.DurationMinutes)
		if c.DurationEstimated {
			b.WriteString(" (estimated)")
		}
		fmt.Fprintf(&b, ", airport tier %s", airport.TierFor(code))
		if c.Weather != nil {
			fmt.Fprintf(&b, ", weather risk %s", c.Weather.Level)
		}
		if c.Complexity != nil {
			fmt.Fprintf(&b, ", complexity %s", c.Complexity.Level)
		}
		b.WriteString("\n")
	}
	return b.String()
}
