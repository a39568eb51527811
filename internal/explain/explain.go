// Package explain phrases a finished risk assessment as text. The narrative
// comes from the text-generation service when available and from the numbers
// otherwise; the assessment itself is never modified.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/flightrisk/flightrisk/internal/featureflags"
	"github.com/flightrisk/flightrisk/internal/history"
	"github.com/flightrisk/flightrisk/internal/risk"
	"github.com/flightrisk/flightrisk/internal/textgen"
)

// Source identifies where an explanation came from.
type Source string

const (
	SourceNarrative     Source = "narrative"
	SourceDeterministic Source = "deterministic"
)

// Parsed is a validated narrative reply.
type Parsed struct {
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
	Explanation     string   `json:"explanation"`
}

// ParseError describes a narrative reply that could not be used.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "explanation parse failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "explanation parse failed: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse extracts and validates the JSON object in a narrative reply.
func Parse(text string) (*Parsed, error) {
	raw, err := textgen.ExtractJSON(text)
	if err != nil {
		return nil, &ParseError{Reason: "no JSON object", Err: err}
	}

	var p Parsed
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, &ParseError{Reason: "malformed JSON", Err: err}
	}

	p.Explanation = strings.TrimSpace(p.Explanation)
	if p.Explanation == "" {
		return nil, &ParseError{Reason: "missing explanation"}
	}
	p.RiskFactors = clean(p.RiskFactors, risk.MaxRiskFactors)
	p.Recommendations = clean(p.Recommendations, risk.MaxRecommendations)
	return &p, nil
}

func clean(lines []string, limit int) []string {
	var out []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" && len(out) < limit {
			out = append(out, l)
		}
	}
	return out
}

// Outcome is the text attached to an assessment.
type Outcome struct {
	Explanation     string
	RiskFactors     []string
	Recommendations []string
	Source          Source

	// Err is set when the narrative path failed and the deterministic text was used.
	Err error
}

// Config holds configuration for the explanation adapter.
type Config struct {
	// Generator produces the narrative (optional).
	// Nil means every explanation is deterministic.
	Generator textgen.Generator

	// FeatureFlags can switch narratives off (optional).
	FeatureFlags *featureflags.Service

	// Timeout bounds the narrative call (default: 10 seconds).
	Timeout time.Duration

	// Logger for adapter operations.
	Logger zerolog.Logger
}

// Adapter produces explanations for assessments.
type Adapter struct {
	generator    textgen.Generator
	featureFlags *featureflags.Service
	timeout      time.Duration
	logger       zerolog.Logger
}

// NewAdapter creates a new explanation adapter.
func NewAdapter(cfg Config) *Adapter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Adapter{
		generator:    cfg.Generator,
		featureFlags: cfg.FeatureFlags,
		timeout:      timeout,
		logger:       cfg.Logger,
	}
}

// Explain returns a narrative outcome, or the deterministic one on any failure.
func (a *Adapter) Explain(ctx context.Context, assessment risk.Assessment) Outcome {
	if a.generator == nil {
		return Deterministic(assessment)
	}
	if a.featureFlags.NarrativeExplanationsDisabled(ctx) {
		a.logger.Debug().Msg("narrative explanations disabled by feature flag")
		return Deterministic(assessment)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.Generate(callCtx, Prompt(assessment))
	if err != nil {
		a.logger.Warn().Err(err).Msg("narrative explanation failed, using deterministic text")
		return fallback(assessment, err)
	}

	parsed, err := Parse(text)
	if err != nil {
		a.logger.Warn().Err(err).Int("response_length", len(text)).Msg("narrative explanation unusable, using deterministic text")
		return fallback(assessment, err)
	}

	out := Outcome{
		Explanation:     parsed.Explanation,
		RiskFactors:     parsed.RiskFactors,
		Recommendations: parsed.Recommendations,
		Source:          SourceNarrative,
	}
	if len(out.RiskFactors) == 0 {
		out.RiskFactors = copyLines(assessment.RiskFactors)
	}
	if len(out.Recommendations) == 0 {
		out.Recommendations = copyLines(assessment.Recommendations)
	}
	return out
}

func fallback(a risk.Assessment, err error) Outcome {
	out := Deterministic(a)
	out.Err = err
	return out
}

// Deterministic builds the explanation from the numbers alone.
func Deterministic(a risk.Assessment) Outcome {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall disruption risk is %s (%d/100). ", a.Level, a.Score)
	fmt.Fprintf(&b, "Estimated delay probability is %s and cancellation probability is %s.",
		a.DelayProbability, a.CancellationProbability)

	if a.Historical.Reliability == history.ReliabilityUnavailable || a.Historical.TotalFlights == 0 {
		b.WriteString(" No historical performance data was found, so the estimates use typical rates for this risk level.")
	} else {
		fmt.Fprintf(&b, " Based on %d past flights, %.0f%% departed on time.",
			a.Historical.TotalFlights, a.Historical.OnTimePercent)
	}

	if a.SafetyOverride {
		b.WriteString(" The rating was raised to high because a tight connection coincides with a high expected delay.")
	}

	if len(a.RiskFactors) > 0 && a.RiskFactors[0] != risk.NoFactorsLine {
		fmt.Fprintf(&b, " The main factor is: %s.", strings.TrimSuffix(a.RiskFactors[0], "."))
	}

	return Outcome{
		Explanation:     b.String(),
		RiskFactors:     copyLines(a.RiskFactors),
		Recommendations: copyLines(a.Recommendations),
		Source:          SourceDeterministic,
	}
}

// Prompt renders the assessment for the text-generation service.
func Prompt(a risk.Assessment) string {
	var b strings.Builder
	b.WriteString("Explain this flight disruption risk assessment to a traveller in two or three sentences.\n")
	b.WriteString("Do not change any numbers. Reply with JSON only, shaped as ")
	b.WriteString("{\"explanation\":\"...\",\"risk_factors\":[\"...\"],\"recommendations\":[\"...\"]} ")
	b.WriteString("with at most four risk factors and four recommendations.\n\n")

	fmt.Fprintf(&b, "Risk score: %d/100 (%s)\n", a.Score, a.Level)
	fmt.Fprintf(&b, "Delay probability: %s\n", a.DelayProbability)
	fmt.Fprintf(&b, "Cancellation probability: %s\n", a.CancellationProbability)
	fmt.Fprintf(&b, "Historical data reliability: %s\n", a.Historical.Reliability)
	if a.Historical.TotalFlights > 0 {
		fmt.Fprintf(&b, "On-time performance: %.0f%% over %d flights\n", a.Historical.OnTimePercent, a.Historical.TotalFlights)
	}
	for _, c := range a.Connections {
		fmt.Fprintf(&b, "Connection: %s, %d minutes\n", c.AirportCode, c.DurationMinutes)
	}
	for _, f := range a.RiskFactors {
		fmt.Fprintf(&b, "Factor: %s\n", f)
	}
	for _, f := range a.SeasonalFactors {
		fmt.Fprintf(&b, "Seasonal: %s\n", f)
	}
	return b.String()
}

func copyLines(s []string) []string {
	return append([]string(nil), s...)
}
