package assessment

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/flightrisk/flightrisk/internal/telemetry"
)

const meterName = "github.com/flightrisk/flightrisk/internal/assessment"

// Metrics records assessment outcomes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	assessments metric.Int64Counter
	scores      metric.Int64Histogram
	failures    metric.Int64Counter
}

// NewMetrics creates assessment metrics.
func NewMetrics() (*Metrics, error) {
	meter := telemetry.Meter(meterName)

	assessments, err := meter.Int64Counter(
		"assessment.total",
		metric.WithDescription("Number of risk assessments served"),
		metric.WithUnit("{assessment}"),
	)
	if err != nil {
		return nil, err
	}

	scores, err := meter.Int64Histogram(
		"assessment.score",
		metric.WithDescription("Distribution of computed risk scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 35, 50, 70, 85, 100),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"assessment.failures",
		metric.WithDescription("Number of assessments that failed to compute"),
		metric.WithUnit("{assessment}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{assessments: assessments, scores: scores, failures: failures}, nil
}

func (m *Metrics) recordAssessment(e *Entry, cached bool) {
	if m == nil {
		return
	}
	ctx := context.TODO()
	attrs := metric.WithAttributes(
		attribute.String("risk.level", string(e.Assessment.Level)),
		attribute.Bool("cached", cached),
		attribute.Bool("safety_override", e.Assessment.SafetyOverride),
	)
	m.assessments.Add(ctx, 1, attrs)
	if !cached {
		m.scores.Record(ctx, int64(e.Assessment.Score), metric.WithAttributes(
			attribute.String("risk.level", string(e.Assessment.Level)),
		))
	}
}

func (m *Metrics) recordFailure() {
	if m == nil {
		return
	}
	m.failures.Add(context.TODO(), 1)
}
