// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics, tracing helpers, and HTTP middleware that ties them
// together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported in
// Prometheus format by [InitProvider]. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/histoires/internal/transcript"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/MrWong99/histoires"

// Outcome attribute values.
const (
	OutcomeMatched = "matched"
	OutcomeMissed  = "missed"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// MatchAttempts counts transcript evaluations. Attributes: kind, rule,
	// outcome.
	MatchAttempts metric.Int64Counter

	// MatchSimilarity records the best phonetic similarity of each
	// evaluation, in percent. Attribute: kind.
	MatchSimilarity metric.Float64Histogram

	// StorySessions counts started story sessions. Attribute: story.
	StorySessions metric.Int64Counter

	// StoryChoices counts choices taken. Attributes: story, via (voice|button).
	StoryChoices metric.Int64Counter

	// MathAnswers counts judged math answers. Attributes: operation, level,
	// result (correct|wrong|unheard).
	MathAnswers metric.Int64Counter

	// ActiveSessions tracks live WebSocket sessions. Attribute: mode.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	// method, path.
	HTTPRequestDuration metric.Float64Histogram
}

// similarityBuckets splits the 0..100 similarity range in tenths.
var similarityBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 75, 80, 90, 100}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.MatchAttempts, err = m.Int64Counter("histoires.match.attempts",
		metric.WithDescription("Transcript evaluations by kind, deciding rule and outcome."),
	); err != nil {
		return nil, err
	}
	if met.MatchSimilarity, err = m.Float64Histogram("histoires.match.similarity",
		metric.WithDescription("Best phonetic similarity of each transcript evaluation."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(similarityBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StorySessions, err = m.Int64Counter("histoires.story.sessions",
		metric.WithDescription("Story sessions started by story."),
	); err != nil {
		return nil, err
	}
	if met.StoryChoices, err = m.Int64Counter("histoires.story.choices",
		metric.WithDescription("Story choices taken by story and input method."),
	); err != nil {
		return nil, err
	}
	if met.MathAnswers, err = m.Int64Counter("histoires.math.answers",
		metric.WithDescription("Math answers judged by operation, level and result."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("histoires.active_sessions",
		metric.WithDescription("Number of live WebSocket sessions by mode."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("histoires.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDecision records one transcript evaluation.
func (m *Metrics) RecordDecision(ctx context.Context, d transcript.Decision) {
	outcome := OutcomeMissed
	if d.Matched {
		outcome = OutcomeMatched
	}
	rule := string(d.Rule)
	if rule == "" {
		rule = "none"
	}
	m.MatchAttempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", string(d.Kind)),
			attribute.String("rule", rule),
			attribute.String("outcome", outcome),
		),
	)
	if d.Rule != transcript.RuleEmpty {
		m.MatchSimilarity.Record(ctx, d.Similarity,
			metric.WithAttributes(attribute.String("kind", string(d.Kind))),
		)
	}
}

// MatchObserver adapts [Metrics.RecordDecision] for [transcript.WithObserver].
func (m *Metrics) MatchObserver() func(transcript.Decision) {
	return func(d transcript.Decision) {
		m.RecordDecision(context.Background(), d)
	}
}

// RecordStoryChoice records a choice taken in story, via "voice" or "button".
func (m *Metrics) RecordStoryChoice(ctx context.Context, story, via string) {
	m.StoryChoices.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("story", story),
			attribute.String("via", via),
		),
	)
}

// RecordMathAnswer records a judged math answer.
func (m *Metrics) RecordMathAnswer(ctx context.Context, operation, level, result string) {
	m.MathAnswers.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("level", level),
			attribute.String("result", result),
		),
	)
}

// SessionStarted increments the live session gauge for mode and returns a
// function that decrements it.
func (m *Metrics) SessionStarted(ctx context.Context, mode string) (done func()) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.ActiveSessions.Add(ctx, 1, attrs)
	return func() { m.ActiveSessions.Add(context.Background(), -1, attrs) }
}
