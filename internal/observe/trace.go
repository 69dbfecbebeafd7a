package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/histoires/internal/transcript"
)

const tracerName = "github.com/MrWong99/histoires"

// Tracer returns the package-level [trace.Tracer], backed by the globally
// registered [trace.TracerProvider].
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a new span and returns the updated context and span. The
// caller must call span.End() when done.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// CorrelationID extracts the trace ID from the span context in ctx, or ""
// when there is no active span.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default [slog.Logger] enriched with trace_id and span_id
// from ctx, when a span is active.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}

// AnnotateDecision attaches a match decision to span as attributes.
func AnnotateDecision(span trace.Span, d transcript.Decision) {
	span.SetAttributes(
		attribute.String("match.kind", string(d.Kind)),
		attribute.String("match.spoken_key", d.SpokenKey),
		attribute.String("match.expected_key", d.ExpectedKey),
		attribute.Float64("match.similarity", d.Similarity),
		attribute.Int("match.threshold", d.Threshold),
		attribute.String("match.rule", string(d.Rule)),
		attribute.Bool("match.matched", d.Matched),
	)
}
