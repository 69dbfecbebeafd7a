package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/histoires/internal/transcript"
)

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exp
}

func TestCorrelationID(t *testing.T) {
	tp, _ := newTestTracerProvider(t)

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID without span = %q, want empty", got)
	}

	seen := make(map[string]bool)
	for range 20 {
		ctx, span := tp.Tracer("test").Start(context.Background(), "math.answer")
		cid := CorrelationID(ctx)
		span.End()
		if len(cid) != 32 || strings.Trim(cid, "0123456789abcdef") != "" {
			t.Fatalf("correlation ID %q is not a 32-digit hex trace ID", cid)
		}
		if seen[cid] {
			t.Fatalf("duplicate correlation ID %s", cid)
		}
		seen[cid] = true
	}
}

func TestStartSpan_UsesGlobalProvider(t *testing.T) {
	tp, exp := newTestTracerProvider(t)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), "story.respond")
	if CorrelationID(ctx) == "" {
		t.Error("StartSpan returned a context without trace ID")
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "story.respond" {
		t.Fatalf("recorded spans = %v, want one story.respond", spans)
	}
}

func TestLogger(t *testing.T) {
	tp, _ := newTestTracerProvider(t)

	tests := []struct {
		name     string
		withSpan bool
		want     bool
	}{
		{name: "inside a span", withSpan: true, want: true},
		{name: "no span", withSpan: false, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			prev := slog.Default()
			slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
			t.Cleanup(func() { slog.SetDefault(prev) })

			ctx := context.Background()
			if tt.withSpan {
				var span trace.Span
				ctx, span = tp.Tracer("test").Start(ctx, "story.respond")
				defer span.End()
			}
			Logger(ctx).Info("réponse reçue")

			out := buf.String()
			for _, key := range []string{"trace_id=", "span_id="} {
				if got := strings.Contains(out, key); got != tt.want {
					t.Errorf("log %q contains %s = %v, want %v", out, key, got, tt.want)
				}
			}
		})
	}
}

func TestAnnotateDecision(t *testing.T) {
	tp, exp := newTestTracerProvider(t)

	_, span := tp.Tracer("test").Start(context.Background(), "story.respond")
	AnnotateDecision(span, transcript.New().Evaluate("le chat dort", "le chat dort", "", false))
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	got := make(map[string]string)
	for _, a := range spans[0].Attributes {
		got[string(a.Key)] = a.Value.Emit()
	}
	want := map[string]string{
		"match.kind":       "sentence",
		"match.spoken_key": "leSatdort",
		"match.rule":       "similarity",
		"match.matched":    "true",
		"match.similarity": "100",
		"match.threshold":  "75",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, got[k], v)
		}
	}
}
