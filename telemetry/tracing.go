// Package telemetry wraps OpenTelemetry tracing for task store operations.
//
// Nothing is exported by default: without a configured TracerProvider the
// global otel provider is a no-op and spans cost almost nothing.
package telemetry

import (
	"context"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps an OpenTelemetry tracer with task-specific helpers.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, task titles are recorded on spans
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a tracer from the global otel provider.
func NewTracer(name string, debug bool) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
		debug:  debug,
	}
}

// NewTracerWithProvider creates a tracer from an explicit provider.
func NewTracerWithProvider(tp trace.TracerProvider, name string, debug bool) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(name),
		debug:  debug,
	}
}

// Debug returns whether debug mode is enabled.
func (t *Tracer) Debug() bool {
	return t.debug
}

// TaskSpanOptions describes the task a span operated on.
type TaskSpanOptions struct {
	TaskID string
	Status string
	Title  string // Only included if debug=true
}

// StartTaskSpan starts an internal span named "tasks.<op>".
func (t *Tracer) StartTaskSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := t.tracer.Start(ctx, "tasks."+op, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("tasks.op", op))
	return ctx, span
}

// EndTaskSpan records attributes and outcome, then ends the span.
func (t *Tracer) EndTaskSpan(span trace.Span, opts TaskSpanOptions, err error) {
	var attrs []attribute.KeyValue
	if opts.TaskID != "" {
		attrs = append(attrs, attribute.String("task.id", opts.TaskID))
	}
	if opts.Status != "" {
		attrs = append(attrs, attribute.String("task.status", opts.Status))
	}
	if t.debug && opts.Title != "" {
		attrs = append(attrs, attribute.String("task.title", truncate(opts.Title, 200)))
	}
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
