// Package telemetry bridges the machine's Trace hook to OpenTelemetry. Trace
// produces a bsm.Trace that opens one span per machine step; NoopProvider is
// a TracerProvider that records nothing, for tests and minimal setups.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	bsm "github.com/statecraft/go-bsm"
)

// Trace returns a trace hook that opens a span named after the step, tagged
// with the machine id and the state identifiers involved, and ends it when
// the step completes.
func Trace(ctx context.Context, tracer trace.Tracer, machineID string) bsm.Trace {
	return func(step string, ids ...string) func(...any) {
		_, span := tracer.Start(ctx, "bsm."+step, trace.WithAttributes(
			attribute.String("bsm.machine_id", machineID),
			attribute.StringSlice("bsm.states", ids),
		))
		return func(...any) {
			span.End()
		}
	}
}

/******* noop provider *******/

var (
	noopProvider = &NoopProvider{}
	noopTracer   = &tracer{}
	noopSpan     = &span{}
	spanContext  = trace.SpanContext{}
)

// NoopProvider is a TracerProvider whose spans do nothing.
type NoopProvider struct {
	trace.TracerProvider
}

func NewProvider() *NoopProvider {
	return noopProvider
}

func (provider *NoopProvider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return noopTracer
}

type tracer struct {
	trace.Tracer
}

func (tracer *tracer) Start(ctx context.Context, name string, options ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, noopSpan
}

type span struct {
	trace.Span
}

func (span *span) End(options ...trace.SpanEndOption)                  {}
func (span *span) AddEvent(name string, options ...trace.EventOption)  {}
func (span *span) AddLink(link trace.Link)                             {}
func (span *span) IsRecording() bool                                   { return false }
func (span *span) RecordError(err error, options ...trace.EventOption) {}
func (span *span) SetAttributes(kv ...attribute.KeyValue)              {}
func (span *span) SetName(name string)                                 {}
func (span *span) SetStatus(code codes.Code, description string)       {}
func (span *span) SpanContext() trace.SpanContext                      { return spanContext }
func (span *span) TracerProvider() trace.TracerProvider                { return noopProvider }
