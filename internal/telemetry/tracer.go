// Package telemetry wires the driver's outbound RPCs to OpenTelemetry
// tracing: one span per RPC issued through internal/transport (session
// create, keepalive, query execute, scheme operations, ...) — the same
// granularity the platform's own RPC clients instrument at. Discovery
// refreshes call the discovery stub directly and are not traced.
package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/suleymanmyradov/ydb-go-driver"

// NewStdoutTracerProvider builds a TracerProvider that writes spans to w.
// It is the zero-config default the example CLI uses; production callers
// swap in any other exporter behind the same trace.TracerProvider interface.
func NewStdoutTracerProvider(w io.Writer) (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(trace.WithBatcher(exporter)), nil
}

// Tracer returns the driver's named tracer from the given provider, or the
// global no-op tracer if provider is nil.
func Tracer(provider oteltrace.TracerProvider) oteltrace.Tracer {
	if provider == nil {
		return otel.Tracer(instrumentationName)
	}
	return provider.Tracer(instrumentationName)
}

// StartRPCSpan starts a span named op carrying the endpoint as an
// attribute, and returns a finish func that records err (if any) and ends
// the span — the call shape every internal RPC wrapper uses.
func StartRPCSpan(ctx context.Context, tracer oteltrace.Tracer, op, endpoint string, extra ...attribute.KeyValue) (context.Context, func(err error)) {
	attrs := append([]attribute.KeyValue{attribute.String("ydb.endpoint", endpoint)}, extra...)
	ctx, span := tracer.Start(ctx, op, oteltrace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
