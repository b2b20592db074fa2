package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// otelTracer implements Tracer on top of an OpenTelemetry TracerProvider.
// Used as the timing/tracing backend for pipeline stage middleware: every
// stage opens a span named after the stage.
type otelTracer struct {
	provider oteltrace.TracerProvider
	tracer   oteltrace.Tracer
}

// NewOtel wraps the given OpenTelemetry TracerProvider (or the global one
// if provider is nil) as a Tracer.
func NewOtel(instrumentationName string, provider oteltrace.TracerProvider) Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &otelTracer{provider: provider, tracer: provider.Tracer(instrumentationName)}
}

func (t *otelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	cfg := &SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		attrs = append(attrs, toKeyValue(k, v))
	}

	ctx, span := t.tracer.Start(ctx, name, oteltrace.WithAttributes(attrs...))
	return ctx, &otelSpan{span: span}
}

func (t *otelTracer) Shutdown(ctx context.Context) error {
	type shutdowner interface {
		Shutdown(context.Context) error
	}
	if sd, ok := t.provider.(shutdowner); ok {
		return sd.Shutdown(ctx)
	}
	return nil
}

func (t *otelTracer) IsEnabled() bool { return true }

type otelSpan struct {
	span oteltrace.Span
}

func (s *otelSpan) SetAttributes(attrs ...Attribute) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		kvs = append(kvs, toKeyValue(a.Key, a.Value))
	}
	s.span.SetAttributes(kvs...)
}

func (s *otelSpan) SetStatus(status Status, description string) {
	if status.Code == StatusError.Code {
		s.span.SetStatus(codes.Error, description)
		return
	}
	s.span.SetStatus(codes.Ok, description)
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

func (s *otelSpan) End() { s.span.End() }

func toKeyValue(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
