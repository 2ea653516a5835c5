// Package otel turns execution and HTTP events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	eventbus "github.com/hanpama/graphbind/internal/eventbus"
	events "github.com/hanpama/graphbind/internal/events"
	reqid "github.com/hanpama/graphbind/internal/reqid"
)

const instrumentationName = "github.com/hanpama/graphbind"

// Setup configures an OTLP/gRPC exporter and attaches span subscribers to
// bus. If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, endpoint, service string, bus *eventbus.Bus) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Register(bus, tp.Tracer(instrumentationName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Register subscribes span handlers to bus and returns a function removing
// them. HTTP spans are keyed by request id, execution spans by execution id.
func Register(bus *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.Subscribe(bus, s.httpStart),
		eventbus.Subscribe(bus, s.httpFinish),
		eventbus.Subscribe(bus, s.executionStart),
		eventbus.Subscribe(bus, s.executionFinish),
		eventbus.Subscribe(bus, s.executionError),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // request id -> trace.Span
	execSpans sync.Map // execution id -> trace.Span
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		attribute.String("http.target", e.Request.URL.Path),
		attribute.String("http.request_id", e.RequestID),
	)
	s.httpSpans.Store(e.RequestID, span)
}

func (s *subscriber) httpFinish(_ context.Context, e events.HTTPFinish) {
	v, ok := s.httpSpans.LoadAndDelete(e.RequestID)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		semconv.HTTPStatusCodeKey.Int(e.Status),
		attribute.Int("graphql.batch_size", e.Operations),
	)
	if e.Status >= 500 {
		span.SetStatus(codes.Error, "")
	}
	span.End()
}

func (s *subscriber) executionStart(ctx context.Context, e events.ExecutionStart) {
	parent := ctx
	if rid, ok := reqid.FromContext(ctx); ok {
		if v, ok := s.httpSpans.Load(rid); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	_, span := s.tracer.Start(parent, "graphql.execute")
	span.SetAttributes(
		attribute.String("graphql.execution.id", e.ExecutionID),
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
	s.execSpans.Store(e.ExecutionID, span)
}

func (s *subscriber) executionFinish(_ context.Context, e events.ExecutionFinish) {
	v, ok := s.execSpans.LoadAndDelete(e.ExecutionID)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
	span.End()
}

func (s *subscriber) executionError(_ context.Context, e events.ExecutionError) {
	v, ok := s.execSpans.LoadAndDelete(e.ExecutionID)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.RecordError(e.Err)
	span.SetStatus(codes.Error, e.Err.Error())
	span.End()
}
