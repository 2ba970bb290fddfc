package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/mikey/pwned-relay"

// Options configures the instrumentation
type Options struct {
	TracingEnabled bool
	MetricsEnabled bool

	// Providers default to the global OTel providers when nil
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Instrumentation holds the tracer and metric instruments used by the dispatcher
type Instrumentation struct {
	tracer trace.Tracer

	dispatchCount metric.Int64Counter
	lookupLatency metric.Float64Histogram
	lookupErrors  metric.Int64Counter
}

// New creates the instrumentation. Disabled signals are backed by noop providers.
func New(opts Options) (*Instrumentation, error) {
	var tp trace.TracerProvider = tracenoop.NewTracerProvider()
	if opts.TracingEnabled {
		tp = opts.TracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
	}

	var mp metric.MeterProvider = metricnoop.NewMeterProvider()
	if opts.MetricsEnabled {
		mp = opts.MeterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
	}

	i := &Instrumentation{
		tracer: tp.Tracer(instrumentationName),
	}
	if err := i.initMetrics(mp); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return i, nil
}

// NewNoop returns instrumentation that records nothing
func NewNoop() *Instrumentation {
	return &Instrumentation{
		tracer:        tracenoop.NewTracerProvider().Tracer(instrumentationName),
		dispatchCount: metricnoop.Int64Counter{},
		lookupLatency: metricnoop.Float64Histogram{},
		lookupErrors:  metricnoop.Int64Counter{},
	}
}

func (i *Instrumentation) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(instrumentationName)

	var err error

	i.dispatchCount, err = meter.Int64Counter(
		"pwned.dispatch.count",
		metric.WithDescription("Number of command dispatches by outcome"),
	)
	if err != nil {
		return err
	}

	i.lookupLatency, err = meter.Float64Histogram(
		"pwned.lookup.duration",
		metric.WithDescription("Duration of breach lookups"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	i.lookupErrors, err = meter.Int64Counter(
		"pwned.lookup.errors",
		metric.WithDescription("Number of failed breach lookups"),
	)
	return err
}

// StartDispatch opens the span covering one dispatch
func (i *Instrumentation) StartDispatch(ctx context.Context, id string) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, "pwned.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("pwned.dispatch.id", id)),
	)
}

// RecordDispatch counts a finished dispatch
func (i *Instrumentation) RecordDispatch(ctx context.Context, outcome string) {
	i.dispatchCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// StartLookup opens the span covering one breach lookup
func (i *Instrumentation) StartLookup(ctx context.Context) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, "pwned.lookup", trace.WithSpanKind(trace.SpanKindClient))
}

// EndLookup records latency and errors of a lookup and closes its span
func (i *Instrumentation) EndLookup(ctx context.Context, span trace.Span, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		i.lookupErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	i.lookupLatency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("status", status)))
	span.End()
}
