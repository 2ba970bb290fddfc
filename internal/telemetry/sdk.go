package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultExportInterval is how often metrics are written out
const DefaultExportInterval = time.Minute

// SDKOptions configures the exporting providers
type SDKOptions struct {
	ServiceName    string
	TracingEnabled bool
	MetricsEnabled bool

	// Writer receives exported spans and metrics, os.Stderr when nil.
	// Stdout is left to the console transport.
	Writer io.Writer

	// ExportInterval defaults to DefaultExportInterval
	ExportInterval time.Duration
}

// SDK owns the exporting tracer and meter providers.
// A disabled signal leaves its provider nil.
type SDK struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// NewSDK builds the providers for the enabled signals, registers them as the
// global OTel providers and exports to Writer as JSON lines
func NewSDK(opts SDKOptions) (*SDK, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	interval := opts.ExportInterval
	if interval <= 0 {
		interval = DefaultExportInterval
	}
	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	sdk := &SDK{}

	if opts.TracingEnabled {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create span exporter: %w", err)
		}
		sdk.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(sdk.TracerProvider)
	}

	if opts.MetricsEnabled {
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			_ = sdk.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		sdk.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(sdk.MeterProvider)
	}

	return sdk, nil
}

// Options returns the instrumentation options backed by these providers
func (s *SDK) Options() Options {
	opts := Options{
		TracingEnabled: s.TracerProvider != nil,
		MetricsEnabled: s.MeterProvider != nil,
	}
	if s.TracerProvider != nil {
		opts.TracerProvider = s.TracerProvider
	}
	if s.MeterProvider != nil {
		opts.MeterProvider = s.MeterProvider
	}
	return opts
}

// Shutdown flushes pending spans and metrics and stops the providers
func (s *SDK) Shutdown(ctx context.Context) error {
	var errs []error
	if s.TracerProvider != nil {
		if err := s.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down tracer provider: %w", err))
		}
	}
	if s.MeterProvider != nil {
		if err := s.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
