package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type recordingSpan struct {
	tracenoop.Span
	errs   []error
	status codes.Code
	ended  bool
}

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) {
	s.status = code
}

func (s *recordingSpan) End(...trace.SpanEndOption) {
	s.ended = true
}

func TestNew(t *testing.T) {
	tests := []struct {
		description string
		opts        Options
	}{
		{description: "Disabled", opts: Options{}},
		{description: "Global providers", opts: Options{TracingEnabled: true, MetricsEnabled: true}},
		{
			description: "Explicit providers",
			opts: Options{
				TracingEnabled: true,
				MetricsEnabled: true,
				TracerProvider: tracenoop.NewTracerProvider(),
				MeterProvider:  metricnoop.NewMeterProvider(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)

			instr, err := New(tt.opts)
			req.NoError(err)
			req.NotNil(instr)

			ctx, span := instr.StartDispatch(context.Background(), "id-1")
			req.NotNil(span)
			instr.RecordDispatch(ctx, "replied")
			span.End()
		})
	}
}

func TestEndLookup(t *testing.T) {
	req := require.New(t)
	instr := NewNoop()

	okSpan := &recordingSpan{}
	instr.EndLookup(context.Background(), okSpan, 20*time.Millisecond, nil)
	req.True(okSpan.ended)
	req.Empty(okSpan.errs)
	req.Equal(codes.Unset, okSpan.status)

	lookupErr := errors.New("status 503")
	failedSpan := &recordingSpan{}
	instr.EndLookup(context.Background(), failedSpan, time.Second, lookupErr)
	req.True(failedSpan.ended)
	req.Equal([]error{lookupErr}, failedSpan.errs)
	req.Equal(codes.Error, failedSpan.status)
}

func TestStartLookup(t *testing.T) {
	instr := NewNoop()

	ctx, span := instr.StartLookup(context.Background())
	require.NotNil(t, ctx)
	require.NotNil(t, span)
	span.End()
}
