package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// Compile-time check that Metrics implements outbound.MetricsRecorder
var _ outbound.MetricsRecorder = (*Metrics)(nil)

// Metrics implements the MetricsRecorder interface using OpenTelemetry.
type Metrics struct {
	projectionLatency metric.Float64Histogram
	submissions       metric.Int64Counter
	terminalLatency   metric.Float64Histogram
}

// NewMetrics creates a new OpenTelemetry metrics recorder.
// meterName should typically be the package name or service name.
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	projection, err := meter.Float64Histogram(
		"projection_duration_seconds",
		metric.WithDescription("Time taken to compute one ratio projection"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create projection_duration_seconds histogram: %w", err)
	}

	submissions, err := meter.Int64Counter(
		"submissions_total",
		metric.WithDescription("Total number of transaction submissions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submissions_total counter: %w", err)
	}

	terminal, err := meter.Float64Histogram(
		"submission_terminal_duration_seconds",
		metric.WithDescription("Time from submission to terminal state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission_terminal_duration_seconds histogram: %w", err)
	}

	return &Metrics{
		projectionLatency: projection,
		submissions:       submissions,
		terminalLatency:   terminal,
	}, nil
}

// RecordProjection records one completed projection query. Superseded results
// count separately from committed ones.
func (m *Metrics) RecordProjection(ctx context.Context, action entity.ActionType, duration time.Duration, committed bool) {
	m.projectionLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.Bool("committed", committed),
	))
}

// RecordSubmission increments the submission counter.
func (m *Metrics) RecordSubmission(ctx context.Context, action entity.ActionType) {
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(action)),
	))
}

// RecordTerminal records a submission reaching a terminal state.
func (m *Metrics) RecordTerminal(ctx context.Context, action entity.ActionType, status entity.ActionStatus, duration time.Duration) {
	m.terminalLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("status", string(status)),
	))
}
