package outbound

import (
	"context"
	"time"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
)

// MetricsRecorder records coordinator metrics without tying the services to a
// specific telemetry implementation.
type MetricsRecorder interface {
	// RecordProjection records one completed ratio projection query and
	// whether its result was committed or superseded.
	RecordProjection(ctx context.Context, action entity.ActionType, duration time.Duration, committed bool)

	// RecordSubmission records a transaction submission attempt.
	RecordSubmission(ctx context.Context, action entity.ActionType)

	// RecordTerminal records a submission reaching a terminal state.
	RecordTerminal(ctx context.Context, action entity.ActionType, status entity.ActionStatus, duration time.Duration)
}
