// metrics.go provides a no-op MetricsRecorder for tests and bare deployments.
package memory

import (
	"context"
	"time"

	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/domain/entity"
	"github.com/leprechaun-dao/leprechaun-mvp-bsc/internal/ports/outbound"
)

// Compile-time check that NopMetrics implements outbound.MetricsRecorder
var _ outbound.MetricsRecorder = (*NopMetrics)(nil)

// NopMetrics discards every recorded measurement.
type NopMetrics struct{}

// NewNopMetrics creates a metrics recorder that does nothing.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

func (NopMetrics) RecordProjection(ctx context.Context, action entity.ActionType, duration time.Duration, committed bool) {
}

func (NopMetrics) RecordSubmission(ctx context.Context, action entity.ActionType) {}

func (NopMetrics) RecordTerminal(ctx context.Context, action entity.ActionType, status entity.ActionStatus, duration time.Duration) {
}
