package middleware

import (
	"context"
	"time"

	"github.com/reviewkit/go-accord/internal/domain"
	"github.com/reviewkit/go-accord/internal/ports"
)

// Compile-time verification that MetricsUnit implements Unit.
var _ ports.Unit = (*MetricsUnit)(nil)

// MetricsUnit wraps a pipeline unit and records execution latency and
// outcome counters through a MetricsCollector. It is transparent to the
// wrapped unit: state, errors, and validation behavior pass through
// unchanged.
type MetricsUnit struct {
	unit      ports.Unit
	collector ports.MetricsCollector
}

// WrapWithMetrics decorates a unit with metrics collection. A nil
// collector returns the unit unwrapped.
func WrapWithMetrics(unit ports.Unit, collector ports.MetricsCollector) ports.Unit {
	if collector == nil {
		return unit
	}
	return &MetricsUnit{unit: unit, collector: collector}
}

// Name returns the wrapped unit's identifier.
func (mu *MetricsUnit) Name() string { return mu.unit.Name() }

// Execute delegates to the wrapped unit, recording latency and a
// success/error counter around the call.
func (mu *MetricsUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	labels := map[string]string{"unit": mu.unit.Name()}
	if execCtx, ok := state.GetExecutionContext(); ok {
		labels["pipeline_id"] = execCtx.PipelineID
	}

	start := time.Now()
	newState, err := mu.unit.Execute(ctx, state)
	mu.collector.RecordLatency("unit_execute", time.Since(start), labels)

	status := "success"
	if err != nil {
		status = "error"
	}
	counterLabels := map[string]string{"unit": mu.unit.Name(), "status": status}
	mu.collector.RecordCounter("unit_execute", 1, counterLabels)

	if err == nil {
		if metadata, ok := domain.Get(newState, domain.KeyMetadata); ok && metadata != nil {
			mu.collector.RecordGauge("agreement_score", metadata.AgreementScore, labels)
			mu.collector.RecordGauge("conflict_count", float64(len(metadata.Conflicts)), labels)
		}
	}

	return newState, err
}

// Validate delegates to the wrapped unit.
func (mu *MetricsUnit) Validate() error { return mu.unit.Validate() }
