package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewkit/go-accord/internal/domain"
)

// recordingCollector captures metric calls with their labels.
type recordingCollector struct {
	mu        sync.Mutex
	latencies []map[string]string
	counters  []map[string]string
	gauges    map[string]float64
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{gauges: make(map[string]float64)}
}

func (r *recordingCollector) RecordLatency(_ string, _ time.Duration, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencies = append(r.latencies, labels)
}

func (r *recordingCollector) RecordCounter(_ string, _ float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, labels)
}

func (r *recordingCollector) RecordGauge(metric string, value float64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[metric] = value
}

func (r *recordingCollector) RecordHistogram(_ string, _ float64, _ map[string]string) {}

// fakeUnit is a configurable unit for middleware tests.
type fakeUnit struct {
	name string
	err  error
	meta *domain.ConsensusMetadata
}

func (f *fakeUnit) Name() string { return f.name }

func (f *fakeUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	if f.err != nil {
		return state, f.err
	}
	if f.meta != nil {
		return domain.With(state, domain.KeyMetadata, f.meta), nil
	}
	return state, nil
}

func (f *fakeUnit) Validate() error { return nil }

func TestWrapWithMetrics_NilCollector(t *testing.T) {
	unit := &fakeUnit{name: "u"}
	assert.Same(t, unit, WrapWithMetrics(unit, nil).(*fakeUnit),
		"nil collector should leave the unit unwrapped")
}

func TestMetricsUnit_Execute_Success(t *testing.T) {
	collector := newRecordingCollector()
	meta := &domain.ConsensusMetadata{
		AgreementScore: 0.9,
		Conflicts:      []domain.Conflict{{Item: "a"}},
	}
	wrapped := WrapWithMetrics(&fakeUnit{name: "consensus", meta: meta}, collector)

	assert.Equal(t, "consensus", wrapped.Name())
	assert.NoError(t, wrapped.Validate())

	state := domain.NewState().WithExecutionContext(domain.ExecutionContext{
		PipelineID:  "p1",
		ReviewID:    "r1",
		ExecutionID: "e1",
	})

	_, err := wrapped.Execute(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, collector.latencies, 1)
	assert.Equal(t, "consensus", collector.latencies[0]["unit"])
	assert.Equal(t, "p1", collector.latencies[0]["pipeline_id"])

	require.Len(t, collector.counters, 1)
	assert.Equal(t, "success", collector.counters[0]["status"])

	assert.InDelta(t, 0.9, collector.gauges["agreement_score"], 1e-9)
	assert.InDelta(t, 1.0, collector.gauges["conflict_count"], 1e-9)
}

func TestMetricsUnit_Execute_Error(t *testing.T) {
	collector := newRecordingCollector()
	boom := errors.New("boom")
	wrapped := WrapWithMetrics(&fakeUnit{name: "consensus", err: boom}, collector)

	_, err := wrapped.Execute(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, boom, "errors pass through the middleware")

	require.Len(t, collector.counters, 1)
	assert.Equal(t, "error", collector.counters[0]["status"])
	assert.Empty(t, collector.gauges, "no quality gauges on failed runs")
}

func TestMetricsUnit_Execute_NoMetadata(t *testing.T) {
	collector := newRecordingCollector()
	wrapped := WrapWithMetrics(&fakeUnit{name: "diff"}, collector)

	_, err := wrapped.Execute(context.Background(), domain.NewState())
	require.NoError(t, err)
	assert.Empty(t, collector.gauges, "units that produce no metadata record no gauges")
}
