// Package middleware provides cross-cutting concerns for the consensus
// pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reviewkit/go-accord/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of pipeline execution
// performance and consensus quality signals such as the latest
// agreement score.
type PrometheusMetrics struct {
	executionLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	qualityGauges    *prometheus.GaugeVec
	scoreHistogram   *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		executionLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accord_unit_execution_duration_seconds",
				Help:    "Execution time of consensus pipeline units.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "unit"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accord_unit_operations_total",
				Help: "Total number of unit executions by outcome.",
			},
			[]string{"operation", "status", "unit"},
		),
		qualityGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "accord_consensus_quality",
				Help: "Latest consensus quality signals, e.g. agreement score and conflict count.",
			},
			[]string{"metric", "pipeline_id"},
		),
		scoreHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accord_score_distribution",
				Help:    "Distribution of similarity and agreement scores.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, labelOr(labels, "unit")).
		Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by
// incrementing the operation counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	status, ok := labels["status"]
	if !ok {
		status = "success"
	}
	pm.operationCounter.WithLabelValues(metric, status, labelOr(labels, "unit")).
		Add(value)
}

// RecordGauge implements the MetricsCollector interface by setting
// consensus quality gauges.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.qualityGauges.WithLabelValues(metric, labelOr(labels, "pipeline_id")).
		Set(value)
}

// RecordHistogram implements the MetricsCollector interface by
// recording score distributions.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	pm.scoreHistogram.WithLabelValues(metric).Observe(value)
}

// labelOr returns the named label or "unknown" when absent or empty,
// keeping metric cardinality well defined.
func labelOr(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return "unknown"
}
