package ports

import (
	"context"
	"time"

	"github.com/reviewkit/go-accord/internal/domain"
)

// SubmissionSource supplies the engine with the current set of
// submissions, for example by reading a review discussion thread or a
// locally persisted store. The engine never fetches submissions itself
// and does not validate participant identity; that is the source's job.
type SubmissionSource interface {
	// Submissions returns the current submission set for a review.
	// The returned slice is owned by the caller; the engine treats it
	// as read-only for the duration of any computation.
	Submissions(ctx context.Context, reviewID string) ([]domain.Submission, error)
}

// RankingSink consumes a computed ranking, for example by writing it
// back into a review page or a persisted store. The engine has no
// further involvement after handing over the ranking.
type RankingSink interface {
	// Apply delivers the ranking to its destination.
	Apply(ctx context.Context, reviewID string, order domain.Ranking) error
}

// SubmissionPublisher shares a new submission with other participants,
// for example by posting it to a shared discussion. Publishing is
// entirely downstream of the engine.
type SubmissionPublisher interface {
	// Publish broadcasts the submission.
	Publish(ctx context.Context, reviewID string, sub domain.Submission) error
}

// MetricsCollector collects operational metrics for pipeline runs.
// Implementations integrate with observability platforms such as
// Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric, useful for tracking
	// events like unit executions and failures.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric, useful for
	// values like the latest agreement score.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram, useful for
	// distributions like similarity scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
