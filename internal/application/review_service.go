package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/reviewkit/go-accord/internal/domain"
	"github.com/reviewkit/go-accord/internal/ports"
)

// ReviewService is the high-level entry point for consensus
// computation over review submissions. It wraps the pure domain
// operations with engine defaults, optional collaborators for
// fetching and applying rankings, and operational metrics.
// A ReviewService is safe for concurrent use.
type ReviewService struct {
	cfg EngineConfig

	// source supplies submissions for a review. Optional; required
	// only by ConsensusForReview.
	source ports.SubmissionSource
	// sink receives computed rankings. Optional.
	sink ports.RankingSink
	// publisher broadcasts new submissions to other participants.
	// Optional; required only by Submit.
	publisher ports.SubmissionPublisher
	// metrics records operation latency and consensus quality.
	// Optional; nil disables metric collection.
	metrics ports.MetricsCollector
}

// ReviewServiceOption configures optional collaborators on a
// ReviewService.
type ReviewServiceOption func(*ReviewService)

// WithSubmissionSource wires the source used by ConsensusForReview to
// fetch the current submission set.
func WithSubmissionSource(source ports.SubmissionSource) ReviewServiceOption {
	return func(s *ReviewService) { s.source = source }
}

// WithRankingSink wires the sink that receives rankings computed by
// ConsensusForReview.
func WithRankingSink(sink ports.RankingSink) ReviewServiceOption {
	return func(s *ReviewService) { s.sink = sink }
}

// WithSubmissionPublisher wires the publisher used by Submit to share
// a submission with other participants.
func WithSubmissionPublisher(publisher ports.SubmissionPublisher) ReviewServiceOption {
	return func(s *ReviewService) { s.publisher = publisher }
}

// WithMetricsCollector wires a collector that records operation
// latency and consensus quality metrics.
func WithMetricsCollector(metrics ports.MetricsCollector) ReviewServiceOption {
	return func(s *ReviewService) { s.metrics = metrics }
}

// NewReviewService creates a review service with the given engine
// configuration and optional collaborators.
// NewReviewService returns an error if the configuration is invalid.
func NewReviewService(cfg EngineConfig, opts ...ReviewServiceOption) (*ReviewService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc := &ReviewService{cfg: cfg}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Consensus computes the consensus ranking and its metadata for the
// given submissions using the engine defaults for outlier handling.
func (s *ReviewService) Consensus(
	ctx context.Context,
	subs []domain.Submission,
) (domain.Ranking, domain.ConsensusMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ConsensusMetadata{}, err
	}

	start := time.Now()
	opts := domain.ConsensusOptions{
		ExcludeOutliers:  s.cfg.ExcludeOutliers,
		OutlierThreshold: s.cfg.OutlierThreshold,
	}

	consensus, err := domain.ComputeConsensus(subs, opts)
	if err != nil {
		s.recordOutcome("consensus", start, "error", nil)
		return nil, domain.ConsensusMetadata{}, err
	}

	meta := domain.ComputeConsensusMetadata(subs, consensus)
	s.recordOutcome("consensus", start, "success", map[string]string{
		"participants": fmt.Sprintf("%d", meta.ParticipantCount),
	})
	if s.metrics != nil {
		s.metrics.RecordGauge("agreement_score", meta.AgreementScore, nil)
	}

	return consensus, meta, nil
}

// ConsensusForReview fetches the current submissions for a review,
// computes consensus, and applies the resulting ranking to the
// configured sink when one is present.
// ConsensusForReview returns an error if no submission source is
// configured, if fetching fails, or if applying the ranking fails.
func (s *ReviewService) ConsensusForReview(
	ctx context.Context,
	reviewID string,
) (domain.Ranking, domain.ConsensusMetadata, error) {
	if s.source == nil {
		return nil, domain.ConsensusMetadata{}, fmt.Errorf("no submission source configured")
	}

	executionID := uuid.NewString()
	subs, err := s.source.Submissions(ctx, reviewID)
	if err != nil {
		return nil, domain.ConsensusMetadata{}, fmt.Errorf("failed to fetch submissions for review %s: %w", reviewID, err)
	}

	consensus, meta, err := s.Consensus(ctx, subs)
	if err != nil {
		return nil, domain.ConsensusMetadata{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordGauge("review_agreement_score", meta.AgreementScore, map[string]string{
			"review_id":    reviewID,
			"execution_id": executionID,
		})
	}

	if s.sink != nil {
		if err := s.sink.Apply(ctx, reviewID, consensus); err != nil {
			return nil, domain.ConsensusMetadata{}, fmt.Errorf("failed to apply ranking for review %s: %w", reviewID, err)
		}
	}

	return consensus, meta, nil
}

// Submit publishes a submission to the other participants of a review
// through the configured publisher.
// Submit returns an error if no publisher is configured or if
// publishing fails.
func (s *ReviewService) Submit(ctx context.Context, reviewID string, sub domain.Submission) error {
	if s.publisher == nil {
		return fmt.Errorf("no submission publisher configured")
	}
	if err := s.publisher.Publish(ctx, reviewID, sub); err != nil {
		return fmt.Errorf("failed to publish submission for review %s: %w", reviewID, err)
	}
	return nil
}

// Merge blends a newly observed order into an existing consensus using
// the given weight. A weight of zero ignores the new order entirely
// and a weight of one lets it dominate.
func (s *ReviewService) Merge(
	ctx context.Context,
	consensus, newOrder domain.Ranking,
	weight float64,
) (domain.Ranking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	merged, err := domain.MergeOrder(consensus, newOrder, weight)
	if err != nil {
		s.recordOutcome("merge", start, "error", nil)
		return nil, err
	}
	s.recordOutcome("merge", start, "success", nil)
	return merged, nil
}

// MergeDefault blends a newly observed order into an existing
// consensus using the engine's configured merge weight.
func (s *ReviewService) MergeDefault(
	ctx context.Context,
	consensus, newOrder domain.Ranking,
) (domain.Ranking, error) {
	return s.Merge(ctx, consensus, newOrder, s.cfg.MergeWeight)
}

// Compare computes the structural difference between two rankings.
func (s *ReviewService) Compare(ctx context.Context, a, b domain.Ranking) (domain.DiffResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.DiffResult{}, err
	}

	start := time.Now()
	result := domain.Diff(a, b)
	s.recordOutcome("diff", start, "success", nil)
	if s.metrics != nil {
		s.metrics.RecordHistogram("similarity_score", float64(result.SimilarityScore)/100, nil)
	}
	return result, nil
}

// CompareAll computes, concurrently, the difference between the
// consensus and every participant's submitted order. The result maps
// participant identifiers to their diff against the consensus.
// CompareAll returns the first error encountered, which in practice
// is only context cancellation.
func (s *ReviewService) CompareAll(
	ctx context.Context,
	consensus domain.Ranking,
	subs []domain.Submission,
) (map[string]domain.DiffResult, error) {
	results := make(map[string]domain.DiffResult, len(subs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := domain.Diff(consensus, sub.Order)

			mu.Lock()
			results[sub.Participant] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Validate checks a consensus ranking for structural integrity against
// the submissions it was derived from.
func (s *ReviewService) Validate(
	consensus domain.Ranking,
	subs []domain.Submission,
) domain.ValidationResult {
	return domain.ValidateConsensus(consensus, subs)
}

// recordOutcome emits latency and outcome metrics for an operation
// when a collector is configured.
func (s *ReviewService) recordOutcome(
	operation string,
	start time.Time,
	status string,
	labels map[string]string,
) {
	if s.metrics == nil {
		return
	}

	s.metrics.RecordLatency(operation, time.Since(start), labels)
	s.metrics.RecordCounter("operations_total", 1, map[string]string{
		"operation": operation,
		"status":    status,
	})
}
