package units

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/reviewkit/go-accord/internal/domain"
	"github.com/reviewkit/go-accord/internal/ports"
)

var _ ports.Unit = (*ConsensusUnit)(nil)

// ConsensusUnit aggregates the submission set in the state into a
// single consensus ranking and derives its agreement metadata. It is
// the democratic heart of the pipeline: every participant's order
// contributes to an average-rank-position aggregate, optionally after
// statistical outlier removal.
//
// The unit is stateless and thread-safe.
type ConsensusUnit struct {
	name   string
	config ConsensusConfig
	tracer trace.Tracer
}

// ConsensusConfig defines the configuration parameters for the
// ConsensusUnit. All fields are validated during unit creation and
// parameter unmarshaling.
type ConsensusConfig struct {
	// ExcludeOutliers enables statistical outlier removal before
	// aggregation. Only takes effect when more than two non-empty
	// orders are submitted.
	ExcludeOutliers bool `yaml:"exclude_outliers" json:"exclude_outliers"`

	// OutlierThreshold is the standard-deviation multiplier used to
	// classify an order as an outlier. Zero selects the engine default.
	OutlierThreshold float64 `yaml:"outlier_threshold" json:"outlier_threshold" validate:"min=0"`
}

// NewConsensusUnit creates a new ConsensusUnit with the specified
// configuration. It returns an error if the configuration is invalid.
func NewConsensusUnit(name string, config ConsensusConfig) (*ConsensusUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ConsensusUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("consensus-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (cu *ConsensusUnit) Name() string { return cu.name }

// Execute aggregates the submissions in the state into a consensus
// ranking and stores both the ranking and its metadata. An empty
// submission set produces an empty consensus with zeroed metadata, not
// an error.
func (cu *ConsensusUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := cu.tracer.Start(ctx, "ConsensusUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "consensus"),
			attribute.String("unit.id", cu.name),
			attribute.Bool("config.exclude_outliers", cu.config.ExcludeOutliers),
			attribute.Float64("config.outlier_threshold", cu.config.OutlierThreshold),
		),
	)
	defer span.End()

	subs, ok := domain.Get(state, domain.KeySubmissions)
	if !ok {
		span.RecordError(ErrSubmissionsNotFound)
		return state, ErrSubmissionsNotFound
	}

	for i, s := range subs {
		if len(s.Order) > MaxRankingItems {
			err := fmt.Errorf("submission %d too large: %d items exceeds limit of %d",
				i, len(s.Order), MaxRankingItems)
			span.RecordError(err)
			return state, err
		}
	}

	consensus, err := domain.ComputeConsensus(subs, domain.ConsensusOptions{
		ExcludeOutliers:  cu.config.ExcludeOutliers,
		OutlierThreshold: cu.config.OutlierThreshold,
	})
	if err != nil {
		span.RecordError(err)
		return state, fmt.Errorf("consensus aggregation failed: %w", err)
	}

	metadata := domain.ComputeConsensusMetadata(subs, consensus)

	span.SetAttributes(
		attribute.Int("consensus.items", len(consensus)),
		attribute.Int("consensus.participants", metadata.ParticipantCount),
		attribute.Float64("consensus.agreement_score", metadata.AgreementScore),
		attribute.Int("consensus.conflicts", len(metadata.Conflicts)),
	)

	state = domain.With(state, domain.KeyConsensus, consensus)
	return domain.With(state, domain.KeyMetadata, &metadata), nil
}

// Validate checks if the unit is properly configured.
func (cu *ConsensusUnit) Validate() error {
	if err := validate.Struct(cu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML parameters into the unit's
// config. Unknown fields are rejected to catch configuration typos.
func (cu *ConsensusUnit) UnmarshalParameters(params yaml.Node) error {
	var config ConsensusConfig
	if err := decodeStrict(params, &config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	cu.config = config
	return nil
}

// DefaultConsensusConfig returns a ConsensusConfig with engine defaults.
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		ExcludeOutliers:  false,
		OutlierThreshold: domain.DefaultOutlierThreshold,
	}
}

// CreateConsensusUnit is a factory function that creates a
// ConsensusUnit from a configuration map, for use with the UnitRegistry.
func CreateConsensusUnit(id string, config map[string]any) (*ConsensusUnit, error) {
	unitConfig := DefaultConsensusConfig()
	if val, ok := config["exclude_outliers"].(bool); ok {
		unitConfig.ExcludeOutliers = val
	}
	if val, ok := toFloat(config["outlier_threshold"]); ok {
		unitConfig.OutlierThreshold = val
	}
	return NewConsensusUnit(id, unitConfig)
}
