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

var _ ports.Unit = (*MergeUnit)(nil)

// MergeUnit blends the proposed order in the state into the existing
// consensus using a tunable weight, without recomputing the average
// over every historical submission. A weight of 1 lets the proposed
// order fully determine the positions it covers; a weight of 0 leaves
// the consensus in charge.
//
// The unit is stateless and thread-safe.
type MergeUnit struct {
	name   string
	config MergeConfig
	tracer trace.Tracer
}

// MergeConfig defines the configuration parameters for the MergeUnit.
type MergeConfig struct {
	// Weight is the influence of the proposed order on the blended
	// result, in [0, 1].
	Weight float64 `yaml:"weight" json:"weight" validate:"min=0,max=1"`
}

// NewMergeUnit creates a new MergeUnit with the specified configuration.
// It returns an error if the configuration is invalid.
func NewMergeUnit(name string, config MergeConfig) (*MergeUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &MergeUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("merge-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (mu *MergeUnit) Name() string { return mu.name }

// Execute merges the proposed order into the consensus and stores the
// blended ranking back under the consensus key. A missing consensus is
// treated as empty, so the first submission of a review becomes the
// consensus verbatim.
func (mu *MergeUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := mu.tracer.Start(ctx, "MergeUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "merge"),
			attribute.String("unit.id", mu.name),
			attribute.Float64("config.weight", mu.config.Weight),
		),
	)
	defer span.End()

	proposed, ok := domain.Get(state, domain.KeyProposedOrder)
	if !ok {
		span.RecordError(ErrProposedOrderNotFound)
		return state, ErrProposedOrderNotFound
	}

	consensus, _ := domain.Get(state, domain.KeyConsensus)

	merged, err := domain.MergeOrder(consensus, proposed, mu.config.Weight)
	if err != nil {
		span.RecordError(err)
		return state, fmt.Errorf("merge failed: %w", err)
	}

	span.SetAttributes(
		attribute.Int("merge.consensus_items", len(consensus)),
		attribute.Int("merge.proposed_items", len(proposed)),
		attribute.Int("merge.result_items", len(merged)),
	)

	return domain.With(state, domain.KeyConsensus, merged), nil
}

// Validate checks if the unit is properly configured.
func (mu *MergeUnit) Validate() error {
	if err := validate.Struct(mu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML parameters into the unit's
// config. Unknown fields are rejected to catch configuration typos.
func (mu *MergeUnit) UnmarshalParameters(params yaml.Node) error {
	var config MergeConfig
	if err := decodeStrict(params, &config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	mu.config = config
	return nil
}

// DefaultMergeConfig returns a MergeConfig with engine defaults: the
// proposed order fully determines the positions it covers.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{Weight: 1}
}

// CreateMergeUnit is a factory function that creates a MergeUnit from a
// configuration map, for use with the UnitRegistry.
func CreateMergeUnit(id string, config map[string]any) (*MergeUnit, error) {
	unitConfig := DefaultMergeConfig()
	if val, ok := toFloat(config["weight"]); ok {
		unitConfig.Weight = val
	}
	return NewMergeUnit(id, unitConfig)
}
