package units

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/reviewkit/go-accord/internal/domain"
	"github.com/reviewkit/go-accord/internal/ports"
)

var _ ports.Unit = (*ValidationUnit)(nil)

// ValidationUnit checks that the consensus in the state is a complete
// and sound aggregation of the submission set: duplicate-free, missing
// no submitted item, and containing no item that was never submitted.
// It exists to catch aggregation bugs independently of the aggregation
// algorithm.
//
// The unit is stateless and thread-safe.
type ValidationUnit struct {
	name   string
	config ValidationConfig
	tracer trace.Tracer
}

// ValidationConfig defines the configuration parameters for the
// ValidationUnit.
type ValidationConfig struct {
	// FailOnInvalid makes Execute return an error when the consensus
	// fails validation, halting the pipeline. When false the result is
	// only recorded in the state.
	FailOnInvalid bool `yaml:"fail_on_invalid" json:"fail_on_invalid"`
}

// NewValidationUnit creates a new ValidationUnit with the specified
// configuration.
func NewValidationUnit(name string, config ValidationConfig) (*ValidationUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &ValidationUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("validation-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (vu *ValidationUnit) Name() string { return vu.name }

// Execute validates the consensus against the submissions and records
// the result in the state.
func (vu *ValidationUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := vu.tracer.Start(ctx, "ValidationUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "validation"),
			attribute.String("unit.id", vu.name),
			attribute.Bool("config.fail_on_invalid", vu.config.FailOnInvalid),
		),
	)
	defer span.End()

	consensus, ok := domain.Get(state, domain.KeyConsensus)
	if !ok {
		span.RecordError(ErrConsensusNotFound)
		return state, ErrConsensusNotFound
	}

	subs, ok := domain.Get(state, domain.KeySubmissions)
	if !ok {
		span.RecordError(ErrSubmissionsNotFound)
		return state, ErrSubmissionsNotFound
	}

	result := domain.ValidateConsensus(consensus, subs)

	span.SetAttributes(
		attribute.Bool("validation.valid", result.Valid),
		attribute.Int("validation.error_count", len(result.Errors)),
	)

	state = domain.With(state, domain.KeyValidation, &result)

	if !result.Valid && vu.config.FailOnInvalid {
		err := fmt.Errorf("consensus failed validation: %s", strings.Join(result.Errors, "; "))
		span.RecordError(err)
		return state, err
	}
	return state, nil
}

// Validate checks if the unit is properly configured.
func (vu *ValidationUnit) Validate() error { return nil }

// UnmarshalParameters deserializes YAML parameters into the unit's
// config. Unknown fields are rejected to catch configuration typos.
func (vu *ValidationUnit) UnmarshalParameters(params yaml.Node) error {
	var config ValidationConfig
	if err := decodeStrict(params, &config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	vu.config = config
	return nil
}

// DefaultValidationConfig returns a ValidationConfig with engine
// defaults: validation failures halt the pipeline.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{FailOnInvalid: true}
}

// CreateValidationUnit is a factory function that creates a
// ValidationUnit from a configuration map, for use with the
// UnitRegistry.
func CreateValidationUnit(id string, config map[string]any) (*ValidationUnit, error) {
	unitConfig := DefaultValidationConfig()
	if val, ok := config["fail_on_invalid"].(bool); ok {
		unitConfig.FailOnInvalid = val
	}
	return NewValidationUnit(id, unitConfig)
}
