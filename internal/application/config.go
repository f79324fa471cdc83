package application

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reviewkit/go-accord/internal/domain"
)

// PipelineConfig defines the complete specification for a consensus
// pipeline and serves as the configuration entry point for the system.
type PipelineConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the pipeline.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Units defines the ordered pipeline steps, each with its own
	// type-specific configuration.
	Units []UnitConfig `yaml:"units" validate:"required,min=1,dive"`
}

// Metadata provides descriptive information about a pipeline to support
// organization and operational management.
type Metadata struct {
	// Name is the human-readable identifier for this pipeline and must
	// be unique within the deployment scope.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description explains the pipeline's purpose.
	Description string `yaml:"description" validate:"max=1000"`
	// Labels are arbitrary key-value pairs for integration with
	// external systems.
	Labels map[string]string `yaml:"labels" validate:"max=50"`
}

// UnitConfig defines the specification for a single unit within a
// pipeline.
type UnitConfig struct {
	// ID is the unique identifier for this unit within the pipeline.
	ID string `yaml:"id" validate:"required,alphanum,min=1,max=100"`
	// Type specifies the unit implementation to instantiate.
	Type string `yaml:"type" validate:"required,oneof=consensus merge diff validation custom"`
	// Parameters contains type-specific configuration as flexible YAML
	// that is validated according to the unit type requirements.
	Parameters yaml.Node `yaml:"parameters"`
}

// EngineConfig carries the engine-level defaults used by the
// ReviewService when callers do not specify per-call options.
type EngineConfig struct {
	// ExcludeOutliers enables statistical outlier filtering during
	// consensus computation.
	ExcludeOutliers bool `yaml:"exclude_outliers" json:"exclude_outliers"`
	// OutlierThreshold is the standard-deviation multiplier for
	// outlier classification. Zero selects the engine default.
	OutlierThreshold float64 `yaml:"outlier_threshold" json:"outlier_threshold" validate:"min=0"`
	// MergeWeight is the default influence of a newly merged order.
	MergeWeight float64 `yaml:"merge_weight" json:"merge_weight" validate:"min=0,max=1"`
}

// DefaultEngineConfig returns the engine defaults: no outlier
// filtering, the standard outlier threshold, and full merge weight.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ExcludeOutliers:  false,
		OutlierThreshold: domain.DefaultOutlierThreshold,
		MergeWeight:      1,
	}
}

// Validate checks the engine configuration against its constraints.
func (c EngineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("engine configuration invalid: %w", err)
	}
	return nil
}
