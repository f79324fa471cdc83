// Package ports defines the interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/reviewkit/go-accord/internal/domain"
)

// Unit is the fundamental building block of the consensus pipeline.
// Each Unit performs one transformation on the pipeline State, such as
// aggregating submissions or diffing two rankings.
// Units must be stateless and thread-safe for concurrent execution.
type Unit interface {
	// Name returns a unique identifier for this unit, used for
	// configuration references, metrics labels, and error reporting.
	Name() string

	// Execute performs the unit's transformation on the provided State
	// and returns a new State containing the results. The input State
	// must not be modified; domain.State is copy-on-write, so use
	// domain.With to record results.
	//
	// The context allows cancellation and deadline propagation, which
	// matters when units run inside larger pipelines even though the
	// transformations themselves are pure in-memory computations.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks that the unit is properly configured and ready
	// for execution. It is typically called during pipeline
	// construction. Return nil if validation passes.
	Validate() error
}

// UnitFactory creates a configured unit instance from an identifier and
// a configuration map, typically decoded from a pipeline YAML file.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// UnitRegistry is a factory registry for creating pipeline units by
// type name. Implementations must be safe for concurrent use.
type UnitRegistry interface {
	// CreateUnit builds a unit of the given type with the supplied
	// identifier and configuration. It returns an error for unknown
	// types, empty identifiers, or invalid configuration.
	CreateUnit(unitType, id string, config map[string]any) (Unit, error)

	// RegisterUnitFactory registers a factory for a unit type, allowing
	// callers to extend the registry with custom units at runtime.
	RegisterUnitFactory(unitType string, factory UnitFactory) error

	// GetSupportedTypes lists every registered unit type.
	GetSupportedTypes() []string
}
