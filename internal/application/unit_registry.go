package application

import (
	"fmt"
	"sync"

	"github.com/reviewkit/go-accord/infrastructure/units"
	"github.com/reviewkit/go-accord/internal/ports"
)

// Compile-time verification of interface compliance.
var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// DefaultUnitRegistry implements the UnitRegistry interface, providing
// a factory for creating pipeline units based on type and
// configuration. It supports dynamic registration of unit factories
// for custom unit types.
type DefaultUnitRegistry struct {
	// factories maps unit type strings to their factory functions.
	factories map[string]ports.UnitFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultUnitRegistry creates a unit registry with the standard unit
// types pre-registered: consensus, merge, diff, and validation.
func NewDefaultUnitRegistry() *DefaultUnitRegistry {
	registry := &DefaultUnitRegistry{
		factories: make(map[string]ports.UnitFactory),
	}
	registry.registerBuiltinFactories()
	return registry
}

// registerBuiltinFactories registers the standard unit types provided
// by the engine.
func (r *DefaultUnitRegistry) registerBuiltinFactories() {
	r.factories["consensus"] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateConsensusUnit(id, config)
	}
	r.factories["merge"] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateMergeUnit(id, config)
	}
	r.factories["diff"] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateDiffUnit(id, config)
	}
	r.factories["validation"] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateValidationUnit(id, config)
	}
}

// CreateUnit creates a new unit instance based on the provided type,
// identifier, and configuration. It looks up the appropriate factory
// and delegates unit creation.
func (r *DefaultUnitRegistry) CreateUnit(
	unitType string,
	id string,
	config map[string]any,
) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported unit type: %s", unitType)
	}
	if id == "" {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}
	if config == nil {
		config = make(map[string]any)
	}

	unit, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}
	return unit, nil
}

// RegisterUnitFactory registers a new factory function for a specific
// unit type, extending the registry with custom units at runtime.
func (r *DefaultUnitRegistry) RegisterUnitFactory(
	unitType string,
	factory ports.UnitFactory,
) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[unitType] = factory
	return nil
}

// GetSupportedTypes returns a list of all registered unit types.
func (r *DefaultUnitRegistry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for unitType := range r.factories {
		types = append(types, unitType)
	}
	return types
}
