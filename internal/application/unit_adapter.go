package application

import (
	"context"

	"github.com/reviewkit/go-accord/internal/domain"
	"github.com/reviewkit/go-accord/internal/ports"
)

// UnitAdapter wraps a ports.Unit so it can participate in pipeline
// execution as a ports.Executable. The adapter carries its own ID,
// which lets a pipeline reference the same unit type under several
// configured identities.
type UnitAdapter struct {
	unit ports.Unit
	id   string
}

// NewUnitAdapter creates an adapter exposing the unit under the given
// executable ID.
func NewUnitAdapter(unit ports.Unit, id string) *UnitAdapter {
	return &UnitAdapter{unit: unit, id: id}
}

// Execute delegates to the underlying unit, passing context, state,
// and results through unchanged.
func (ua *UnitAdapter) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	return ua.unit.Execute(ctx, state)
}

// ID returns the unique string identifier for this adapter.
func (ua *UnitAdapter) ID() string { return ua.id }
