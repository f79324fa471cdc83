package ports

import (
	"context"

	"github.com/reviewkit/go-accord/internal/domain"
)

// Executable is the contract for components that participate in
// pipeline execution: individual units wrapped in adapters, or whole
// pipelines composed of them.
type Executable interface {
	// Execute processes the given state and returns the updated state
	// along with any execution error.
	//
	// The input state is immutable and must not be modified;
	// domain.State uses copy-on-write semantics. Multiple executables
	// may receive the same state instance concurrently.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// ID returns the unique string identifier for this executable.
	// The ID must remain constant throughout the executable's lifetime.
	ID() string
}

// Pipeline is a sequential execution container that runs executables in
// strict order, each one's output state feeding the next. A review
// order pipeline is inherently linear: aggregate, then validate, then
// explain.
type Pipeline interface {
	Executable

	// Add appends an executable to the end of the execution sequence.
	// It returns an error for nil executables or duplicate IDs.
	Add(exec Executable) error

	// Executables returns the ordered list of executables. The returned
	// slice must not be modified by callers.
	Executables() []Executable
}
