// Package application orchestrates the consensus pipeline: unit
// registration, pipeline construction from configuration, and the
// high-level review service facade.
package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/reviewkit/go-accord/internal/domain"
	"github.com/reviewkit/go-accord/internal/ports"
)

// Compile-time verification that Pipeline implements ports.Pipeline.
var _ ports.Pipeline = (*Pipeline)(nil)

// Pipeline is a sequential execution container that processes
// executables in strict order, each executable's output state feeding
// the next. Consensus workflows are linear by nature: aggregate the
// submissions, validate the result, then explain it.
type Pipeline struct {
	// id identifies this pipeline in configuration and error messages.
	id string
	// executables holds the ordered components to run.
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	// mu guards the executables slice against concurrent Add/Execute.
	mu sync.RWMutex
}

// NewPipeline creates an empty sequential pipeline with the given
// identifier.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:          id,
		executables: make([]ports.Executable, 0),
		idSet:       make(map[string]struct{}),
	}
}

// Execute runs all executables sequentially, passing each output state
// to the next executable. It respects context cancellation between
// steps and wraps any failure with the pipeline and executable IDs.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	p.mu.RLock()
	executables := make([]ports.Executable, len(p.executables))
	copy(executables, p.executables)
	p.mu.RUnlock()

	currentState := state
	for _, exec := range executables {
		select {
		case <-ctx.Done():
			return currentState, ctx.Err()
		default:
			newState, err := exec.Execute(ctx, currentState)
			if err != nil {
				return currentState, fmt.Errorf("pipeline %s: execution failed at %s: %w",
					p.id, exec.ID(), err)
			}
			currentState = newState
		}
	}
	return currentState, nil
}

// ID returns the unique string identifier for this pipeline.
func (p *Pipeline) ID() string { return p.id }

// Add appends an executable to the end of the execution sequence.
// It returns an error for nil executables or duplicate IDs.
// Add is safe for concurrent use with Execute.
func (p *Pipeline) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to pipeline")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	execID := exec.ID()
	if _, exists := p.idSet[execID]; exists {
		return fmt.Errorf("executable with ID %s already exists in pipeline", execID)
	}

	p.executables = append(p.executables, exec)
	p.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of the ordered executable list, safe to
// modify without affecting the pipeline.
func (p *Pipeline) Executables() []ports.Executable {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ports.Executable, len(p.executables))
	copy(result, p.executables)
	return result
}
