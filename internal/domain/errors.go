package domain

import (
	"errors"
	"fmt"
)

// Common domain errors raised by consensus engine operations. All of
// them belong to the "caller supplied invalid input" class; the engine
// performs no I/O and has no transient failure modes.
var (
	// ErrWeightOutOfRange indicates a merge weight outside [0, 1].
	ErrWeightOutOfRange = errors.New("merge weight out of range")

	// ErrInvalidOptions indicates consensus options outside their
	// documented domain, such as a negative outlier threshold.
	ErrInvalidOptions = errors.New("invalid consensus options")

	// ErrMissingOrder indicates that an operation requiring a ranking
	// received none at all (as opposed to an empty ranking, which is a
	// defined input).
	ErrMissingOrder = errors.New("no order provided")
)

// ValidationError accumulates every violation found while checking a
// consensus instead of failing on the first one, so callers can report
// the complete picture to reviewers.
type ValidationError struct {
	// Entity names what was being validated, e.g. "consensus".
	Entity string

	// Errors holds the individual violation messages.
	Errors []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Add appends a violation message.
func (e *ValidationError) Add(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors reports whether any violations were recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates an empty ValidationError for the entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity, Errors: make([]string, 0)}
}
