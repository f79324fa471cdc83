package domain

import (
	"fmt"
	"maps"
	"reflect"
	"time"
)

// Key is a type-safe generic key for accessing values in State. The
// type parameter ensures compile-time safety when getting and setting
// values, eliminating runtime type assertions at call sites.
type Key[T any] struct{ name string }

// NewKey creates a Key with the specified name and type for callers
// outside the domain package.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Predefined state keys used by the consensus pipeline.
var (
	// KeySubmissions stores the submission set under aggregation.
	KeySubmissions = Key[[]Submission]{"submissions"}

	// KeyConsensus stores the current consensus ranking.
	KeyConsensus = Key[Ranking]{"consensus"}

	// KeyMetadata stores the derived agreement metadata.
	KeyMetadata = Key[*ConsensusMetadata]{"metadata"}

	// KeyProposedOrder stores a single incoming ranking, used by the
	// merge and diff units.
	KeyProposedOrder = Key[Ranking]{"proposed_order"}

	// KeyDiff stores the structural difference between the consensus
	// and the proposed order.
	KeyDiff = Key[*DiffResult]{"diff"}

	// KeyRenames stores probable renames detected between two rankings.
	KeyRenames = Key[[]Rename]{"renames"}

	// KeyValidation stores the consensus completeness check result.
	KeyValidation = Key[*ValidationResult]{"validation"}

	// Execution context keys for tracking metadata across pipeline runs.

	// KeyPipelineID stores the identifier of the pipeline being run.
	KeyPipelineID = Key[string]{"execution.pipeline_id"}

	// KeyReviewID stores the identifier of the review whose file order
	// is being negotiated.
	KeyReviewID = Key[string]{"execution.review_id"}

	// KeyExecutionID stores a unique identifier for this specific run,
	// useful for tracing and correlation.
	KeyExecutionID = Key[string]{"execution.execution_id"}
)

// deepCopyValue creates a deep copy of a value so State contents can
// never be mutated through slices, maps, or pointers retained by
// callers. This is the mechanism behind the engine's guarantee that it
// neither mutates caller-owned rankings nor returns aliased storage.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	// time.Time is immutable and can be returned directly.
	if val, ok := value.(time.Time); ok {
		return val
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newSlice.Interface()

	case reflect.Map:
		newMap := reflect.MakeMap(v.Type())
		for _, key := range v.MapKeys() {
			copiedKey := deepCopyValue(key.Interface())
			copiedValue := deepCopyValue(v.MapIndex(key).Interface())
			newMap.SetMapIndex(reflect.ValueOf(copiedKey), reflect.ValueOf(copiedValue))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(reflect.ValueOf(deepCopyValue(v.Elem().Interface())))
		return newPtr.Interface()

	case reflect.Struct:
		// Deep copies exported fields; unexported fields are skipped.
		newStruct := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(reflect.ValueOf(deepCopyValue(v.Field(i).Interface())))
			}
		}
		return newStruct.Interface()

	default:
		// Primitive types are copied by value.
		return value
	}
}

// State is an immutable collection of pipeline data with copy-on-write
// semantics. It is the carrier for submissions, rankings, and derived
// results flowing between units, and is safe to share across
// goroutines without locking.
type State struct {
	data map[string]any
}

// NewState creates an empty State ready for use.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns a deep copy of the stored value and a boolean indicating
// whether the key exists with the expected type.
//
// Example:
//
//	subs, ok := Get(state, KeySubmissions)
//	if !ok {
//	    // handle missing value
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// With creates a new State with the key-value pair added or updated,
// leaving the original State untouched.
//
// Example:
//
//	newState := With(state, KeyConsensus, ranking)
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// WithMultiple creates a new State with several key-value pairs added
// or updated in a single clone, which is cheaper than chaining With.
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Keys returns all keys present in the State. The returned slice is
// safe to modify.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// String returns a debugging representation of the State.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// ExecutionContext carries metadata about the current pipeline run,
// giving middleware and observability hooks consistent access to run
// identity.
type ExecutionContext struct {
	// PipelineID identifies the pipeline configuration being run.
	PipelineID string

	// ReviewID identifies the review whose file order is negotiated.
	ReviewID string

	// ExecutionID uniquely identifies this run for tracing.
	ExecutionID string
}

// WithExecutionContext returns a new State carrying the run metadata.
// Call it once at the start of a pipeline run.
func (s State) WithExecutionContext(ctx ExecutionContext) State {
	return s.WithMultiple(map[string]any{
		KeyPipelineID.name:  ctx.PipelineID,
		KeyReviewID.name:    ctx.ReviewID,
		KeyExecutionID.name: ctx.ExecutionID,
	})
}

// GetExecutionContext extracts run metadata from the State, reporting
// whether all context fields are present.
func (s State) GetExecutionContext() (ExecutionContext, bool) {
	pipelineID, ok1 := Get(s, KeyPipelineID)
	reviewID, ok2 := Get(s, KeyReviewID)
	executionID, ok3 := Get(s, KeyExecutionID)

	if !ok1 || !ok2 || !ok3 {
		return ExecutionContext{}, false
	}

	return ExecutionContext{
		PipelineID:  pipelineID,
		ReviewID:    reviewID,
		ExecutionID: executionID,
	}, true
}
