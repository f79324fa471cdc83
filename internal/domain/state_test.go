package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewState verifies that a new State instance is initialized
// correctly.
func TestNewState(t *testing.T) {
	state := NewState()

	assert.NotNil(t, state.data, "NewState() should initialize the data map.")
	assert.Empty(t, state.data, "NewState() should create an empty state.")
}

// TestState_Get tests the retrieval of values from a State instance
// across the key types the pipeline uses.
func TestState_Get(t *testing.T) {
	tests := []struct {
		name   string
		setup  func() State
		assert func(t *testing.T, state State)
	}{
		{
			name: "get existing consensus",
			setup: func() State {
				return With(NewState(), KeyConsensus, Ranking{"a", "b"})
			},
			assert: func(t *testing.T, state State) {
				got, ok := Get(state, KeyConsensus)
				assert.True(t, ok, "Get() should find an existing key.")
				assert.Equal(t, Ranking{"a", "b"}, got)
			},
		},
		{
			name: "get non-existent key",
			setup: func() State {
				return NewState()
			},
			assert: func(t *testing.T, state State) {
				_, ok := Get(state, KeyConsensus)
				assert.False(t, ok, "Get() should not find a non-existent key.")
			},
		},
		{
			name: "get submissions slice",
			setup: func() State {
				subs := []Submission{
					{Participant: "alice", Order: Ranking{"a"}},
					{Participant: "bob", Order: Ranking{"b"}},
				}
				return With(NewState(), KeySubmissions, subs)
			},
			assert: func(t *testing.T, state State) {
				got, ok := Get(state, KeySubmissions)
				assert.True(t, ok, "Get() should find the submissions.")
				assert.Len(t, got, 2)
				assert.Equal(t, "alice", got[0].Participant)
			},
		},
		{
			name: "get metadata pointer",
			setup: func() State {
				return With(NewState(), KeyMetadata, &ConsensusMetadata{ParticipantCount: 3})
			},
			assert: func(t *testing.T, state State) {
				got, ok := Get(state, KeyMetadata)
				require.True(t, ok)
				require.NotNil(t, got)
				assert.Equal(t, 3, got.ParticipantCount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.setup()
			tt.assert(t, state)
		})
	}
}

// TestState_CopyOnWrite verifies that With never mutates the original
// state and that retrieved values never alias stored ones.
func TestState_CopyOnWrite(t *testing.T) {
	original := With(NewState(), KeyConsensus, Ranking{"a", "b"})
	updated := With(original, KeyConsensus, Ranking{"c"})

	fromOriginal, ok := Get(original, KeyConsensus)
	require.True(t, ok)
	assert.Equal(t, Ranking{"a", "b"}, fromOriginal, "original state must be unchanged")

	fromUpdated, ok := Get(updated, KeyConsensus)
	require.True(t, ok)
	assert.Equal(t, Ranking{"c"}, fromUpdated)

	// Mutating a retrieved value must not leak back into the state.
	fromOriginal[0] = "mutated"
	again, _ := Get(original, KeyConsensus)
	assert.Equal(t, "a", again[0], "stored value must not alias retrieved slices")
}

func TestState_StoredValueDoesNotAliasInput(t *testing.T) {
	order := Ranking{"a", "b"}
	state := With(NewState(), KeyConsensus, order)

	order[0] = "mutated"
	got, _ := Get(state, KeyConsensus)
	assert.Equal(t, "a", got[0], "state must deep copy on write")
}

// TestState_WithMultiple verifies batch updates land atomically in a
// single new state.
func TestState_WithMultiple(t *testing.T) {
	state := NewState().WithMultiple(map[string]any{
		"consensus":      Ranking{"a"},
		"proposed_order": Ranking{"b"},
	})

	consensus, ok := Get(state, KeyConsensus)
	require.True(t, ok)
	assert.Equal(t, Ranking{"a"}, consensus)

	proposed, ok := Get(state, KeyProposedOrder)
	require.True(t, ok)
	assert.Equal(t, Ranking{"b"}, proposed)
	assert.Len(t, state.Keys(), 2)
}

// TestState_ExecutionContext verifies the round trip of run metadata.
func TestState_ExecutionContext(t *testing.T) {
	execCtx := ExecutionContext{
		PipelineID:  "pipeline-1",
		ReviewID:    "review-42",
		ExecutionID: "exec-abc",
	}

	state := NewState().WithExecutionContext(execCtx)

	got, ok := state.GetExecutionContext()
	require.True(t, ok)
	assert.Equal(t, execCtx, got)
}

func TestState_ExecutionContextMissing(t *testing.T) {
	state := With(NewState(), KeyPipelineID, "only-pipeline")

	_, ok := state.GetExecutionContext()
	assert.False(t, ok, "partial context must not be reported as present")
}
