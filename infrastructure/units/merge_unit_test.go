package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewkit/go-accord/internal/domain"
)

func TestNewMergeUnit(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		config  MergeConfig
		wantErr bool
	}{
		{
			name:   "valid configuration",
			id:     "merge",
			config: DefaultMergeConfig(),
		},
		{
			name:    "empty name rejected",
			id:      "",
			config:  DefaultMergeConfig(),
			wantErr: true,
		},
		{
			name:    "weight above one rejected",
			id:      "merge",
			config:  MergeConfig{Weight: 1.5},
			wantErr: true,
		},
		{
			name:    "negative weight rejected",
			id:      "merge",
			config:  MergeConfig{Weight: -0.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewMergeUnit(tt.id, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, unit.Name())
		})
	}
}

func TestMergeUnit_Execute(t *testing.T) {
	unit, err := NewMergeUnit("merge", MergeConfig{Weight: 1})
	require.NoError(t, err)

	state := domain.With(domain.NewState(), domain.KeyConsensus, domain.Ranking{"a", "b", "c"})
	state = domain.With(state, domain.KeyProposedOrder, domain.Ranking{"c", "b", "a"})

	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	merged, ok := domain.Get(out, domain.KeyConsensus)
	require.True(t, ok)
	assert.Equal(t, domain.Ranking{"c", "b", "a"}, merged,
		"full weight lets the proposed order dominate")
}

func TestMergeUnit_Execute_MissingProposedOrder(t *testing.T) {
	unit, err := NewMergeUnit("merge", DefaultMergeConfig())
	require.NoError(t, err)

	state := domain.With(domain.NewState(), domain.KeyConsensus, domain.Ranking{"a"})
	_, err = unit.Execute(context.Background(), state)
	assert.ErrorIs(t, err, ErrProposedOrderNotFound)
}

func TestMergeUnit_Execute_MissingConsensus(t *testing.T) {
	unit, err := NewMergeUnit("merge", MergeConfig{Weight: 0.5})
	require.NoError(t, err)

	state := domain.With(domain.NewState(), domain.KeyProposedOrder, domain.Ranking{"x", "y"})

	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	merged, ok := domain.Get(out, domain.KeyConsensus)
	require.True(t, ok)
	assert.Equal(t, domain.Ranking{"x", "y"}, merged,
		"the first proposed order of a review becomes the consensus")
}

func TestMergeUnit_UnmarshalParameters(t *testing.T) {
	unit, err := NewMergeUnit("merge", DefaultMergeConfig())
	require.NoError(t, err)

	require.NoError(t, unit.UnmarshalParameters(yamlParams(t, "weight: 0.25\n")))
	assert.InDelta(t, 0.25, unit.config.Weight, 1e-9)

	assert.Error(t, unit.UnmarshalParameters(yamlParams(t, "weight: 2\n")),
		"out-of-range weight must be rejected")
	assert.Error(t, unit.UnmarshalParameters(yamlParams(t, "weigth: 0.5\n")),
		"typo in parameter name must be rejected")
}

func TestCreateMergeUnit(t *testing.T) {
	unit, err := CreateMergeUnit("m1", map[string]any{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, unit.config.Weight, 1e-9, "default weight is full influence")

	unit, err = CreateMergeUnit("m2", map[string]any{"weight": 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, unit.config.Weight, 1e-9)
}
