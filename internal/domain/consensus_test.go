package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subsFromOrders(orders ...Ranking) []Submission {
	subs := make([]Submission, 0, len(orders))
	for i, o := range orders {
		subs = append(subs, Submission{
			Participant: string(rune('a' + i)),
			Order:       o,
		})
	}
	return subs
}

// TestComputeConsensus covers the core aggregation behavior including
// defined empty-input results.
func TestComputeConsensus(t *testing.T) {
	tests := []struct {
		name string
		subs []Submission
		opts ConsensusOptions
		want Ranking
	}{
		{
			name: "tie preserves discovery order",
			subs: subsFromOrders(Ranking{"a", "b", "c"}, Ranking{"b", "a", "c"}),
			want: Ranking{"a", "b", "c"},
		},
		{
			name: "empty submissions",
			subs: nil,
			want: Ranking{},
		},
		{
			name: "all orders empty",
			subs: subsFromOrders(Ranking{}, nil),
			want: Ranking{},
		},
		{
			name: "empty orders dropped before aggregation",
			subs: subsFromOrders(Ranking{"x", "y"}, nil, Ranking{"y", "x"}, Ranking{"y", "x"}),
			want: Ranking{"y", "x"},
		},
		{
			name: "majority outvotes minority",
			subs: subsFromOrders(
				Ranking{"a", "b", "c"},
				Ranking{"a", "b", "c"},
				Ranking{"c", "b", "a"},
			),
			want: Ranking{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeConsensus(tt.subs, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestComputeConsensus_SingleVoterIdempotence verifies that the
// consensus of one voter is that voter's order, unchanged.
func TestComputeConsensus_SingleVoterIdempotence(t *testing.T) {
	order := Ranking{"c", "a", "b"}
	got, err := ComputeConsensus(subsFromOrders(order), DefaultConsensusOptions())
	require.NoError(t, err)
	assert.Equal(t, order, got)

	// The result must not alias the caller's slice.
	got[0] = "mutated"
	assert.Equal(t, "c", order[0])
}

func TestComputeConsensus_NegativeThreshold(t *testing.T) {
	_, err := ComputeConsensus(
		subsFromOrders(Ranking{"a"}, Ranking{"a"}),
		ConsensusOptions{ExcludeOutliers: true, OutlierThreshold: -1},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

// TestComputeConsensus_OutlierFiltering verifies that an order sharing
// no items with the group consensus is dropped when filtering is
// enabled and leaks into the union when it is not.
func TestComputeConsensus_OutlierFiltering(t *testing.T) {
	agree := Ranking{"a", "b", "c"}
	subs := subsFromOrders(
		agree,
		agree,
		agree,
		Ranking{"x", "y"}, // no overlap with the rest of the group
	)

	filtered, err := ComputeConsensus(subs, ConsensusOptions{ExcludeOutliers: true, OutlierThreshold: 1})
	require.NoError(t, err)
	assert.Equal(t, agree, filtered)

	unfiltered, err := ComputeConsensus(subs, ConsensusOptions{})
	require.NoError(t, err)
	assert.Equal(t, Ranking{"a", "x", "b", "y", "c"}, unfiltered)
	assert.NotEqual(t, filtered, unfiltered)
}

// TestComputeConsensus_OutlierSafetyValve verifies that filtering
// reverts to the unfiltered set when it would discard more than half
// of the orders.
func TestComputeConsensus_OutlierSafetyValve(t *testing.T) {
	// Three mutually disjoint orders with a near-zero threshold: only
	// the order closest to the mean distance survives, which is fewer
	// than half of the set.
	subs := subsFromOrders(
		Ranking{"a1", "a2"},
		Ranking{"b1", "b2"},
		Ranking{"c1", "c2"},
	)

	filtered, err := ComputeConsensus(subs, ConsensusOptions{ExcludeOutliers: true, OutlierThreshold: 0.1})
	require.NoError(t, err)

	unfiltered, err := ComputeConsensus(subs, ConsensusOptions{})
	require.NoError(t, err)

	assert.Equal(t, unfiltered, filtered,
		"filtering that would strip more than half the orders must be abandoned")
}

func TestComputeConsensus_FilteringSkippedForTwoOrders(t *testing.T) {
	subs := subsFromOrders(Ranking{"a", "b"}, Ranking{"b", "a"})
	got, err := ComputeConsensus(subs, ConsensusOptions{ExcludeOutliers: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, Ranking{"a", "b"}, got)
}

// TestComputeConsensusMetadata_Empty verifies the zeroed defined result
// for empty inputs.
func TestComputeConsensusMetadata_Empty(t *testing.T) {
	md := ComputeConsensusMetadata(nil, Ranking{})

	assert.Equal(t, 0, md.ParticipantCount)
	assert.Zero(t, md.AgreementScore)
	assert.Empty(t, md.Conflicts)
	assert.Empty(t, md.MostRecentTimestamp)
}

// TestComputeConsensusMetadata_PerfectAgreement verifies the score is
// exactly 1 when every submission equals the consensus.
func TestComputeConsensusMetadata_PerfectAgreement(t *testing.T) {
	order := Ranking{"a", "b", "c"}
	subs := subsFromOrders(order, order, order)

	md := ComputeConsensusMetadata(subs, order)

	assert.Equal(t, 3, md.ParticipantCount)
	assert.InDelta(t, 1.0, md.AgreementScore, 1e-9)
	assert.Empty(t, md.Conflicts)
}

// TestComputeConsensusMetadata_ScoreBounds verifies the agreement score
// stays within [0, 1] even for maximally scrambled submissions.
func TestComputeConsensusMetadata_ScoreBounds(t *testing.T) {
	consensus := Ranking{"a", "b", "c", "d", "e", "f"}
	subs := subsFromOrders(
		Ranking{"f", "e", "d", "c", "b", "a"},
		Ranking{"d", "f", "b", "e", "a", "c"},
	)

	md := ComputeConsensusMetadata(subs, consensus)

	assert.GreaterOrEqual(t, md.AgreementScore, 0.0)
	assert.LessOrEqual(t, md.AgreementScore, 1.0)
}

// TestComputeConsensusMetadata_Conflicts verifies detection and
// ordering of contested items.
func TestComputeConsensusMetadata_Conflicts(t *testing.T) {
	consensus := Ranking{"a", "b", "c"}
	subs := subsFromOrders(
		Ranking{"a", "b", "c"},
		Ranking{"c", "b", "a"}, // a and c swap ends, b is stable
	)

	md := ComputeConsensusMetadata(subs, consensus)

	require.Len(t, md.Conflicts, 2)
	items := []string{md.Conflicts[0].Item, md.Conflicts[1].Item}
	assert.ElementsMatch(t, []string{"a", "c"}, items)
	for _, c := range md.Conflicts {
		assert.Len(t, c.Positions, 2)
		assert.InDelta(t, 1.0, c.AveragePosition, 1e-9)
		assert.InDelta(t, 1.0, c.StdDev, 1e-9)
	}
}

func TestComputeConsensusMetadata_ItemSeenOnceIsNotConflict(t *testing.T) {
	consensus := Ranking{"a", "b"}
	subs := subsFromOrders(
		Ranking{"a"},
		Ranking{"a", "b"},
	)

	md := ComputeConsensusMetadata(subs, consensus)
	for _, c := range md.Conflicts {
		assert.NotEqual(t, "b", c.Item, "an item observed once has no variance")
	}
}

// TestComputeConsensusMetadata_MostRecentTimestamp verifies timestamp
// selection skips missing and unparseable values.
func TestComputeConsensusMetadata_MostRecentTimestamp(t *testing.T) {
	consensus := Ranking{"a"}
	subs := []Submission{
		{Participant: "p1", Order: Ranking{"a"}, Timestamp: "2025-03-10T12:00:00Z"},
		{Participant: "p2", Order: Ranking{"a"}, Timestamp: "not-a-timestamp"},
		{Participant: "p3", Order: Ranking{"a"}, Timestamp: "2025-03-11T08:30:00Z"},
		{Participant: "p4", Order: Ranking{"a"}},
	}

	md := ComputeConsensusMetadata(subs, consensus)
	assert.Equal(t, "2025-03-11T08:30:00Z", md.MostRecentTimestamp)
}

func TestComputeConsensusMetadata_NoParseableTimestamps(t *testing.T) {
	subs := []Submission{
		{Participant: "p1", Order: Ranking{"a"}, Timestamp: "garbage"},
	}
	md := ComputeConsensusMetadata(subs, Ranking{"a"})
	assert.Empty(t, md.MostRecentTimestamp)
}

// TestValidateConsensus covers duplicate, missing, and extra item
// detection with accumulated errors.
func TestValidateConsensus(t *testing.T) {
	tests := []struct {
		name       string
		consensus  Ranking
		subs       []Submission
		wantValid  bool
		wantErrors int
	}{
		{
			name:      "sound consensus",
			consensus: Ranking{"a", "b", "c"},
			subs:      subsFromOrders(Ranking{"a", "b"}, Ranking{"b", "c"}),
			wantValid: true,
		},
		{
			name:       "duplicate items",
			consensus:  Ranking{"a", "a", "b"},
			subs:       subsFromOrders(Ranking{"a", "b"}),
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "missing submitted item",
			consensus:  Ranking{"a"},
			subs:       subsFromOrders(Ranking{"a", "b"}),
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "item absent from every submission",
			consensus:  Ranking{"a", "ghost"},
			subs:       subsFromOrders(Ranking{"a"}),
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "multiple violations accumulate",
			consensus:  Ranking{"a", "a", "ghost"},
			subs:       subsFromOrders(Ranking{"a", "b"}),
			wantValid:  false,
			wantErrors: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateConsensus(tt.consensus, tt.subs)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Len(t, res.Errors, tt.wantErrors)
		})
	}
}

// TestValidateConsensus_RoundTrip verifies the completeness property:
// a computed consensus always validates against its own submissions.
func TestValidateConsensus_RoundTrip(t *testing.T) {
	subs := subsFromOrders(
		Ranking{"a", "b", "c"},
		Ranking{"c", "a", "d"},
		Ranking{"b", "d"},
	)

	consensus, err := ComputeConsensus(subs, ConsensusOptions{})
	require.NoError(t, err)

	res := ValidateConsensus(consensus, subs)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}
