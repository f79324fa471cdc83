package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAveragePosition verifies mean index computation across rankings,
// including the -1 sentinel for absent items.
func TestAveragePosition(t *testing.T) {
	tests := []struct {
		name     string
		rankings []Ranking
		item     string
		want     float64
	}{
		{
			name:     "item in all rankings",
			rankings: []Ranking{{"a", "b", "c"}, {"b", "a", "c"}},
			item:     "a",
			want:     0.5,
		},
		{
			name:     "item in one ranking only",
			rankings: []Ranking{{"a", "b"}, {"c", "d"}},
			item:     "d",
			want:     1,
		},
		{
			name:     "item absent everywhere",
			rankings: []Ranking{{"a", "b"}, {"c"}},
			item:     "z",
			want:     -1,
		},
		{
			name:     "no rankings",
			rankings: nil,
			item:     "a",
			want:     -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AveragePosition(tt.rankings, tt.item)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

// TestAggregateByAveragePosition covers union behavior, tie breaking by
// discovery order, and empty input.
func TestAggregateByAveragePosition(t *testing.T) {
	tests := []struct {
		name     string
		rankings []Ranking
		want     Ranking
	}{
		{
			name:     "tie broken by discovery order",
			rankings: []Ranking{{"a", "b", "c"}, {"b", "a", "c"}},
			want:     Ranking{"a", "b", "c"},
		},
		{
			name:     "union includes one-sided items",
			rankings: []Ranking{{"a", "b"}, {"a", "b", "c"}},
			want:     Ranking{"a", "b", "c"},
		},
		{
			name:     "clear disagreement resolved by average",
			rankings: []Ranking{{"x", "y"}, {"y", "x"}, {"y", "x"}},
			want:     Ranking{"y", "x"},
		},
		{
			name:     "empty input",
			rankings: nil,
			want:     Ranking{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateByAveragePosition(tt.rankings)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestAggregateByAveragePosition_OrderInvariance checks that the
// aggregate depends only on the multiset of rankings, not the order in
// which they are supplied.
func TestAggregateByAveragePosition_OrderInvariance(t *testing.T) {
	r1 := Ranking{"a", "b", "c", "d"}
	r2 := Ranking{"b", "a", "d", "c"}
	r3 := Ranking{"a", "c", "b", "d"}

	// Average positions here are all distinct, so the result must be
	// identical regardless of supply order.
	forward := AggregateByAveragePosition([]Ranking{r1, r2, r3})
	backward := AggregateByAveragePosition([]Ranking{r3, r2, r1})

	assert.Equal(t, forward, backward)
}

// TestOrderDistance verifies the mean absolute positional distance over
// common items and the +Inf result for disjoint rankings.
func TestOrderDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Ranking
		want float64
	}{
		{
			name: "identical rankings",
			a:    Ranking{"a", "b", "c"},
			b:    Ranking{"a", "b", "c"},
			want: 0,
		},
		{
			name: "single swap",
			a:    Ranking{"a", "b", "c"},
			b:    Ranking{"a", "c", "b"},
			want: 2.0 / 3.0,
		},
		{
			name: "full reversal",
			a:    Ranking{"a", "b", "c"},
			b:    Ranking{"c", "b", "a"},
			want: 4.0 / 3.0,
		},
		{
			name: "partial overlap ignores one-sided items",
			a:    Ranking{"a", "b", "x"},
			b:    Ranking{"a", "b", "y"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, OrderDistance(tt.a, tt.b), 1e-9)
		})
	}
}

func TestOrderDistance_Disjoint(t *testing.T) {
	d := OrderDistance(Ranking{"a", "b"}, Ranking{"x", "y"})
	assert.True(t, math.IsInf(d, 1), "disjoint rankings should be infinitely far apart")
}

func TestOrderDistance_Symmetric(t *testing.T) {
	a := Ranking{"a", "b", "c", "d"}
	b := Ranking{"d", "a", "c", "b"}
	assert.InDelta(t, OrderDistance(a, b), OrderDistance(b, a), 1e-9)
}
