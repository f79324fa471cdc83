package domain

import (
	"math"
	"sort"
)

// AveragePosition returns the arithmetic mean of item's zero-based index
// across every ranking that contains it. Rankings that do not contain
// the item are excluded from both the numerator and the denominator;
// absence is not treated as "infinitely far away". It returns -1 when
// the item appears in none of the rankings, so callers must check the
// sentinel before using the value as a position.
func AveragePosition(rankings []Ranking, item string) float64 {
	var sum float64
	var count int
	for _, r := range rankings {
		if idx := r.IndexOf(item); idx >= 0 {
			sum += float64(idx)
			count++
		}
	}
	if count == 0 {
		return -1
	}
	return sum / float64(count)
}

// AggregateByAveragePosition computes the union of all items appearing
// in any ranking and returns them sorted ascending by average position.
// Items with equal averages keep the order in which they were first
// discovered across the ranking list; the sort is stable, so the output
// is deterministic for a given input sequence.
func AggregateByAveragePosition(rankings []Ranking) Ranking {
	if len(rankings) == 0 {
		return Ranking{}
	}

	seen := make(map[string]struct{})
	items := make(Ranking, 0)
	for _, r := range rankings {
		for _, item := range r {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			items = append(items, item)
		}
	}

	avg := make(map[string]float64, len(items))
	for _, item := range items {
		avg[item] = AveragePosition(rankings, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return avg[items[i]] < avg[items[j]]
	})
	return items
}

// OrderDistance measures how far apart two rankings are: the mean
// absolute positional difference over the items common to both.
// Dividing by the common-item count keeps the metric comparable across
// rankings of different lengths. When the rankings share no items the
// distance is +Inf, marking the pair as non-comparable rather than
// silently identical.
func OrderDistance(a, b Ranking) float64 {
	posB := b.positions()
	counted := make(map[string]struct{}, len(a))

	var sum float64
	var common int
	for i, item := range a {
		if _, dup := counted[item]; dup {
			continue
		}
		counted[item] = struct{}{}
		if j, ok := posB[item]; ok {
			sum += math.Abs(float64(i - j))
			common++
		}
	}
	if common == 0 {
		return math.Inf(1)
	}
	return sum / float64(common)
}
