package domain

import (
	"fmt"
	"sort"
)

// MergeOrder blends one new ranking into an existing consensus without
// recomputing the average over every historical submission. The
// existing consensus acts as a pseudo-submission with weight 1-weight
// and the new order carries weight; each item's blended position is the
// weighted average of its positions on the sides where it appears.
// Items are then sorted ascending by blended position with a stable
// sort, so ties preserve discovery order (consensus items first, then
// items new to newOrder).
//
// weight must lie in [0, 1] or ErrWeightOutOfRange is returned. An
// empty consensus yields newOrder verbatim and an empty newOrder yields
// the consensus verbatim; both are defined results, not errors. An item
// that appears only on a side carrying zero weight keeps its raw
// observed position, since no weighted evidence exists for it.
func MergeOrder(consensus, newOrder Ranking, weight float64) (Ranking, error) {
	if weight < 0 || weight > 1 {
		return nil, fmt.Errorf("%w: %v (must be within [0, 1])", ErrWeightOutOfRange, weight)
	}

	if len(consensus) == 0 {
		return newOrder.Clone(), nil
	}
	if len(newOrder) == 0 {
		return consensus.Clone(), nil
	}

	type blended struct {
		weightedSum float64
		totalWeight float64
		rawPosition float64
	}

	acc := make(map[string]*blended, len(consensus)+len(newOrder))
	items := make(Ranking, 0, len(consensus)+len(newOrder))

	accumulate := func(order Ranking, w float64) {
		counted := make(map[string]struct{}, len(order))
		for i, item := range order {
			if _, dup := counted[item]; dup {
				continue
			}
			counted[item] = struct{}{}

			b, ok := acc[item]
			if !ok {
				b = &blended{rawPosition: float64(i)}
				acc[item] = b
				items = append(items, item)
			}
			b.weightedSum += float64(i) * w
			b.totalWeight += w
		}
	}

	accumulate(consensus, 1-weight)
	accumulate(newOrder, weight)

	position := make(map[string]float64, len(items))
	for _, item := range items {
		b := acc[item]
		if b.totalWeight == 0 {
			position[item] = b.rawPosition
			continue
		}
		position[item] = b.weightedSum / b.totalWeight
	}

	sort.SliceStable(items, func(i, j int) bool {
		return position[items[i]] < position[items[j]]
	})
	return items, nil
}
