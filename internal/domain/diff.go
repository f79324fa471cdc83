package domain

import (
	"math"
)

// MoveDirection indicates which way an item moved between two rankings.
type MoveDirection string

const (
	// MoveUp means the item appears earlier in the second ranking.
	MoveUp MoveDirection = "up"

	// MoveDown means the item appears later in the second ranking.
	MoveDown MoveDirection = "down"
)

// LargeMoveThreshold is the absolute distance beyond which a move is
// flagged as large. It is a presentation-relevance cutoff, not a
// correctness one.
const LargeMoveThreshold = 10

// MovedItem describes one item present in both rankings at different
// positions. Distance is signed: ToIndex minus FromIndex.
type MovedItem struct {
	Item        string        `json:"item"`
	FromIndex   int           `json:"from_index"`
	ToIndex     int           `json:"to_index"`
	Direction   MoveDirection `json:"direction"`
	Distance    int           `json:"distance"`
	IsLargeMove bool          `json:"is_large_move"`
}

// Rename pairs a removed item with an added item whose identifier is
// similar enough to suggest the same file under a new path.
type Rename struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Similarity float64 `json:"similarity"`
}

// DiffResult is the structural difference between two rankings, used to
// explain how one order differs from another, e.g. a participant's own
// order versus the group consensus.
type DiffResult struct {
	// Unchanged lists items at the identical position in both rankings.
	Unchanged []string `json:"unchanged"`

	// Moved lists items present in both rankings at different positions.
	Moved []MovedItem `json:"moved"`

	// AddedInSecond lists items present only in the second ranking.
	AddedInSecond []string `json:"added_in_second"`

	// RemovedFromSecond lists items present only in the first ranking.
	RemovedFromSecond []string `json:"removed_from_second"`

	// SimilarityScore summarizes how alike the rankings are as an
	// integer from 0 (disjoint) to 100 (identical positions).
	SimilarityScore int `json:"similarity_score"`
}

// Diff computes the structural difference between two rankings.
//
// Items are partitioned by comparing first-occurrence positions:
// identical position means unchanged, differing positions produce a
// MovedItem, and one-sided items land in AddedInSecond or
// RemovedFromSecond. The similarity score is the mean absolute
// positional distance over common items, normalized by the longer
// ranking's length and mapped onto 0-100. Two rankings with no common
// items score 0 by definition; two empty rankings score 100 with empty
// diff lists.
func Diff(a, b Ranking) DiffResult {
	res := DiffResult{
		Unchanged:         []string{},
		Moved:             []MovedItem{},
		AddedInSecond:     []string{},
		RemovedFromSecond: []string{},
	}

	posA := a.positions()
	posB := b.positions()

	counted := make(map[string]struct{}, len(a))
	var distanceSum float64
	var common int

	for i, item := range a {
		if _, dup := counted[item]; dup {
			continue
		}
		counted[item] = struct{}{}

		j, ok := posB[item]
		if !ok {
			res.RemovedFromSecond = append(res.RemovedFromSecond, item)
			continue
		}

		common++
		distanceSum += math.Abs(float64(i - j))

		if i == j {
			res.Unchanged = append(res.Unchanged, item)
			continue
		}

		distance := j - i
		direction := MoveDown
		if distance < 0 {
			direction = MoveUp
		}
		res.Moved = append(res.Moved, MovedItem{
			Item:        item,
			FromIndex:   i,
			ToIndex:     j,
			Direction:   direction,
			Distance:    distance,
			IsLargeMove: distance > LargeMoveThreshold || distance < -LargeMoveThreshold,
		})
	}

	seenB := make(map[string]struct{}, len(b))
	for _, item := range b {
		if _, dup := seenB[item]; dup {
			continue
		}
		seenB[item] = struct{}{}
		if _, ok := posA[item]; !ok {
			res.AddedInSecond = append(res.AddedInSecond, item)
		}
	}

	res.SimilarityScore = similarityScore(distanceSum, common, len(a), len(b))
	return res
}

// similarityScore maps normalized mean positional distance onto an
// integer 0-100 scale where zero distance scores 100.
func similarityScore(distanceSum float64, common, lenA, lenB int) int {
	maxLen := lenA
	if lenB > maxLen {
		maxLen = lenB
	}
	if maxLen == 0 {
		return 100
	}
	if common == 0 {
		return 0
	}

	normalized := (distanceSum / float64(common)) / float64(maxLen)
	score := int(math.Round((1 - normalized) * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
