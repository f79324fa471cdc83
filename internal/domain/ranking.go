// Package domain contains the pure types and ranking arithmetic for the
// review-order consensus engine.
package domain

import (
	"slices"
)

// Ranking is an ordered sequence of unique item identifiers reflecting
// one participant's preferred file order. Items are opaque strings;
// identity is exact string equality. Callers are expected to supply
// duplicate-free rankings, but every operation tolerates duplicates by
// honoring the first occurrence only.
type Ranking []string

// IndexOf returns the zero-based position of item's first occurrence,
// or -1 when the item is not present.
func (r Ranking) IndexOf(item string) int {
	return slices.Index(r, item)
}

// Contains reports whether item appears anywhere in the ranking.
func (r Ranking) Contains(item string) bool {
	return slices.Contains(r, item)
}

// Clone returns a fresh copy of the ranking. Engine operations return
// cloned sequences so that callers never share backing storage with the
// inputs they handed in.
func (r Ranking) Clone() Ranking {
	if r == nil {
		return Ranking{}
	}
	return slices.Clone(r)
}

// positions builds a first-occurrence index map for the ranking.
// Later duplicates do not overwrite earlier entries.
func (r Ranking) positions() map[string]int {
	m := make(map[string]int, len(r))
	for i, item := range r {
		if _, ok := m[item]; !ok {
			m[item] = i
		}
	}
	return m
}

// Submission is a Ranking plus attribution metadata supplied by one
// participant. Submissions are immutable once handed to the engine;
// none of the engine operations modify Order in place.
type Submission struct {
	// Participant identifies who submitted the ranking. The engine does
	// not validate or interpret it; an empty value is treated as a
	// local, unattributed submission.
	Participant string `json:"participant,omitempty"`

	// Order is the participant's proposed item order.
	Order Ranking `json:"order"`

	// Timestamp records when the ranking was captured, as an RFC 3339
	// string. Optional; unparseable values are skipped during metadata
	// computation rather than rejected.
	Timestamp string `json:"timestamp,omitempty"`

	// Extra carries any additional fields a submission source attached.
	// The engine ignores them entirely.
	Extra map[string]any `json:"-"`
}

// Conflict describes an item whose position varies significantly across
// submissions. Positions holds every observed zero-based position.
type Conflict struct {
	Item            string  `json:"item"`
	Positions       []int   `json:"positions"`
	AveragePosition float64 `json:"average_position"`
	StdDev          float64 `json:"std_dev"`
}

// ConsensusMetadata is a derived, read-only view over a submission set
// and its consensus order.
type ConsensusMetadata struct {
	// ParticipantCount is the number of submissions considered.
	ParticipantCount int `json:"participant_count"`

	// AgreementScore is a normalized [0,1] measure of how closely the
	// submissions match the consensus; 1 means every submission equals
	// the consensus verbatim.
	AgreementScore float64 `json:"agreement_score"`

	// Conflicts lists contested items, most contested first
	// (descending standard deviation).
	Conflicts []Conflict `json:"conflicts"`

	// MostRecentTimestamp is the latest parseable submission timestamp
	// as an RFC 3339 string, or empty when no submission carried one.
	MostRecentTimestamp string `json:"most_recent_timestamp,omitempty"`
}
