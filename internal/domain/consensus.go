package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultOutlierThreshold is the standard-deviation multiplier applied
// when outlier filtering is enabled and no threshold is supplied. The
// value is a tuning constant inherited from the original tool, not
// derived from a formal model.
const DefaultOutlierThreshold = 2.0

// conflictThresholdRatio is the fraction of the consensus length an
// item's positional standard deviation must exceed to count as a
// conflict.
const conflictThresholdRatio = 0.2

// ConsensusOptions controls how ComputeConsensus treats statistical
// outliers among the submitted orders.
type ConsensusOptions struct {
	// ExcludeOutliers enables outlier removal before aggregation.
	// Filtering only applies when more than two orders are present;
	// with two or fewer there is no majority to deviate from.
	ExcludeOutliers bool `yaml:"exclude_outliers" json:"exclude_outliers"`

	// OutlierThreshold is the standard-deviation multiplier. Zero means
	// "use the default"; negative values are rejected.
	OutlierThreshold float64 `yaml:"outlier_threshold" json:"outlier_threshold"`
}

// DefaultConsensusOptions returns the engine defaults: no outlier
// filtering, threshold of DefaultOutlierThreshold when enabled.
func DefaultConsensusOptions() ConsensusOptions {
	return ConsensusOptions{OutlierThreshold: DefaultOutlierThreshold}
}

// ComputeConsensus aggregates a set of submissions into a single
// consensus ranking using average rank position.
//
// Empty input yields an empty ranking, not an error. Submissions with
// empty orders are dropped; a single surviving order is returned
// verbatim (the consensus of one voter is that voter's order). The
// returned ranking never aliases caller-owned storage.
func ComputeConsensus(subs []Submission, opts ConsensusOptions) (Ranking, error) {
	if opts.OutlierThreshold < 0 {
		return nil, fmt.Errorf("%w: outlier threshold %v is negative",
			ErrInvalidOptions, opts.OutlierThreshold)
	}

	if len(subs) == 0 {
		return Ranking{}, nil
	}

	orders := make([]Ranking, 0, len(subs))
	for _, s := range subs {
		if len(s.Order) > 0 {
			orders = append(orders, s.Order)
		}
	}
	if len(orders) == 0 {
		return Ranking{}, nil
	}
	if len(orders) == 1 {
		return orders[0].Clone(), nil
	}

	if opts.ExcludeOutliers && len(orders) > 2 {
		threshold := opts.OutlierThreshold
		if threshold == 0 {
			threshold = DefaultOutlierThreshold
		}
		orders = filterOutlierOrders(orders, threshold)
	}

	return AggregateByAveragePosition(orders), nil
}

// filterOutlierOrders removes orders whose distance to a preliminary
// consensus is statistically anomalous. Each order's distance to the
// preliminary aggregate is compared against the population mean; orders
// deviating by more than threshold standard deviations are dropped.
// Orders at infinite distance (no items in common with the preliminary
// consensus) are always treated as maximally anomalous.
//
// Safety valve: if filtering would discard more than half of the
// orders, the original unfiltered set is returned instead, so the
// consensus is never computed from a minority.
func filterOutlierOrders(orders []Ranking, threshold float64) []Ranking {
	if len(orders) <= 2 {
		return orders
	}

	prelim := AggregateByAveragePosition(orders)

	dists := make([]float64, len(orders))
	finite := make([]float64, 0, len(orders))
	for i, o := range orders {
		dists[i] = OrderDistance(o, prelim)
		if !math.IsInf(dists[i], 1) {
			finite = append(finite, dists[i])
		}
	}
	if len(finite) == 0 {
		return orders
	}

	mean := stat.Mean(finite, nil)
	stddev := stat.PopStdDev(finite, nil)

	kept := make([]Ranking, 0, len(orders))
	for i, o := range orders {
		if math.IsInf(dists[i], 1) {
			continue
		}
		if math.Abs(dists[i]-mean) <= threshold*stddev {
			kept = append(kept, o)
		}
	}

	if (len(orders)-len(kept))*2 > len(orders) {
		return orders
	}
	return kept
}

// ComputeConsensusMetadata derives the read-only agreement view for a
// submission set and its consensus. Empty submissions or an empty
// consensus produce a zeroed, defined result rather than an error.
func ComputeConsensusMetadata(subs []Submission, consensus Ranking) ConsensusMetadata {
	md := ConsensusMetadata{Conflicts: []Conflict{}}
	if len(subs) == 0 || len(consensus) == 0 {
		return md
	}

	md.ParticipantCount = len(subs)
	md.AgreementScore = agreementScore(subs, consensus)
	md.Conflicts = collectConflicts(subs, consensus)
	md.MostRecentTimestamp = mostRecentTimestamp(subs)
	return md
}

// agreementScore is 1 minus the mean submission-to-consensus distance
// normalized by the consensus length, capped so the score stays in
// [0, 1]. Distance can exceed the ranking length for very scrambled
// orders, hence the cap.
func agreementScore(subs []Submission, consensus Ranking) float64 {
	dists := make([]float64, 0, len(subs))
	for _, s := range subs {
		if len(s.Order) > 0 {
			dists = append(dists, OrderDistance(s.Order, consensus))
		}
	}
	if len(dists) == 0 {
		return 0
	}

	normalized := stat.Mean(dists, nil) / float64(len(consensus))
	if math.IsNaN(normalized) || normalized > 1 {
		normalized = 1
	}
	return 1 - normalized
}

// collectConflicts finds items whose position varies significantly
// across the submitted orders. An item observed in at most one order
// has no measurable variance and is skipped. Results are sorted by
// descending standard deviation, most contested first.
func collectConflicts(subs []Submission, consensus Ranking) []Conflict {
	threshold := conflictThresholdRatio * float64(len(consensus))

	conflicts := make([]Conflict, 0)
	for _, item := range consensus {
		positions := make([]int, 0, len(subs))
		observed := make([]float64, 0, len(subs))
		for _, s := range subs {
			if idx := s.Order.IndexOf(item); idx >= 0 {
				positions = append(positions, idx)
				observed = append(observed, float64(idx))
			}
		}
		if len(positions) <= 1 {
			continue
		}

		stddev := stat.PopStdDev(observed, nil)
		if stddev > threshold {
			conflicts = append(conflicts, Conflict{
				Item:            item,
				Positions:       positions,
				AveragePosition: stat.Mean(observed, nil),
				StdDev:          stddev,
			})
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].StdDev > conflicts[j].StdDev
	})
	return conflicts
}

// mostRecentTimestamp returns the latest parseable RFC 3339 submission
// timestamp, or empty when none is present. Missing and unparseable
// timestamps are skipped.
func mostRecentTimestamp(subs []Submission) string {
	var latest time.Time
	var found bool
	for _, s := range subs {
		if s.Timestamp == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s.Timestamp)
		if err != nil {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	if !found {
		return ""
	}
	return latest.UTC().Format(time.RFC3339)
}

// ValidationResult reports the outcome of a consensus completeness
// check. Errors lists every violation found, not just the first.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateConsensus checks that a consensus is a sound aggregation of
// the given submissions: no duplicate items, every submitted item
// present, and no items that appear in no submission. It accumulates
// all violations rather than failing fast; the check exists to catch
// aggregation bugs independently of the aggregation algorithm.
func ValidateConsensus(consensus Ranking, subs []Submission) ValidationResult {
	verr := NewValidationError("consensus")

	counts := make(map[string]int, len(consensus))
	for _, item := range consensus {
		counts[item]++
	}

	dups := make([]string, 0)
	reported := make(map[string]struct{})
	for _, item := range consensus {
		if counts[item] > 1 {
			if _, ok := reported[item]; !ok {
				reported[item] = struct{}{}
				dups = append(dups, item)
			}
		}
	}
	if len(dups) > 0 {
		verr.Add(fmt.Sprintf("duplicate items: %s", strings.Join(dups, ", ")))
	}

	submitted := make(map[string]struct{})
	submittedOrder := make([]string, 0)
	for _, s := range subs {
		for _, item := range s.Order {
			if _, ok := submitted[item]; !ok {
				submitted[item] = struct{}{}
				submittedOrder = append(submittedOrder, item)
			}
		}
	}

	missing := make([]string, 0)
	for _, item := range submittedOrder {
		if _, ok := counts[item]; !ok {
			missing = append(missing, item)
		}
	}
	if len(missing) > 0 {
		verr.Add(fmt.Sprintf("missing items: %s", strings.Join(missing, ", ")))
	}

	extra := make([]string, 0)
	seenExtra := make(map[string]struct{})
	for _, item := range consensus {
		if _, ok := submitted[item]; ok {
			continue
		}
		if _, dup := seenExtra[item]; dup {
			continue
		}
		seenExtra[item] = struct{}{}
		extra = append(extra, item)
	}
	if len(extra) > 0 {
		verr.Add(fmt.Sprintf("items not present in any submission: %s", strings.Join(extra, ", ")))
	}

	return ValidationResult{Valid: !verr.HasErrors(), Errors: verr.Errors}
}
