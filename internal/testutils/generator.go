// Package testutils provides test data generators for review
// submission sets. These components are intended for internal use
// within the project's test suites and benchmark tooling and are not
// part of the public API.
package testutils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/reviewkit/go-accord/internal/domain"
)

// GenerateItems returns n distinct file paths drawn from FilePool,
// extending with synthetic paths when n exceeds the pool size.
func GenerateItems(n int) []string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i < len(FilePool) {
			items = append(items, FilePool[i])
			continue
		}
		items = append(items, fmt.Sprintf("internal/generated/file_%03d.go", i))
	}
	return items
}

// ShuffledRanking returns a random permutation of items.
func ShuffledRanking(rng *rand.Rand, items []string) domain.Ranking {
	order := domain.Ranking(items).Clone()
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// ReversedRanking returns items in reverse order.
func ReversedRanking(items []string) domain.Ranking {
	order := make(domain.Ranking, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		order = append(order, items[i])
	}
	return order
}

// PerturbedRanking returns a copy of the base order with noise applied
// as adjacent swaps. A noise of 0 returns the base order unchanged and
// a noise of 1 applies one swap per item.
func PerturbedRanking(rng *rand.Rand, base domain.Ranking, noise float64) domain.Ranking {
	order := base.Clone()
	if len(order) < 2 || noise <= 0 {
		return order
	}

	swaps := int(noise * float64(len(order)))
	for s := 0; s < swaps; s++ {
		i := rng.Intn(len(order) - 1)
		order[i], order[i+1] = order[i+1], order[i]
	}
	return order
}

// GenerateSubmissionSet creates a set of submissions over the same
// items, each a perturbation of the canonical item order. The seed
// parameter controls randomization - use time.Now().UnixNano() for
// non-deterministic generation or a fixed value for reproducible
// tests. Timestamps are spaced one minute apart in ascending order.
func GenerateSubmissionSet(items []string, participants int, noise float64, seed int64) []domain.Submission {
	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	subs := make([]domain.Submission, 0, participants)
	for i := 0; i < participants; i++ {
		subs = append(subs, domain.Submission{
			Participant: fmt.Sprintf("reviewer-%d", i+1),
			Order:       PerturbedRanking(rng, domain.Ranking(items), noise),
			Timestamp:   base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
		})
	}
	return subs
}

// GenerateSubmissionSetDefault creates a submission set with a
// time-based seed.
func GenerateSubmissionSetDefault(items []string, participants int, noise float64) []domain.Submission {
	return GenerateSubmissionSet(items, participants, noise, time.Now().UnixNano())
}
