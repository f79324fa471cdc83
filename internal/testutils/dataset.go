package testutils

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/reviewkit/go-accord/internal/domain"
)

// ReviewDataset represents a collection of synthetic review cases for
// exercising consensus computation. It includes metadata about how the
// dataset was generated.
type ReviewDataset struct {
	// Reviews contains all review cases with their submission sets.
	Reviews []ReviewCase `json:"reviews"`

	// Metadata provides information about the dataset itself.
	Metadata DatasetMetadata `json:"metadata"`
}

// ReviewCase represents a single review with the files under review
// and the orderings submitted by each participant.
type ReviewCase struct {
	// ID uniquely identifies this review in the dataset.
	ID string `json:"id"`

	// Items lists the files under review in canonical order.
	Items []string `json:"items"`

	// Submissions contains each participant's proposed ordering.
	Submissions []domain.Submission `json:"submissions"`

	// Noise records the perturbation level used during generation.
	Noise float64 `json:"noise"`
}

// DatasetMetadata contains information about the dataset itself,
// including generation parameters for reproducibility.
type DatasetMetadata struct {
	// Name identifies the dataset.
	Name string `json:"name"`

	// Version tracks dataset revisions.
	Version string `json:"version"`

	// Description provides details about the dataset contents.
	Description string `json:"description"`

	// Seed is the random seed the dataset was generated from.
	Seed int64 `json:"seed"`

	// Size indicates the total number of review cases.
	Size int `json:"review_count"`
}

// DatasetStatistics summarizes the shape of a review dataset.
type DatasetStatistics struct {
	// TotalReviews is the number of review cases.
	TotalReviews int

	// AvgParticipants is the mean number of submissions per review.
	AvgParticipants float64

	// MinItems is the smallest item count across reviews.
	MinItems int

	// MaxItems is the largest item count across reviews.
	MaxItems int
}

// GenerateReviewDataset creates a dataset of review cases with varied
// item counts, participant counts, and noise levels. The seed
// parameter controls randomization for reproducible generation.
func GenerateReviewDataset(size int, seed int64) *ReviewDataset {
	rng := rand.New(rand.NewSource(seed))
	noiseLevels := []float64{NoiseNone, NoiseLow, NoiseMedium, NoiseHigh}

	dataset := &ReviewDataset{
		Metadata: DatasetMetadata{
			Name:        "Synthetic Review Dataset",
			Version:     "1.0.0",
			Description: "Generated submission sets for consensus testing.",
			Seed:        seed,
			Size:        size,
		},
		Reviews: make([]ReviewCase, 0, size),
	}

	for i := 0; i < size; i++ {
		itemCount := MinimumItemCount + rng.Intn(DefaultItemCount*2)
		participants := MinimumParticipantCount + rng.Intn(DefaultParticipantCount*2)
		noise := noiseLevels[rng.Intn(len(noiseLevels))]
		items := GenerateItems(itemCount)

		dataset.Reviews = append(dataset.Reviews, ReviewCase{
			ID:          fmt.Sprintf("review-%04d", i),
			Items:       items,
			Submissions: GenerateSubmissionSet(items, participants, noise, rng.Int63()),
			Noise:       noise,
		})
	}

	return dataset
}

// LoadReviewDataset loads a review dataset from a JSON file and
// validates its structure.
func LoadReviewDataset(path string) (*ReviewDataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var dataset ReviewDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON: %w", err)
	}

	if err := ValidateReviewDataset(&dataset); err != nil {
		return nil, fmt.Errorf("dataset validation failed: %w", err)
	}

	return &dataset, nil
}

// ValidateReviewDataset ensures a dataset is structurally sound: every
// review has enough items and submissions, and every submission orders
// only known items.
func ValidateReviewDataset(dataset *ReviewDataset) error {
	if dataset == nil {
		return fmt.Errorf("dataset is nil")
	}
	if len(dataset.Reviews) == 0 {
		return fmt.Errorf("dataset has no reviews")
	}

	for i, review := range dataset.Reviews {
		if review.ID == "" {
			return fmt.Errorf("review %d has no ID", i)
		}
		if len(review.Items) < MinimumItemCount {
			return fmt.Errorf("review %s has %d items, need at least %d",
				review.ID, len(review.Items), MinimumItemCount)
		}
		if len(review.Submissions) < MinimumParticipantCount {
			return fmt.Errorf("review %s has no submissions", review.ID)
		}

		known := make(map[string]struct{}, len(review.Items))
		for _, item := range review.Items {
			known[item] = struct{}{}
		}
		for _, sub := range review.Submissions {
			if sub.Participant == "" {
				return fmt.Errorf("review %s has a submission without a participant", review.ID)
			}
			for _, item := range sub.Order {
				if _, ok := known[item]; !ok {
					return fmt.Errorf("review %s: submission by %s orders unknown item %q",
						review.ID, sub.Participant, item)
				}
			}
		}
	}

	return nil
}

// ComputeDatasetStatistics analyzes a review dataset and returns
// summary statistics.
func ComputeDatasetStatistics(dataset *ReviewDataset) *DatasetStatistics {
	stats := &DatasetStatistics{
		TotalReviews: len(dataset.Reviews),
		MinItems:     int(^uint(0) >> 1), // Max int
		MaxItems:     0,
	}

	totalParticipants := 0
	for _, review := range dataset.Reviews {
		totalParticipants += len(review.Submissions)
		if len(review.Items) < stats.MinItems {
			stats.MinItems = len(review.Items)
		}
		if len(review.Items) > stats.MaxItems {
			stats.MaxItems = len(review.Items)
		}
	}

	if stats.TotalReviews > 0 {
		stats.AvgParticipants = float64(totalParticipants) / float64(stats.TotalReviews)
	}

	return stats
}

// SaveReviewDataset writes a review dataset to a JSON file.
func SaveReviewDataset(dataset *ReviewDataset, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset file: %w", err)
	}

	return nil
}
