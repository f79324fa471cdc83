package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/reviewkit/go-accord/internal/testutils"
)

func main() {
	var (
		size       = flag.Int("size", 200, "Number of review cases to generate")
		seed       = flag.Int64("seed", 0, "Random seed (0 uses the current time)")
		outputPath = flag.String("output", "testdata/review_dataset/sample_review_dataset.json", "Output file path")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	dataset := testutils.GenerateReviewDataset(*size, *seed)

	if err := testutils.SaveReviewDataset(dataset, *outputPath); err != nil {
		log.Fatalf("Failed to save dataset: %v", err)
	}

	stats := testutils.ComputeDatasetStatistics(dataset)

	fmt.Printf("Generated review dataset:\n")
	fmt.Printf("- Path: %s\n", *outputPath)
	fmt.Printf("- Seed: %d\n", *seed)
	fmt.Printf("- Total reviews: %d\n", stats.TotalReviews)
	fmt.Printf("- Average participants per review: %.2f\n", stats.AvgParticipants)
	fmt.Printf("- Item counts: %d-%d\n", stats.MinItems, stats.MaxItems)
	fmt.Printf("\nDataset saved successfully!\n")
}
