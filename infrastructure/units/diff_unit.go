package units

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/reviewkit/go-accord/internal/domain"
	"github.com/reviewkit/go-accord/internal/ports"
)

var (
	_ ports.Unit = (*DiffUnit)(nil)

	// foldCaser is a package-level Unicode case folder, shared because
	// constructing a caser per comparison is wasteful.
	foldCaser = cases.Fold()
)

// DiffUnit computes the structural difference between the consensus
// ranking and the proposed order in the state: unchanged, moved, added,
// and removed items plus an overall similarity percentage. It is how
// the engine explains to a participant why the group's order differs
// from their own.
//
// When rename detection is enabled, removed and added items are paired
// by Levenshtein similarity of their identifiers, surfacing files that
// likely moved to a new path between the two rankings.
//
// The unit is stateless and thread-safe.
type DiffUnit struct {
	name   string
	config DiffConfig
	tracer trace.Tracer
}

// DiffConfig defines the configuration parameters for the DiffUnit.
// All fields are validated during unit creation and parameter
// unmarshaling.
type DiffConfig struct {
	// DetectRenames enables pairing of removed and added items by
	// identifier similarity.
	DetectRenames bool `yaml:"detect_renames" json:"detect_renames"`

	// RenameThreshold is the minimum similarity score (0.0-1.0) for two
	// identifiers to be considered the same file under a new path.
	RenameThreshold float64 `yaml:"rename_threshold" json:"rename_threshold" validate:"min=0,max=1"`

	// CaseSensitive determines whether identifier comparison for rename
	// detection is case-sensitive. When false, identifiers are
	// case-folded before comparison.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`
}

// NewDiffUnit creates a new DiffUnit with the specified configuration.
// It returns an error if the configuration is invalid.
func NewDiffUnit(name string, config DiffConfig) (*DiffUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &DiffUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("diff-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (du *DiffUnit) Name() string { return du.name }

// Execute diffs the consensus against the proposed order and stores the
// result. Rename candidates are stored separately when detection is
// enabled.
func (du *DiffUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := du.tracer.Start(ctx, "DiffUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "diff"),
			attribute.String("unit.id", du.name),
			attribute.Bool("config.detect_renames", du.config.DetectRenames),
			attribute.Float64("config.rename_threshold", du.config.RenameThreshold),
		),
	)
	defer span.End()

	consensus, ok := domain.Get(state, domain.KeyConsensus)
	if !ok {
		span.RecordError(ErrConsensusNotFound)
		return state, ErrConsensusNotFound
	}

	proposed, ok := domain.Get(state, domain.KeyProposedOrder)
	if !ok {
		span.RecordError(ErrProposedOrderNotFound)
		return state, ErrProposedOrderNotFound
	}

	if len(consensus) > MaxRankingItems || len(proposed) > MaxRankingItems {
		err := fmt.Errorf("ranking too large: limit is %d items", MaxRankingItems)
		span.RecordError(err)
		return state, err
	}

	diff := domain.Diff(consensus, proposed)

	span.SetAttributes(
		attribute.Int("diff.unchanged", len(diff.Unchanged)),
		attribute.Int("diff.moved", len(diff.Moved)),
		attribute.Int("diff.added", len(diff.AddedInSecond)),
		attribute.Int("diff.removed", len(diff.RemovedFromSecond)),
		attribute.Int("diff.similarity_score", diff.SimilarityScore),
	)

	state = domain.With(state, domain.KeyDiff, &diff)

	if du.config.DetectRenames {
		renames := du.detectRenames(diff.RemovedFromSecond, diff.AddedInSecond)
		span.SetAttributes(attribute.Int("diff.renames", len(renames)))
		state = domain.With(state, domain.KeyRenames, renames)
	}

	return state, nil
}

// detectRenames greedily pairs each removed identifier with the most
// similar added identifier whose similarity clears the threshold. Each
// added item is consumed at most once.
func (du *DiffUnit) detectRenames(removed, added []string) []domain.Rename {
	renames := make([]domain.Rename, 0)
	if len(removed) == 0 || len(added) == 0 {
		return renames
	}

	consumed := make(map[int]struct{}, len(added))
	for _, from := range removed {
		bestIdx := -1
		bestScore := 0.0
		for i, to := range added {
			if _, taken := consumed[i]; taken {
				continue
			}
			score := du.identifierSimilarity(from, to)
			if score >= du.config.RenameThreshold && score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}
		if bestIdx >= 0 {
			consumed[bestIdx] = struct{}{}
			renames = append(renames, domain.Rename{
				From:       from,
				To:         added[bestIdx],
				Similarity: bestScore,
			})
		}
	}
	return renames
}

// identifierSimilarity computes normalized Levenshtein similarity
// between two identifiers: 1.0 for identical strings, 0.0 for maximal
// dissimilarity. Distances are normalized by rune count, since the
// Levenshtein distance operates on runes.
func (du *DiffUnit) identifierSimilarity(s1, s2 string) float64 {
	if !du.config.CaseSensitive {
		s1 = foldCaser.String(s1)
		s2 = foldCaser.String(s2)
	}
	if s1 == s2 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(s1, s2)

	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	similarity := 1.0 - float64(distance)/float64(maxLen)
	if similarity < 0 {
		similarity = 0
	}
	return similarity
}

// Validate checks if the unit is properly configured.
func (du *DiffUnit) Validate() error {
	if err := validate.Struct(du.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML parameters into the unit's
// config. Unknown fields are rejected to catch configuration typos.
func (du *DiffUnit) UnmarshalParameters(params yaml.Node) error {
	var config DiffConfig
	if err := decodeStrict(params, &config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	du.config = config
	return nil
}

// DefaultDiffConfig returns a DiffConfig with sensible defaults:
// rename detection off, and a 0.6 similarity threshold when enabled,
// loose enough to catch directory moves of an unchanged file name.
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		DetectRenames:   false,
		RenameThreshold: 0.6,
		CaseSensitive:   true,
	}
}

// CreateDiffUnit is a factory function that creates a DiffUnit from a
// configuration map, for use with the UnitRegistry.
func CreateDiffUnit(id string, config map[string]any) (*DiffUnit, error) {
	unitConfig := DefaultDiffConfig()
	if val, ok := config["detect_renames"].(bool); ok {
		unitConfig.DetectRenames = val
	}
	if val, ok := toFloat(config["rename_threshold"]); ok {
		unitConfig.RenameThreshold = val
	}
	if val, ok := config["case_sensitive"].(bool); ok {
		unitConfig.CaseSensitive = val
	}
	return NewDiffUnit(id, unitConfig)
}
