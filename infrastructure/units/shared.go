// Package units provides the consensus pipeline units that implement
// the ports.Unit interface for the go-accord engine.
package units

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Common errors returned by pipeline units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit
	// with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrSubmissionsNotFound is returned when a unit requires the
	// submission set but the state does not carry one.
	ErrSubmissionsNotFound = errors.New("submissions not found in state")

	// ErrConsensusNotFound is returned when a unit requires a consensus
	// ranking but the state does not carry one.
	ErrConsensusNotFound = errors.New("consensus not found in state")

	// ErrProposedOrderNotFound is returned when a unit requires a
	// proposed order but the state does not carry one.
	ErrProposedOrderNotFound = errors.New("proposed order not found in state")
)

// MaxRankingItems bounds the size of rankings accepted by units.
// Review file lists top out in the low hundreds; the limit guards the
// quadratic rename-detection pass against pathological inputs.
const MaxRankingItems = 10000

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// decodeStrict decodes a YAML node into out, rejecting unknown fields
// so configuration typos surface as errors instead of being silently
// ignored.
func decodeStrict(params yaml.Node, out any) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	if err := encoder.Encode(&params); err != nil {
		return fmt.Errorf("failed to encode YAML node: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	decoder := yaml.NewDecoder(&buf)
	decoder.KnownFields(true)
	return decoder.Decode(out)
}

// toFloat normalizes a numeric configuration value. YAML decodes whole
// numbers as int, so factory maps can carry either representation.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
