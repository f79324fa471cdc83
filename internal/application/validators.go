package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is the package-level validator used for struct validation
// of configuration types that carry only standard constraint tags.
var validate = validator.New()

// ValidateUnitParameters validates the parameters for a specific unit
// type, ensuring all required fields are present and values meet
// domain constraints.
// ValidateUnitParameters supports consensus, merge, diff, validation,
// and custom unit types with type-specific validation rules.
// ValidateUnitParameters returns an error if parameter decoding fails
// or if any validation rule is violated.
func ValidateUnitParameters(unitType string, params yaml.Node) error {
	var paramMap map[string]any
	if !params.IsZero() {
		if err := params.Decode(&paramMap); err != nil {
			return fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	switch unitType {
	case "consensus":
		return validateConsensusParams(paramMap)
	case "merge":
		return validateMergeParams(paramMap)
	case "diff":
		return validateDiffParams(paramMap)
	case "validation":
		return validateValidationParams(paramMap)
	case "custom":
		// Custom units have flexible validation.
		return nil
	default:
		return fmt.Errorf("unknown unit type: %s", unitType)
	}
}

// validateConsensusParams validates parameters for consensus units,
// ensuring the outlier threshold, when present, is a non-negative
// number and boolean flags carry boolean values.
func validateConsensusParams(params map[string]any) error {
	if v, ok := params["exclude_outliers"]; ok {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("exclude_outliers must be a boolean")
		}
	}

	if v, ok := params["outlier_threshold"]; ok {
		threshold, err := numberParam("outlier_threshold", v)
		if err != nil {
			return err
		}
		if threshold < 0 {
			return fmt.Errorf("outlier_threshold must be non-negative")
		}
	}

	return nil
}

// validateMergeParams validates parameters for merge units, ensuring
// the weight, when present, is a number between 0 and 1.
func validateMergeParams(params map[string]any) error {
	if v, ok := params["weight"]; ok {
		weight, err := numberParam("weight", v)
		if err != nil {
			return err
		}
		if weight < 0 || weight > 1 {
			return fmt.Errorf("weight must be between 0 and 1")
		}
	}

	return nil
}

// validateDiffParams validates parameters for diff units, ensuring the
// rename threshold, when present, is a number between 0 and 1 and
// boolean flags carry boolean values.
func validateDiffParams(params map[string]any) error {
	if v, ok := params["detect_renames"]; ok {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("detect_renames must be a boolean")
		}
	}

	if v, ok := params["case_sensitive"]; ok {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("case_sensitive must be a boolean")
		}
	}

	if v, ok := params["rename_threshold"]; ok {
		threshold, err := numberParam("rename_threshold", v)
		if err != nil {
			return err
		}
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("rename_threshold must be between 0 and 1")
		}
	}

	return nil
}

// validateValidationParams validates parameters for validation units.
func validateValidationParams(params map[string]any) error {
	if v, ok := params["fail_on_invalid"]; ok {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("fail_on_invalid must be a boolean")
		}
	}

	return nil
}

// numberParam converts a decoded YAML scalar to a float64, accepting
// both integer and floating point representations.
func numberParam(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

// registerCustomValidators registers domain-specific validation
// functions with the validator instance, including semantic version
// validation for configuration schema versions.
// registerCustomValidators returns an error if any validator
// registration fails.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3
}
