package enums

import "fmt"

// ConfidenceLevel is the coarse confidence tier attached to forecasts and propensity scores.
type ConfidenceLevel string

const (
	ConfidenceLevelHigh   ConfidenceLevel = "high"
	ConfidenceLevelMedium ConfidenceLevel = "medium"
	ConfidenceLevelLow    ConfidenceLevel = "low"
)

var validConfidenceLevels = []ConfidenceLevel{
	ConfidenceLevelHigh,
	ConfidenceLevelMedium,
	ConfidenceLevelLow,
}

func (c ConfidenceLevel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ConfidenceLevel.
func (c ConfidenceLevel) IsValid() bool {
	for _, candidate := range validConfidenceLevels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseConfidenceLevel converts raw input into a ConfidenceLevel.
func ParseConfidenceLevel(value string) (ConfidenceLevel, error) {
	for _, candidate := range validConfidenceLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid confidence level %q", value)
}

// Rank orders tiers from low (0) to high (2); unknown values rank -1.
func (c ConfidenceLevel) Rank() int {
	switch c {
	case ConfidenceLevelHigh:
		return 2
	case ConfidenceLevelMedium:
		return 1
	case ConfidenceLevelLow:
		return 0
	default:
		return -1
	}
}
