package enums

import "fmt"

// RiskLevel is the severity tier of a churn score or an individual risk factor.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

var validRiskLevels = []RiskLevel{
	RiskLevelLow,
	RiskLevelMedium,
	RiskLevelHigh,
	RiskLevelCritical,
}

func (r RiskLevel) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RiskLevel.
func (r RiskLevel) IsValid() bool {
	for _, candidate := range validRiskLevels {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRiskLevel converts raw input into a RiskLevel.
func ParseRiskLevel(value string) (RiskLevel, error) {
	for _, candidate := range validRiskLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid risk level %q", value)
}

// Rank orders levels from low (0) to critical (3); unknown values rank -1.
func (r RiskLevel) Rank() int {
	for i, candidate := range validRiskLevels {
		if candidate == r {
			return i
		}
	}
	return -1
}

// AtLeastHigh reports whether the level is high or critical.
func (r RiskLevel) AtLeastHigh() bool {
	return r.Rank() >= RiskLevelHigh.Rank()
}
