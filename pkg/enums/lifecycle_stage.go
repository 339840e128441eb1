package enums

import "fmt"

// LifecycleStage is where a customer sits in the account journey.
type LifecycleStage string

const (
	LifecycleStageOnboarding LifecycleStage = "onboarding"
	LifecycleStageAdoption   LifecycleStage = "adoption"
	LifecycleStageActive     LifecycleStage = "active"
	LifecycleStageAtRisk     LifecycleStage = "at_risk"
	LifecycleStageRenewal    LifecycleStage = "renewal"
	LifecycleStageExpansion  LifecycleStage = "expansion"
	LifecycleStageChurned    LifecycleStage = "churned"
)

var validLifecycleStages = []LifecycleStage{
	LifecycleStageOnboarding,
	LifecycleStageAdoption,
	LifecycleStageActive,
	LifecycleStageAtRisk,
	LifecycleStageRenewal,
	LifecycleStageExpansion,
	LifecycleStageChurned,
}

func (l LifecycleStage) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LifecycleStage.
func (l LifecycleStage) IsValid() bool {
	for _, candidate := range validLifecycleStages {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLifecycleStage converts raw input into a LifecycleStage.
func ParseLifecycleStage(value string) (LifecycleStage, error) {
	for _, candidate := range validLifecycleStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lifecycle stage %q", value)
}
