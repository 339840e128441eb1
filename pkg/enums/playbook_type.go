package enums

import "fmt"

// PlaybookType groups playbooks by intent.
type PlaybookType string

const (
	PlaybookTypeOnboarding PlaybookType = "onboarding"
	PlaybookTypeAdoption   PlaybookType = "adoption"
	PlaybookTypeSave       PlaybookType = "save"
	PlaybookTypeExpansion  PlaybookType = "expansion"
	PlaybookTypeRenewal    PlaybookType = "renewal"
	PlaybookTypeAdvocacy   PlaybookType = "advocacy"
	PlaybookTypeEngagement PlaybookType = "engagement"
)

var validPlaybookTypes = []PlaybookType{
	PlaybookTypeOnboarding,
	PlaybookTypeAdoption,
	PlaybookTypeSave,
	PlaybookTypeExpansion,
	PlaybookTypeRenewal,
	PlaybookTypeAdvocacy,
	PlaybookTypeEngagement,
}

func (p PlaybookType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlaybookType.
func (p PlaybookType) IsValid() bool {
	for _, candidate := range validPlaybookTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlaybookType converts raw input into a PlaybookType.
func ParsePlaybookType(value string) (PlaybookType, error) {
	for _, candidate := range validPlaybookTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid playbook type %q", value)
}
