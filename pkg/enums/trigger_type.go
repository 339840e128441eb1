package enums

import "fmt"

// TriggerType says how a recommendation should be launched.
type TriggerType string

const (
	TriggerTypeAutomatic TriggerType = "automatic"
	TriggerTypeSuggested TriggerType = "suggested"
	TriggerTypeManual    TriggerType = "manual"
)

var validTriggerTypes = []TriggerType{
	TriggerTypeAutomatic,
	TriggerTypeSuggested,
	TriggerTypeManual,
}

func (t TriggerType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TriggerType.
func (t TriggerType) IsValid() bool {
	for _, candidate := range validTriggerTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTriggerType converts raw input into a TriggerType.
func ParseTriggerType(value string) (TriggerType, error) {
	for _, candidate := range validTriggerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trigger type %q", value)
}
