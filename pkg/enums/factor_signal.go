package enums

import "fmt"

// FactorSignal is the direction in which a contributing factor moves a score.
type FactorSignal string

const (
	FactorSignalPositive FactorSignal = "positive"
	FactorSignalNegative FactorSignal = "negative"
	FactorSignalNeutral  FactorSignal = "neutral"
)

var validFactorSignals = []FactorSignal{
	FactorSignalPositive,
	FactorSignalNegative,
	FactorSignalNeutral,
}

func (f FactorSignal) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FactorSignal.
func (f FactorSignal) IsValid() bool {
	for _, candidate := range validFactorSignals {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFactorSignal converts raw input into a FactorSignal.
func ParseFactorSignal(value string) (FactorSignal, error) {
	for _, candidate := range validFactorSignals {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid factor signal %q", value)
}
