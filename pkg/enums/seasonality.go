package enums

import "fmt"

// Periodicity is the calendar bucket used by a seasonal pattern.
type Periodicity string

const (
	PeriodicityQuarterly Periodicity = "quarterly"
	PeriodicityMonthly   Periodicity = "monthly"
)

var validPeriodicitys = []Periodicity{
	PeriodicityQuarterly,
	PeriodicityMonthly,
}

func (p Periodicity) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Periodicity.
func (p Periodicity) IsValid() bool {
	for _, candidate := range validPeriodicitys {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePeriodicity converts raw input into a Periodicity.
func ParsePeriodicity(value string) (Periodicity, error) {
	for _, candidate := range validPeriodicitys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid periodicity %q", value)
}
