package enums

import "fmt"

// PeriodType is the forecast step length.
type PeriodType string

const (
	PeriodTypeMonth   PeriodType = "month"
	PeriodTypeQuarter PeriodType = "quarter"
	PeriodTypeYear    PeriodType = "year"
)

var validPeriodTypes = []PeriodType{
	PeriodTypeMonth,
	PeriodTypeQuarter,
	PeriodTypeYear,
}

func (p PeriodType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PeriodType.
func (p PeriodType) IsValid() bool {
	for _, candidate := range validPeriodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePeriodType converts raw input into a PeriodType.
func ParsePeriodType(value string) (PeriodType, error) {
	for _, candidate := range validPeriodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid period type %q", value)
}

// Months returns the number of calendar months in one period.
func (p PeriodType) Months() int {
	switch p {
	case PeriodTypeQuarter:
		return 3
	case PeriodTypeYear:
		return 12
	default:
		return 1
	}
}
