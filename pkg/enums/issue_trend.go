package enums

import "fmt"

type IssueTrend string

const (
	IssueTrendIncreasing IssueTrend = "increasing"
	IssueTrendStable     IssueTrend = "stable"
	IssueTrendDecreasing IssueTrend = "decreasing"
)

var validIssueTrends = []IssueTrend{
	IssueTrendIncreasing,
	IssueTrendStable,
	IssueTrendDecreasing,
}

func (i IssueTrend) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IssueTrend.
func (i IssueTrend) IsValid() bool {
	for _, candidate := range validIssueTrends {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIssueTrend converts raw input into a IssueTrend.
func ParseIssueTrend(value string) (IssueTrend, error) {
	for _, candidate := range validIssueTrends {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid issue trend %q", value)
}
