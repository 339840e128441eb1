package enums

import "fmt"

// TrendDirection classifies a fitted trend.
type TrendDirection string

const (
	TrendDirectionUp     TrendDirection = "up"
	TrendDirectionDown   TrendDirection = "down"
	TrendDirectionStable TrendDirection = "stable"
)

var validTrendDirections = []TrendDirection{
	TrendDirectionUp,
	TrendDirectionDown,
	TrendDirectionStable,
}

func (t TrendDirection) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TrendDirection.
func (t TrendDirection) IsValid() bool {
	for _, candidate := range validTrendDirections {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTrendDirection converts raw input into a TrendDirection.
func ParseTrendDirection(value string) (TrendDirection, error) {
	for _, candidate := range validTrendDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trend direction %q", value)
}
