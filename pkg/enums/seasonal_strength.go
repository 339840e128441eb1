package enums

import "fmt"

type SeasonalStrength string

const (
	SeasonalStrengthNone     SeasonalStrength = "none"
	SeasonalStrengthWeak     SeasonalStrength = "weak"
	SeasonalStrengthModerate SeasonalStrength = "moderate"
	SeasonalStrengthStrong   SeasonalStrength = "strong"
)

var validSeasonalStrengths = []SeasonalStrength{
	SeasonalStrengthNone,
	SeasonalStrengthWeak,
	SeasonalStrengthModerate,
	SeasonalStrengthStrong,
}

func (s SeasonalStrength) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SeasonalStrength.
func (s SeasonalStrength) IsValid() bool {
	for _, candidate := range validSeasonalStrengths {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSeasonalStrength converts raw input into a SeasonalStrength.
func ParseSeasonalStrength(value string) (SeasonalStrength, error) {
	for _, candidate := range validSeasonalStrengths {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seasonal strength %q", value)
}
