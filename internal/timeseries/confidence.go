package timeseries

import (
	"math"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

const intervalStep = 0.05

// intervalFactor widens bounds as the fit weakens.
func intervalFactor(rSquared float64) float64 {
	switch {
	case rSquared >= 0.7:
		return 0.8
	case rSquared >= 0.4:
		return 1.0
	default:
		return 1.3
	}
}

// ConfidenceInterval returns bounds around value that widen linearly with
// periodsAhead. lower <= value <= upper always holds.
func ConfidenceInterval(value float64, periodsAhead int, rSquared float64) (lower, upper float64) {
	if periodsAhead < 1 {
		periodsAhead = 1
	}
	half := math.Abs(value) * intervalStep * float64(periodsAhead) * intervalFactor(rSquared)
	return value - half, value + half
}

// ConfidenceFor labels a projection periodsAhead steps out.
func ConfidenceFor(periodsAhead int, rSquared float64) enums.ConfidenceLevel {
	switch {
	case rSquared >= 0.7 && periodsAhead <= 2:
		return enums.ConfidenceLevelHigh
	case rSquared < 0.4 && periodsAhead > 4:
		return enums.ConfidenceLevelLow
	default:
		return enums.ConfidenceLevelMedium
	}
}
