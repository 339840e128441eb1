package timeseries

import (
	"math"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

const (
	// DirectionThreshold is the CAGR percentage beyond which a series counts
	// as trending.
	DirectionThreshold = 3.0

	minTrendPoints = 3
	daysPerYear    = 365.25
	maxCAGR        = 10000.0
)

// TrendResult is a least-squares fit over a chronologically sorted series.
type TrendResult struct {
	Direction    enums.TrendDirection `json:"direction"`
	CAGR         float64              `json:"cagr"`
	RSquared     float64              `json:"r_squared"`
	Acceleration float64              `json:"acceleration"`
	Slope        float64              `json:"slope"`
	Intercept    float64              `json:"intercept"`
	Samples      int                  `json:"samples"`
}

// LinearTrend fits y = intercept + slope*i over the sorted points, where i is
// the period index. Fewer than three points yield a stable, all-zero result.
func LinearTrend(points []Point) TrendResult {
	sorted := Sorted(points)
	n := len(sorted)
	if n < minTrendPoints {
		return TrendResult{Direction: enums.TrendDirectionStable, Samples: n}
	}

	values := Values(sorted)
	slope, intercept := ols(values)
	mean := Mean(values)

	result := TrendResult{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared(values, slope, intercept),
		Samples:   n,
	}
	result.CAGR = cagr(slope, mean, periodsPerYear(sorted))

	if mean != 0 {
		half := n / 2
		first, _ := ols(values[:half])
		second, _ := ols(values[half:])
		result.Acceleration = (second - first) / math.Abs(mean) * 100
	}
	result.Direction = DirectionFor(result.CAGR)
	return result
}

// DirectionFor classifies a CAGR percentage.
func DirectionFor(cagr float64) enums.TrendDirection {
	switch {
	case cagr > DirectionThreshold:
		return enums.TrendDirectionUp
	case cagr < -DirectionThreshold:
		return enums.TrendDirectionDown
	default:
		return enums.TrendDirectionStable
	}
}

func ols(values []float64) (slope, intercept float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, values[0]
	}
	xMean := float64(n-1) / 2
	yMean := Mean(values)
	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0, yMean
	}
	slope = num / den
	return slope, yMean - slope*xMean
}

// rSquared is 1 - SSres/SStot. A constant series is fitted exactly.
func rSquared(values []float64, slope, intercept float64) float64 {
	mean := Mean(values)
	var ssRes, ssTot float64
	for i, y := range values {
		fit := intercept + slope*float64(i)
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		return 1
	}
	return Clamp(1-ssRes/ssTot, 0, 1)
}

func periodsPerYear(sorted []Point) float64 {
	n := len(sorted)
	span := sorted[n-1].Date.Sub(sorted[0].Date).Hours() / 24
	avg := span / float64(n-1)
	if avg <= 0 {
		return 12
	}
	return daysPerYear / avg
}

func cagr(slope, mean, perYear float64) float64 {
	if mean == 0 {
		return 0
	}
	growth := 1 + slope/mean
	if growth <= 0 {
		return -100
	}
	v := (math.Pow(growth, perYear) - 1) * 100
	if math.IsInf(v, 1) || v > maxCAGR {
		return maxCAGR
	}
	return v
}
