package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

func monthly(start time.Time, values ...float64) []Point {
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Date: start.AddDate(0, i, 0), Value: v}
	}
	return out
}

var jan2024 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestVariance(t *testing.T) {
	assert.Equal(t, 0.0, Variance(nil, 0))
	assert.Equal(t, 0.0, Variance([]float64{5}, 5))
	assert.InDelta(t, 4.0, Variance([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 5), 1e-9)
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.Equal(t, 0.0, CoefficientOfVariation([]float64{-1, 1}))
}

func TestLinearTrendSparseSeriesIsStable(t *testing.T) {
	for _, pts := range [][]Point{nil, monthly(jan2024, 10), monthly(jan2024, 10, 50)} {
		got := LinearTrend(pts)
		assert.Equal(t, enums.TrendDirectionStable, got.Direction)
		assert.Zero(t, got.CAGR)
		assert.Zero(t, got.RSquared)
		assert.Zero(t, got.Slope)
	}
}

func TestLinearTrendPerfectLine(t *testing.T) {
	pts := monthly(jan2024, 100, 110, 120, 130, 140, 150)
	got := LinearTrend(pts)

	assert.InDelta(t, 10, got.Slope, 1e-9)
	assert.InDelta(t, 100, got.Intercept, 1e-9)
	assert.InDelta(t, 1, got.RSquared, 1e-9)
	assert.Equal(t, enums.TrendDirectionUp, got.Direction)
	assert.Greater(t, got.CAGR, 3.0)
	assert.InDelta(t, 0, got.Acceleration, 1e-9)
}

func TestLinearTrendSortsInput(t *testing.T) {
	pts := monthly(jan2024, 150, 140, 130, 120, 110, 100)
	reversed := []Point{pts[5], pts[2], pts[0], pts[4], pts[1], pts[3]}
	assert.Equal(t, LinearTrend(pts), LinearTrend(reversed))
	assert.Equal(t, enums.TrendDirectionDown, LinearTrend(pts).Direction)
}

func TestLinearTrendFlatSeries(t *testing.T) {
	got := LinearTrend(monthly(jan2024, 50, 50, 50, 50))
	assert.Equal(t, enums.TrendDirectionStable, got.Direction)
	assert.Zero(t, got.CAGR)
	assert.Equal(t, 1.0, got.RSquared)
}

func TestLinearTrendAcceleration(t *testing.T) {
	got := LinearTrend(monthly(jan2024, 100, 101, 102, 110, 120, 130))
	assert.Greater(t, got.Acceleration, 0.0)
}

func TestCAGRInfersPeriodsFromSpacing(t *testing.T) {
	quarterly := []Point{}
	for i := 0; i < 4; i++ {
		quarterly = append(quarterly, Point{Date: jan2024.AddDate(0, 3*i, 0), Value: 100 + float64(i)*10})
	}
	monthlyPts := monthly(jan2024, 100, 110, 120, 130)
	assert.Less(t, LinearTrend(quarterly).CAGR, LinearTrend(monthlyPts).CAGR)
}

func TestDirectionThresholds(t *testing.T) {
	assert.Equal(t, enums.TrendDirectionStable, DirectionFor(3))
	assert.Equal(t, enums.TrendDirectionUp, DirectionFor(3.01))
	assert.Equal(t, enums.TrendDirectionStable, DirectionFor(-3))
	assert.Equal(t, enums.TrendDirectionDown, DirectionFor(-3.01))
}

func TestConfidenceIntervalWidens(t *testing.T) {
	for _, r2 := range []float64{0.9, 0.5, 0.1} {
		prevWidth := 0.0
		for ahead := 1; ahead <= 8; ahead++ {
			lo, hi := ConfidenceInterval(1000, ahead, r2)
			require.LessOrEqual(t, lo, 1000.0)
			require.GreaterOrEqual(t, hi, 1000.0)
			require.Greater(t, hi-lo, prevWidth)
			prevWidth = hi - lo
		}
	}
	lo, hi := ConfidenceInterval(-200, 2, 0.2)
	assert.LessOrEqual(t, lo, -200.0)
	assert.GreaterOrEqual(t, hi, -200.0)

	loStrong, hiStrong := ConfidenceInterval(1000, 3, 0.8)
	loWeak, hiWeak := ConfidenceInterval(1000, 3, 0.3)
	assert.Less(t, hiStrong-loStrong, hiWeak-loWeak)
}

func TestConfidenceForIsMonotonic(t *testing.T) {
	rank := map[enums.ConfidenceLevel]int{enums.ConfidenceLevelLow: 0, enums.ConfidenceLevelMedium: 1, enums.ConfidenceLevelHigh: 2}
	for _, r2 := range []float64{0, 0.2, 0.39, 0.4, 0.69, 0.7, 1} {
		assert.GreaterOrEqual(t, rank[ConfidenceFor(1, r2)], rank[ConfidenceFor(8, r2)], "r2=%v", r2)
	}
	assert.Equal(t, enums.ConfidenceLevelHigh, ConfidenceFor(2, 0.7))
	assert.Equal(t, enums.ConfidenceLevelMedium, ConfidenceFor(3, 0.7))
	assert.Equal(t, enums.ConfidenceLevelLow, ConfidenceFor(5, 0.39))
	assert.Equal(t, enums.ConfidenceLevelMedium, ConfidenceFor(4, 0.1))
}

func TestAggregate(t *testing.T) {
	day := jan2024.Add(9 * time.Hour)
	pts := []Point{
		{Date: day, Value: 10},
		{Date: day.Add(2 * time.Hour), Value: 30},
		{Date: jan2024.AddDate(0, 0, 3), Value: 5},
	}
	sum := Aggregate(pts, AggregateSum)
	require.Len(t, sum, 2)
	assert.Equal(t, 40.0, sum[0].Value)

	mean := Aggregate(pts, AggregateMean)
	assert.Equal(t, 20.0, mean[0].Value)

	byMonth := AggregateByMonth(append(pts, Point{Date: jan2024.AddDate(0, 1, 2), Value: 7}), AggregateSum)
	require.Len(t, byMonth, 2)
	assert.Equal(t, 45.0, byMonth[0].Value)
	assert.Equal(t, jan2024.AddDate(0, 1, 0), byMonth[1].Date)
}

func TestAddMonthsClampsMonthEnd(t *testing.T) {
	jan31 := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 1))
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 2))
	assert.Equal(t, time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 3))
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), 2))
	assert.Equal(t, time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), -3))
}

func TestMeasureModes(t *testing.T) {
	assert.Equal(t, MeasureLevel, MeasureForMetric("arr"))
	assert.Equal(t, MeasureScore, MeasureForMetric("health_score"))
	assert.Equal(t, MeasureFlow, MeasureForMetric("support_tickets"))

	assert.Equal(t, AggregateSum, MeasureLevel.DailyMode())
	assert.Equal(t, AggregateMean, MeasureLevel.MonthlyMode())
	assert.Equal(t, AggregateMean, MeasureScore.DailyMode())
	assert.Equal(t, AggregateSum, MeasureFlow.MonthlyMode())
	assert.False(t, Measure("volume").IsValid())
}

func TestClampAndRound(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 100))
	assert.Equal(t, 100.0, Clamp(140, 0, 100))
	assert.Equal(t, 2.35, Round(2.346, 2))
}
