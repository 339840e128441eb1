package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/healthpulse-backend/internal/seasonal"
	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func monthlySeries(n int, value func(i int) float64) []timeseries.Point {
	points := make([]timeseries.Point, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, timeseries.Point{Date: start.AddDate(0, i, 0), Value: value(i)})
	}
	return points
}

func TestTimeSeriesSparseInputIsEmpty(t *testing.T) {
	out := TimeSeries(monthlySeries(2, func(i int) float64 { return 100 }), 6, enums.PeriodTypeMonth, nil)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestTimeSeriesBoundsOrdering(t *testing.T) {
	cases := map[string][]timeseries.Point{
		"growing":   monthlySeries(12, func(i int) float64 { return 1000 + 50*float64(i) }),
		"declining": monthlySeries(12, func(i int) float64 { return 2000 - 80*float64(i) }),
		"noisy":     monthlySeries(12, func(i int) float64 { return 500 + float64((i*37)%11)*20 }),
	}
	for name, points := range cases {
		t.Run(name, func(t *testing.T) {
			out := TimeSeries(points, 8, enums.PeriodTypeMonth, nil)
			require.Len(t, out, 8)
			for _, p := range out {
				assert.LessOrEqual(t, p.LowerBound, p.PredictedValue)
				assert.LessOrEqual(t, p.PredictedValue, p.UpperBound)
			}
		})
	}
}

func TestTimeSeriesConfidenceDegradesWithHorizon(t *testing.T) {
	points := monthlySeries(12, func(i int) float64 { return 1000 + 10*float64(i) })
	out := TimeSeries(points, 8, enums.PeriodTypeMonth, nil)
	require.Len(t, out, 8)
	assert.GreaterOrEqual(t, out[0].Confidence.Rank(), out[7].Confidence.Rank())
	assert.Equal(t, enums.ConfidenceLevelHigh, out[0].Confidence)
}

func TestTimeSeriesLabels(t *testing.T) {
	points := monthlySeries(6, func(i int) float64 { return 100 + float64(i) })
	monthly := TimeSeries(points, 1, enums.PeriodTypeMonth, nil)
	quarterly := TimeSeries(points, 1, enums.PeriodTypeQuarter, nil)
	yearly := TimeSeries(points, 1, enums.PeriodTypeYear, nil)

	assert.Equal(t, "Jul 2024", monthly[0].Label)
	assert.Equal(t, "Q3 2024", quarterly[0].Label)
	assert.Equal(t, "2025", yearly[0].Label)
}

func TestTimeSeriesMonthEndInputKeepsEveryMonth(t *testing.T) {
	points := make([]timeseries.Point, 0, 12)
	for m := time.January; m <= time.December; m++ {
		monthEnd := time.Date(2025, m+1, 0, 0, 0, 0, 0, time.UTC)
		points = append(points, timeseries.Point{Date: monthEnd, Value: 1000 + 10*float64(m)})
	}

	out := TimeSeries(points, 4, enums.PeriodTypeMonth, nil)
	require.Len(t, out, 4)
	labels := make([]string, 0, len(out))
	for _, p := range out {
		labels = append(labels, p.Label)
	}
	assert.Equal(t, []string{"Jan 2026", "Feb 2026", "Mar 2026", "Apr 2026"}, labels)
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), out[1].Date)
	assert.Equal(t, time.Date(2026, time.April, 30, 0, 0, 0, 0, time.UTC), out[3].Date)
}

func TestTimeSeriesFlatSeriesProjectsFlat(t *testing.T) {
	out := TimeSeries(monthlySeries(12, func(int) float64 { return 250 }), 3, enums.PeriodTypeMonth, nil)
	for _, p := range out {
		assert.Equal(t, 250.0, p.PredictedValue)
	}
}

func TestTimeSeriesAppliesQuarterlyPattern(t *testing.T) {
	points := monthlySeries(12, func(int) float64 { return 100 })
	pattern := &seasonal.Pattern{
		Periodicity: enums.PeriodicityQuarterly,
		SeasonalityIndex: []seasonal.PeriodIndex{
			{Period: "Q1", Index: 80},
			{Period: "Q2", Index: 100},
			{Period: "Q3", Index: 100},
			{Period: "Q4", Index: 120},
		},
	}
	out := TimeSeries(points, 1, enums.PeriodTypeMonth, pattern)
	require.Len(t, out, 1)
	assert.Equal(t, "Jan 2025", out[0].Label)
	assert.InDelta(t, 80.0, out[0].PredictedValue, 1e-9)
}

func TestPeriodGrowth(t *testing.T) {
	assert.InDelta(t, 0.21, PeriodGrowth(21, enums.PeriodTypeYear), 1e-9)
	assert.InDelta(t, 0.0488, PeriodGrowth(21, enums.PeriodTypeQuarter), 1e-3)
	assert.InDelta(t, -1.0, PeriodGrowth(-150, enums.PeriodTypeMonth), 1e-9)
}

func TestCustomerActionLadder(t *testing.T) {
	cases := []struct {
		name   string
		arr    func(i int) float64
		health []timeseries.Point
		want   enums.RecommendedAction
	}{
		{
			name: "steep decline needs intervention",
			arr:  func(i int) float64 { return 100000 - 5000*float64(i) },
			want: enums.RecommendedActionAtRiskIntervention,
		},
		{
			name:   "low health triggers save play",
			arr:    func(int) float64 { return 100000 },
			health: monthlySeries(6, func(int) float64 { return 40 }),
			want:   enums.RecommendedActionSavePlay,
		},
		{
			name: "fast growth is an expansion play",
			arr:  func(i int) float64 { return 100000 + 4000*float64(i) },
			want: enums.RecommendedActionExpansionPlay,
		},
		{
			name: "flat account is maintained",
			arr:  func(int) float64 { return 100000 },
			want: enums.RecommendedActionMaintain,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Customer(CustomerSeries{
				CustomerID: "cust-1",
				ARR:        monthlySeries(12, tc.arr),
				Health:     tc.health,
			}, 6, enums.PeriodTypeMonth, nil)
			assert.Equal(t, tc.want, out.RecommendedAction)
		})
	}
}

func TestCustomerHealthForecastClamped(t *testing.T) {
	out := Customer(CustomerSeries{
		CustomerID: "cust-1",
		ARR:        monthlySeries(12, func(int) float64 { return 1000 }),
		Health:     monthlySeries(12, func(i int) float64 { return 60 + 4*float64(i) }),
	}, 12, enums.PeriodTypeMonth, nil)

	require.NotEmpty(t, out.HealthForecast)
	for _, p := range out.HealthForecast {
		assert.LessOrEqual(t, p.UpperBound, 100.0)
		assert.GreaterOrEqual(t, p.LowerBound, 0.0)
	}
	require.NotNil(t, out.CurrentHealth)
	assert.Equal(t, 104.0, *out.CurrentHealth)
}

func TestPortfolioAggregatesCustomers(t *testing.T) {
	series := []CustomerSeries{
		{CustomerID: "a", ARR: monthlySeries(12, func(int) float64 { return 1000 })},
		{CustomerID: "b", ARR: monthlySeries(12, func(i int) float64 { return 2000 - 100*float64(i) })},
	}
	out := Portfolio(series, 3, enums.PeriodTypeMonth)

	assert.Equal(t, 2, out.CustomerCount)
	assert.Equal(t, "1900", out.CurrentARR.String())
	assert.Equal(t, "900", out.AtRiskARR.String())
	assert.Equal(t, 1, out.ActionCounts[enums.RecommendedActionMaintain])
	assert.Equal(t, 1, out.ActionCounts[enums.RecommendedActionAtRiskIntervention])
	assert.Len(t, out.ARRForecast, 3)
	assert.NotEmpty(t, out.Methodology)
	assert.NotEmpty(t, out.Assumptions)
}

func TestPortfolioEmpty(t *testing.T) {
	out := Portfolio(nil, 3, enums.PeriodTypeMonth)
	assert.Zero(t, out.CustomerCount)
	assert.Empty(t, out.ARRForecast)
	assert.True(t, out.CurrentARR.IsZero())
}
