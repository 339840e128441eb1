// Package forecast projects metric series forward from their fitted trend,
// optionally adjusted by a quarterly seasonal pattern.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/angelmondragon/healthpulse-backend/internal/seasonal"
	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// Period is one projected step. LowerBound <= PredictedValue <= UpperBound.
type Period struct {
	Label          string                `json:"period"`
	Date           time.Time             `json:"date"`
	PredictedValue float64               `json:"predicted_value"`
	LowerBound     float64               `json:"lower_bound"`
	UpperBound     float64               `json:"upper_bound"`
	Confidence     enums.ConfidenceLevel `json:"confidence"`
}

// PeriodGrowth converts an annual CAGR percentage into the compounding
// growth rate of one period of the given type.
func PeriodGrowth(cagr float64, periodType enums.PeriodType) float64 {
	base := 1 + cagr/100
	if base <= 0 {
		return -1
	}
	return math.Pow(base, float64(periodType.Months())/12) - 1
}

// TimeSeries projects points forward by periods steps. Fewer than three
// points produce an empty forecast.
func TimeSeries(points []timeseries.Point, periods int, periodType enums.PeriodType, pattern *seasonal.Pattern) []Period {
	if len(points) < 3 || periods <= 0 {
		return []Period{}
	}
	if !periodType.IsValid() {
		periodType = enums.PeriodTypeMonth
	}

	sorted := timeseries.Sorted(points)
	trend := timeseries.LinearTrend(sorted)
	growth := PeriodGrowth(trend.CAGR, periodType)
	last := sorted[len(sorted)-1]
	seasonalAdjust := pattern != nil && pattern.Periodicity == enums.PeriodicityQuarterly

	out := make([]Period, 0, periods)
	for i := 1; i <= periods; i++ {
		date := timeseries.AddMonths(last.Date, periodType.Months()*i)
		value := last.Value * math.Pow(1+growth, float64(i))
		if seasonalAdjust {
			value *= pattern.IndexFor(date) / 100
		}
		lower, upper := timeseries.ConfidenceInterval(value, i, trend.RSquared)
		out = append(out, Period{
			Label:          Label(date, periodType),
			Date:           date,
			PredictedValue: timeseries.Round(value, 2),
			LowerBound:     timeseries.Round(lower, 2),
			UpperBound:     timeseries.Round(upper, 2),
			Confidence:     timeseries.ConfidenceFor(i, trend.RSquared),
		})
	}
	return out
}

// Label renders a period date for display.
func Label(date time.Time, periodType enums.PeriodType) string {
	switch periodType {
	case enums.PeriodTypeQuarter:
		return fmt.Sprintf("Q%d %d", (int(date.Month())-1)/3+1, date.Year())
	case enums.PeriodTypeYear:
		return fmt.Sprintf("%d", date.Year())
	default:
		return date.Format("Jan 2006")
	}
}

// clampScores bounds a score forecast to the 0-100 scale.
func clampScores(periods []Period) []Period {
	for i := range periods {
		periods[i].PredictedValue = timeseries.Clamp(periods[i].PredictedValue, 0, 100)
		periods[i].LowerBound = timeseries.Clamp(periods[i].LowerBound, 0, 100)
		periods[i].UpperBound = timeseries.Clamp(periods[i].UpperBound, 0, 100)
	}
	return periods
}
