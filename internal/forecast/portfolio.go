package forecast

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

const methodology = "Monthly ARR is summed and health averaged across customers, fitted with ordinary least squares, " +
	"and projected by compounding the trend CAGR over each period. Bounds widen linearly with horizon and with weaker fits."

var assumptions = []string{
	"Historical growth continues at the fitted compound rate.",
	"No customers are added or lost beyond what the history already reflects.",
	"Health scores stay on the 0-100 scale and are averaged without ARR weighting.",
	"Seasonal effects are ignored at portfolio level.",
}

type PortfolioForecast struct {
	PeriodType         enums.PeriodType                `json:"period_type"`
	CustomerCount      int                             `json:"customer_count"`
	ARRForecast        []Period                        `json:"arr_forecast"`
	HealthForecast     []Period                        `json:"health_forecast"`
	ARRTrend           timeseries.TrendResult          `json:"arr_trend"`
	CurrentARR         decimal.Decimal                 `json:"current_arr"`
	ProjectedARR       decimal.Decimal                 `json:"projected_arr"`
	AtRiskARR          decimal.Decimal                 `json:"at_risk_arr"`
	ProjectedGrowthPct float64                         `json:"projected_growth_pct"`
	ActionCounts       map[enums.RecommendedAction]int `json:"action_counts"`
	Methodology        string                          `json:"methodology"`
	Assumptions        []string                        `json:"assumptions"`
}

// Portfolio aggregates every customer's history by month before
// forecasting, and summarises the per-customer recommended actions.
func Portfolio(series []CustomerSeries, periods int, periodType enums.PeriodType) PortfolioForecast {
	out := PortfolioForecast{
		PeriodType:    periodType,
		CustomerCount: len(series),
		ActionCounts:  map[enums.RecommendedAction]int{},
		CurrentARR:    decimal.Zero,
		ProjectedARR:  decimal.Zero,
		AtRiskARR:     decimal.Zero,
		Methodology:   methodology,
		Assumptions:   append([]string(nil), assumptions...),
	}

	arrByMonth := map[time.Time]float64{}
	healthByMonth := map[time.Time][]float64{}

	for _, s := range series {
		for _, p := range timeseries.AggregateByMonth(s.ARR, timeseries.AggregateMean) {
			arrByMonth[p.Date] += p.Value
		}
		for _, p := range timeseries.AggregateByMonth(s.Health, timeseries.AggregateMean) {
			healthByMonth[p.Date] = append(healthByMonth[p.Date], p.Value)
		}

		cf := Customer(s, periods, periodType, nil)
		out.ActionCounts[cf.RecommendedAction]++
		current := money(cf.CurrentARR)
		out.CurrentARR = out.CurrentARR.Add(current)
		if cf.RecommendedAction == enums.RecommendedActionAtRiskIntervention || cf.RecommendedAction == enums.RecommendedActionSavePlay {
			out.AtRiskARR = out.AtRiskARR.Add(current)
		}
	}

	arrPoints := make([]timeseries.Point, 0, len(arrByMonth))
	for month, total := range arrByMonth {
		arrPoints = append(arrPoints, timeseries.Point{Date: month, Value: total})
	}
	healthPoints := make([]timeseries.Point, 0, len(healthByMonth))
	for month, values := range healthByMonth {
		healthPoints = append(healthPoints, timeseries.Point{Date: month, Value: timeseries.Mean(values)})
	}
	sortPoints(arrPoints)
	sortPoints(healthPoints)

	out.ARRTrend = timeseries.LinearTrend(arrPoints)
	out.ARRForecast = TimeSeries(arrPoints, periods, periodType, nil)
	out.HealthForecast = clampScores(TimeSeries(healthPoints, periods, periodType, nil))

	out.ProjectedARR = out.CurrentARR
	if n := len(out.ARRForecast); n > 0 {
		out.ProjectedARR = money(out.ARRForecast[n-1].PredictedValue)
		if len(arrPoints) > 0 {
			latest := arrPoints[len(arrPoints)-1].Value
			if latest != 0 {
				out.ProjectedGrowthPct = timeseries.Round((out.ARRForecast[n-1].PredictedValue-latest)/latest*100, 2)
			}
		}
	}
	return out
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func sortPoints(points []timeseries.Point) {
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
}
