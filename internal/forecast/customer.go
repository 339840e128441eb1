package forecast

import (
	"fmt"

	"github.com/angelmondragon/healthpulse-backend/internal/seasonal"
	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

const (
	interventionCAGR = -15.0
	expansionCAGR    = 25.0
	upsellCAGR       = 10.0
	lowHealth        = 50.0
	strongHealth     = 80.0
	accelerationBand = 10.0
)

// CustomerSeries is the history a customer forecast is built from. Health
// is optional.
type CustomerSeries struct {
	CustomerID   string             `json:"customer_id"`
	CustomerName string             `json:"customer_name,omitempty"`
	ARR          []timeseries.Point `json:"arr"`
	Health       []timeseries.Point `json:"health,omitempty"`
}

type CustomerForecast struct {
	CustomerID         string                  `json:"customer_id"`
	CustomerName       string                  `json:"customer_name,omitempty"`
	PeriodType         enums.PeriodType        `json:"period_type"`
	ARRForecast        []Period                `json:"arr_forecast"`
	HealthForecast     []Period                `json:"health_forecast,omitempty"`
	ARRTrend           timeseries.TrendResult  `json:"arr_trend"`
	HealthTrend        *timeseries.TrendResult `json:"health_trend,omitempty"`
	Trajectory         enums.TrendDirection    `json:"trajectory"`
	CurrentARR         float64                 `json:"current_arr"`
	ProjectedARR       float64                 `json:"projected_arr"`
	CurrentHealth      *float64                `json:"current_health,omitempty"`
	RiskFactors        []string                `json:"risk_factors"`
	OpportunityFactors []string                `json:"opportunity_factors"`
	RecommendedAction  enums.RecommendedAction `json:"recommended_action"`
	SeasonalPattern    *seasonal.Pattern       `json:"seasonal_pattern,omitempty"`
}

// Customer forecasts ARR and, when supplied, health for one customer. A
// quarterly pattern, if given, adjusts the ARR projection.
func Customer(series CustomerSeries, periods int, periodType enums.PeriodType, pattern *seasonal.Pattern) CustomerForecast {
	arr := timeseries.Sorted(series.ARR)
	out := CustomerForecast{
		CustomerID:      series.CustomerID,
		CustomerName:    series.CustomerName,
		PeriodType:      periodType,
		ARRTrend:        timeseries.LinearTrend(arr),
		ARRForecast:     TimeSeries(arr, periods, periodType, pattern),
		SeasonalPattern: pattern,
	}
	out.Trajectory = out.ARRTrend.Direction
	if len(arr) > 0 {
		out.CurrentARR = arr[len(arr)-1].Value
		out.ProjectedARR = out.CurrentARR
	}
	if n := len(out.ARRForecast); n > 0 {
		out.ProjectedARR = out.ARRForecast[n-1].PredictedValue
	}

	if len(series.Health) > 0 {
		health := timeseries.Sorted(series.Health)
		trend := timeseries.LinearTrend(health)
		latest := health[len(health)-1].Value
		out.HealthTrend = &trend
		out.CurrentHealth = &latest
		out.HealthForecast = clampScores(TimeSeries(health, periods, periodType, nil))
	}

	out.RiskFactors = riskFactors(out)
	out.OpportunityFactors = opportunityFactors(out)
	out.RecommendedAction = recommendAction(out)
	return out
}

func riskFactors(f CustomerForecast) []string {
	risks := []string{}
	if f.ARRTrend.Direction == enums.TrendDirectionDown {
		risks = append(risks, fmt.Sprintf("ARR declining at %.1f%% annualized", f.ARRTrend.CAGR))
	}
	if f.ARRTrend.Samples >= 3 && f.ARRTrend.Acceleration < -accelerationBand {
		risks = append(risks, "ARR growth decelerating")
	}
	if f.CurrentHealth != nil && *f.CurrentHealth < lowHealth {
		risks = append(risks, fmt.Sprintf("Health score low at %.0f", *f.CurrentHealth))
	}
	if f.HealthTrend != nil && f.HealthTrend.Direction == enums.TrendDirectionDown {
		risks = append(risks, "Health score trending down")
	}
	if n := len(f.HealthForecast); n > 0 && f.HealthForecast[n-1].PredictedValue < lowHealth && (f.CurrentHealth == nil || *f.CurrentHealth >= lowHealth) {
		risks = append(risks, "Health projected to fall below 50 within the forecast window")
	}
	return risks
}

func opportunityFactors(f CustomerForecast) []string {
	opps := []string{}
	if f.ARRTrend.CAGR > upsellCAGR {
		opps = append(opps, fmt.Sprintf("ARR growing at %.1f%% annualized", f.ARRTrend.CAGR))
	}
	if f.ARRTrend.Samples >= 3 && f.ARRTrend.Acceleration > accelerationBand {
		opps = append(opps, "ARR growth accelerating")
	}
	if f.CurrentHealth != nil && *f.CurrentHealth >= strongHealth {
		opps = append(opps, fmt.Sprintf("Strong health score of %.0f", *f.CurrentHealth))
	}
	if f.HealthTrend != nil && f.HealthTrend.Direction == enums.TrendDirectionUp {
		opps = append(opps, "Health score improving")
	}
	return opps
}

// recommendAction walks the priority ladder from most to least urgent.
func recommendAction(f CustomerForecast) enums.RecommendedAction {
	cagr := f.ARRTrend.CAGR
	switch {
	case cagr <= interventionCAGR && f.ARRTrend.Samples >= 3:
		return enums.RecommendedActionAtRiskIntervention
	case f.ARRTrend.Direction == enums.TrendDirectionDown || (f.CurrentHealth != nil && *f.CurrentHealth < lowHealth):
		return enums.RecommendedActionSavePlay
	case cagr > expansionCAGR && len(f.RiskFactors) == 0:
		return enums.RecommendedActionExpansionPlay
	case cagr > upsellCAGR:
		return enums.RecommendedActionUpsellReady
	default:
		return enums.RecommendedActionMaintain
	}
}
