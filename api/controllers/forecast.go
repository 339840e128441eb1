package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/healthpulse-backend/api/responses"
	"github.com/angelmondragon/healthpulse-backend/api/validators"
	"github.com/angelmondragon/healthpulse-backend/internal/forecast"
	"github.com/angelmondragon/healthpulse-backend/internal/seasonal"
	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/config"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

type forecastPortfolioRequest struct {
	CustomerIDs []string         `json:"customer_ids" validate:"omitempty,max=5000,dive,required"`
	Periods     int              `json:"periods" validate:"omitempty,min=1"`
	PeriodType  enums.PeriodType `json:"period_type"`
}

type forecastSeriesRequest struct {
	Metric      string             `json:"metric"`
	Points      []timeseries.Point `json:"points" validate:"required,min=1,max=1000"`
	Periods     int                `json:"periods" validate:"omitempty,min=1"`
	PeriodType  enums.PeriodType   `json:"period_type"`
	Seasonality bool               `json:"seasonality"`
	Measure     timeseries.Measure `json:"measure" validate:"omitempty,oneof=level score flow"`
}

type forecastSeriesResponse struct {
	Periods     []forecast.Period      `json:"forecast"`
	Trend       timeseries.TrendResult `json:"trend"`
	Seasonality *seasonal.Analysis     `json:"seasonality,omitempty"`
}

// CustomerForecast projects one customer's ARR and health.
func CustomerForecast(svc forecast.Service, cfg config.ForecastConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		customerID, err := customerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		periods, err := validators.ParseQueryInt(r, "periods", cfg.DefaultPeriods, 1, cfg.MaxPeriods)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		periodType, err := parsePeriodType(r.URL.Query().Get("period_type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.Customer(r.Context(), customerID, forecast.Request{Periods: periods, PeriodType: periodType})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func PortfolioForecast(svc forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		var req forecastPortfolioRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.PeriodType != "" && !req.PeriodType.IsValid() {
			responses.WriteError(r.Context(), logg, w, invalidPeriodType(string(req.PeriodType)))
			return
		}

		out, err := svc.Portfolio(r.Context(), req.CustomerIDs, forecast.Request{Periods: req.Periods, PeriodType: req.PeriodType})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ForecastSeries projects an arbitrary caller-supplied series. Rows sharing
// a date are combined according to the measure, which defaults from the
// metric name. With seasonality set, a significant quarterly pattern in the
// monthly aggregate adjusts the projection.
func ForecastSeries(detector *seasonal.Detector, cfg config.ForecastConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forecastSeriesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.PeriodType == "" {
			req.PeriodType = enums.PeriodTypeMonth
		}
		if !req.PeriodType.IsValid() {
			responses.WriteError(r.Context(), logg, w, invalidPeriodType(string(req.PeriodType)))
			return
		}
		switch {
		case req.Periods <= 0:
			req.Periods = cfg.DefaultPeriods
		case req.Periods > cfg.MaxPeriods:
			req.Periods = cfg.MaxPeriods
		}

		metric := strings.TrimSpace(req.Metric)
		if metric == "" {
			metric = "value"
		}
		measure := req.Measure
		if measure == "" {
			measure = timeseries.MeasureForMetric(metric)
		}
		points := timeseries.Aggregate(req.Points, measure.DailyMode())
		resp := forecastSeriesResponse{Trend: timeseries.LinearTrend(points)}

		var pattern *seasonal.Pattern
		if req.Seasonality && detector != nil {
			analysis := detector.Analyze(metric, timeseries.AggregateByMonth(points, measure.MonthlyMode()))
			resp.Seasonality = &analysis
			if analysis.HasSignificantSeasonality {
				pattern = analysis.PrimaryPattern
			}
		}

		resp.Periods = forecast.TimeSeries(points, req.Periods, req.PeriodType, pattern)
		responses.WriteSuccess(w, resp)
	}
}

func parsePeriodType(raw string) (enums.PeriodType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return enums.PeriodTypeMonth, nil
	}
	pt, err := enums.ParsePeriodType(raw)
	if err != nil {
		return "", invalidPeriodType(raw)
	}
	return pt, nil
}

func invalidPeriodType(raw string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid period_type").
		WithDetails(map[string]any{"period_type": raw, "allowed": []string{"month", "quarter", "year"}})
}
