package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/healthpulse-backend/api/responses"
	"github.com/angelmondragon/healthpulse-backend/api/validators"
	"github.com/angelmondragon/healthpulse-backend/internal/propensity"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

type propensityBatchRequest struct {
	CustomerIDs []string `json:"customer_ids" validate:"required,min=1,max=500,dive,required"`
	Refresh     bool     `json:"refresh"`
}

type propensityPortfolioRequest struct {
	CustomerIDs []string `json:"customer_ids" validate:"omitempty,max=5000,dive,required"`
}

// CustomerPropensity scores one customer, serving from cache unless
// refresh=true.
func CustomerPropensity(svc propensity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "propensity service unavailable"))
			return
		}

		customerID, err := customerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refresh, err := validators.ParseQueryBool(r, "refresh", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		score, err := svc.Score(r.Context(), customerID, refresh)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, score)
	}
}

func PropensityBatch(svc propensity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "propensity service unavailable"))
			return
		}

		var req propensityBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ScoreBatch(r.Context(), req.CustomerIDs, req.Refresh)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PropensityPortfolio summarises the given customers, or every customer
// when the list is empty.
func PropensityPortfolio(svc propensity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "propensity service unavailable"))
			return
		}

		var req propensityPortfolioRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Portfolio(r.Context(), req.CustomerIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func customerIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "customerId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return validators.SanitizeString(id, 128), nil
}
