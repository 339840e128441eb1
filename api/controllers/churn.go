package controllers

import (
	"net/http"

	"github.com/angelmondragon/healthpulse-backend/api/responses"
	"github.com/angelmondragon/healthpulse-backend/api/validators"
	"github.com/angelmondragon/healthpulse-backend/internal/churn"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

// ScoreChurn scores an uploaded batch of customer rows.
func ScoreChurn(svc churn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "churn service unavailable"))
			return
		}

		var req churn.BatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.ScoreBatch(r.Context(), req))
	}
}

func GetChurnThresholds(svc churn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "churn service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Thresholds())
	}
}

// UpdateChurnThresholds applies a partial override: fields absent from the
// body keep their current values. Values are not range checked.
func UpdateChurnThresholds(svc churn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "churn service unavailable"))
			return
		}

		next := svc.Thresholds()
		if err := validators.DecodeJSONBody(r, &next); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.ReplaceThresholds(r.Context(), next))
	}
}
