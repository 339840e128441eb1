package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/healthpulse-backend/api/responses"
	"github.com/angelmondragon/healthpulse-backend/api/validators"
	"github.com/angelmondragon/healthpulse-backend/internal/playbooks"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/pagination"
)

type recommendationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func ListPlaybooks(svc playbooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "playbooks service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Library(r.Context()))
	}
}

// RecommendPlaybook picks the best playbook for a customer. The trigger
// body is optional.
func RecommendPlaybook(svc playbooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "playbooks service unavailable"))
			return
		}

		customerID, err := customerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var trig playbooks.Trigger
		if err := validators.DecodeOptionalJSONBody(r, &trig); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if trig.Hint != "" && !trig.Hint.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid playbook hint").
				WithDetails(map[string]any{"hint": string(trig.Hint)}))
			return
		}

		rec, err := svc.Recommend(r.Context(), customerID, trig)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rec)
	}
}

func EvaluateTriggers(svc playbooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "playbooks service unavailable"))
			return
		}

		customerID, err := customerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recs, err := svc.EvaluateTriggers(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"recommendations": recs, "count": len(recs)})
	}
}

// UpdateRecommendationStatus moves a recommendation along its lifecycle.
// Illegal transitions return STATE_CONFLICT.
func UpdateRecommendationStatus(svc playbooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "playbooks service unavailable"))
			return
		}

		recID := strings.TrimSpace(chi.URLParam(r, "recommendationId"))
		if recID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "recommendation id is required"))
			return
		}

		var req recommendationStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseRecommendationStatus(strings.TrimSpace(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		rec, err := svc.UpdateStatus(r.Context(), recID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rec)
	}
}

// ListRecommendations pages through a customer's recommendation history
// with limit and cursor query parameters.
func ListRecommendations(svc playbooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "playbooks service unavailable"))
			return
		}

		customerID, err := customerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListRecommendations(r.Context(), customerID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
