package controllers

import (
	"net/http"

	"github.com/angelmondragon/healthpulse-backend/api/responses"
	"github.com/angelmondragon/healthpulse-backend/api/validators"
	"github.com/angelmondragon/healthpulse-backend/internal/nps"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

type npsAnalyzeRequest struct {
	Responses []nps.Response `json:"responses" validate:"required,min=1,max=5000,dive"`
}

func AnalyzeNPS(svc nps.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "nps service unavailable"))
			return
		}

		var req npsAnalyzeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Analyze(r.Context(), req.Responses)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
