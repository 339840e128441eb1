package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/healthpulse-backend/api/responses"
	"github.com/angelmondragon/healthpulse-backend/api/validators"
	"github.com/angelmondragon/healthpulse-backend/internal/seasonal"
	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

type seasonalityRequest struct {
	Metric string             `json:"metric" validate:"required,max=64"`
	Points []timeseries.Point `json:"points" validate:"required,min=1,max=1000"`
}

// AnalyzeSeasonality runs the detector over a caller-supplied series.
// Sparse series succeed with no patterns.
func AnalyzeSeasonality(detector *seasonal.Detector, logg *logger.Logger) http.HandlerFunc {
	if detector == nil {
		detector = seasonal.NewDetector()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req seasonalityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detector.Analyze(strings.TrimSpace(req.Metric), req.Points))
	}
}
