package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/healthpulse-backend/api/responses"
	"github.com/angelmondragon/healthpulse-backend/api/validators"
	"github.com/angelmondragon/healthpulse-backend/internal/issues"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
)

type clusterIssuesRequest struct {
	Tickets []issues.Ticket `json:"tickets" validate:"required,min=1,max=10000,dive"`
	AsOf    *time.Time      `json:"as_of,omitempty"`
}

// ClusterIssues groups tickets into categories. Trend windows are measured
// back from as_of, or from now when omitted.
func ClusterIssues(now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req clusterIssuesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asOf := now().UTC()
		if req.AsOf != nil {
			asOf = req.AsOf.UTC()
		}
		responses.WriteSuccess(w, issues.ClusterTickets(req.Tickets, asOf))
	}
}
