package playbooks

import (
	"time"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
)

// Alternative is a runner-up playbook.
type Alternative struct {
	PlaybookID string             `json:"playbook_id"`
	Name       string             `json:"name"`
	Type       enums.PlaybookType `json:"type"`
	FitScore   float64            `json:"fit_score"`
}

type Recommendation struct {
	ID                   string                     `json:"id"`
	CustomerID           string                     `json:"customer_id"`
	RecommendedPlaybook  Playbook                   `json:"recommended_playbook"`
	FitScore             float64                    `json:"fit_score"`
	Reasoning            []string                   `json:"reasoning"`
	AlternativePlaybooks []Alternative              `json:"alternative_playbooks"`
	TriggerType          enums.TriggerType          `json:"trigger_type"`
	Status               enums.RecommendationStatus `json:"status"`
	RequiresApproval     bool                       `json:"requires_approval"`
	TriggerEvent         *string                    `json:"trigger_event,omitempty"`
	CreatedAt            time.Time                  `json:"created_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
}

// Transition moves a recommendation to next, rejecting moves the
// lifecycle does not allow.
func (r *Recommendation) Transition(next enums.RecommendationStatus, at time.Time) error {
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown recommendation status")
	}
	if !r.Status.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "recommendation status transition not allowed").
			WithDetails(map[string]any{"from": r.Status, "to": next})
	}
	r.Status = next
	r.UpdatedAt = at
	return nil
}
