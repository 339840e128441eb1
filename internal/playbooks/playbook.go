// Package playbooks matches customers to intervention playbooks, evaluates
// trigger rules and tracks the lifecycle of the resulting recommendations.
package playbooks

import (
	"sort"
	"strings"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// ScoreRange is an inclusive health-score window.
type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v is inside the range.
func (r ScoreRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Distance is how far v falls outside the range, 0 inside.
func (r ScoreRange) Distance(v float64) float64 {
	switch {
	case v < r.Min:
		return r.Min - v
	case v > r.Max:
		return v - r.Max
	default:
		return 0
	}
}

// DayWindow is an inclusive days-to-renewal window.
type DayWindow struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Criteria are the eligibility rules of a playbook. Empty lists match
// every customer.
type Criteria struct {
	LifecycleStages  []enums.LifecycleStage `json:"lifecycle_stages,omitempty"`
	HealthRange      *ScoreRange            `json:"health_range,omitempty"`
	RiskSignals      []string               `json:"risk_signals,omitempty"`
	ExpansionSignals []string               `json:"expansion_signals,omitempty"`
	RenewalWindow    *DayWindow             `json:"renewal_window,omitempty"`
	Industries       []string               `json:"industries,omitempty"`
	Segments         []string               `json:"segments,omitempty"`
}

type Playbook struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Type         enums.PlaybookType `json:"type"`
	Description  string             `json:"description"`
	Criteria     Criteria           `json:"criteria"`
	DurationDays int                `json:"duration_days"`
	StepCount    int                `json:"step_count"`
	SuccessRate  *float64           `json:"success_rate,omitempty"`
}

func rate(v float64) *float64 { return &v }

// DefaultLibrary returns the built-in playbooks.
func DefaultLibrary() []Playbook {
	return []Playbook{
		{
			ID:          "pb-onboarding-accelerator",
			Name:        "Onboarding Accelerator",
			Type:        enums.PlaybookTypeOnboarding,
			Description: "Guided setup, kickoff and first-value milestones for new accounts.",
			Criteria: Criteria{
				LifecycleStages: []enums.LifecycleStage{enums.LifecycleStageOnboarding},
			},
			DurationDays: 30,
			StepCount:    6,
			SuccessRate:  rate(0.78),
		},
		{
			ID:          "pb-adoption-boost",
			Name:        "Adoption Boost",
			Type:        enums.PlaybookTypeAdoption,
			Description: "Feature enablement sessions targeted at unused capabilities.",
			Criteria: Criteria{
				LifecycleStages: []enums.LifecycleStage{enums.LifecycleStageOnboarding, enums.LifecycleStageAdoption, enums.LifecycleStageActive},
				HealthRange:     &ScoreRange{Min: 40, Max: 75},
				RiskSignals:     []string{"low_adoption", "usage_decline"},
			},
			DurationDays: 45,
			StepCount:    5,
			SuccessRate:  rate(0.65),
		},
		{
			ID:          "pb-executive-save",
			Name:        "Executive Save Plan",
			Type:        enums.PlaybookTypeSave,
			Description: "Executive alignment, recovery plan and weekly checkpoints for accounts in danger.",
			Criteria: Criteria{
				LifecycleStages: []enums.LifecycleStage{enums.LifecycleStageAtRisk, enums.LifecycleStageRenewal, enums.LifecycleStageActive},
				HealthRange:     &ScoreRange{Min: 0, Max: 50},
				RiskSignals:     []string{"health_drop", "usage_decline", "champion_left", "support_escalation", "nps_detractor"},
			},
			DurationDays: 45,
			StepCount:    8,
			SuccessRate:  rate(0.55),
		},
		{
			ID:          "pb-risk-mitigation",
			Name:        "Risk Mitigation Check-in",
			Type:        enums.PlaybookTypeSave,
			Description: "Lightweight intervention for early warning signs.",
			Criteria: Criteria{
				LifecycleStages: []enums.LifecycleStage{enums.LifecycleStageActive, enums.LifecycleStageAtRisk},
				HealthRange:     &ScoreRange{Min: 40, Max: 65},
				RiskSignals:     []string{"health_drop", "support_escalation", "low_engagement"},
			},
			DurationDays: 21,
			StepCount:    4,
			SuccessRate:  rate(0.60),
		},
		{
			ID:          "pb-expansion-growth",
			Name:        "Expansion Growth Play",
			Type:        enums.PlaybookTypeExpansion,
			Description: "Capacity review, business case and expansion proposal.",
			Criteria: Criteria{
				LifecycleStages:  []enums.LifecycleStage{enums.LifecycleStageActive, enums.LifecycleStageExpansion},
				HealthRange:      &ScoreRange{Min: 70, Max: 100},
				ExpansionSignals: []string{"expansion_signal", "usage_growth", "seat_limit", "new_team", "feature_request"},
			},
			DurationDays: 60,
			StepCount:    7,
			SuccessRate:  rate(0.48),
		},
		{
			ID:          "pb-renewal-prep",
			Name:        "Renewal Preparation",
			Type:        enums.PlaybookTypeRenewal,
			Description: "Value recap, stakeholder mapping and commercial prep ahead of renewal.",
			Criteria: Criteria{
				LifecycleStages: []enums.LifecycleStage{enums.LifecycleStageActive, enums.LifecycleStageRenewal, enums.LifecycleStageExpansion},
				HealthRange:     &ScoreRange{Min: 50, Max: 100},
				RenewalWindow:   &DayWindow{Min: 30, Max: 120},
			},
			DurationDays: 90,
			StepCount:    6,
			SuccessRate:  rate(0.82),
		},
		{
			ID:          "pb-advocacy",
			Name:        "Customer Advocacy",
			Type:        enums.PlaybookTypeAdvocacy,
			Description: "Case study, reference and review program for delighted customers.",
			Criteria: Criteria{
				LifecycleStages:  []enums.LifecycleStage{enums.LifecycleStageActive, enums.LifecycleStageExpansion},
				HealthRange:      &ScoreRange{Min: 80, Max: 100},
				ExpansionSignals: []string{"promoter", "high_nps"},
			},
			DurationDays: 30,
			StepCount:    4,
			SuccessRate:  rate(0.70),
		},
		{
			ID:          "pb-reengagement",
			Name:        "Re-engagement Campaign",
			Type:        enums.PlaybookTypeEngagement,
			Description: "Outreach sequence to revive quiet accounts.",
			Criteria: Criteria{
				LifecycleStages: []enums.LifecycleStage{enums.LifecycleStageAdoption, enums.LifecycleStageActive, enums.LifecycleStageAtRisk},
				HealthRange:     &ScoreRange{Min: 30, Max: 70},
				RiskSignals:     []string{"low_engagement", "inactivity", "low_adoption"},
			},
			DurationDays: 30,
			StepCount:    5,
			SuccessRate:  rate(0.58),
		},
	}
}

// MergeLibrary overlays persisted playbooks on the seeds by ID. The result
// is sorted by ID.
func MergeLibrary(seeds, persisted []Playbook) []Playbook {
	byID := make(map[string]Playbook, len(seeds)+len(persisted))
	for _, p := range seeds {
		byID[p.ID] = p
	}
	for _, p := range persisted {
		byID[p.ID] = p
	}
	out := make([]Playbook, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func findPlaybook(library []Playbook, id string) (Playbook, bool) {
	for _, p := range library {
		if p.ID == id {
			return p, true
		}
	}
	return Playbook{}, false
}

func containsFold(list []string, v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return false
	}
	for _, item := range list {
		if strings.ToLower(strings.TrimSpace(item)) == v {
			return true
		}
	}
	return false
}
