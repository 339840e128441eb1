package enums

import "fmt"

// RecommendedAction is the next step suggested by a customer forecast.
type RecommendedAction string

const (
	RecommendedActionAtRiskIntervention RecommendedAction = "at_risk_intervention"
	RecommendedActionSavePlay           RecommendedAction = "save_play"
	RecommendedActionExpansionPlay      RecommendedAction = "expansion_play"
	RecommendedActionUpsellReady        RecommendedAction = "upsell_ready"
	RecommendedActionMaintain           RecommendedAction = "maintain"
)

var validRecommendedActions = []RecommendedAction{
	RecommendedActionAtRiskIntervention,
	RecommendedActionSavePlay,
	RecommendedActionExpansionPlay,
	RecommendedActionUpsellReady,
	RecommendedActionMaintain,
}

func (r RecommendedAction) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecommendedAction.
func (r RecommendedAction) IsValid() bool {
	for _, candidate := range validRecommendedActions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecommendedAction converts raw input into a RecommendedAction.
func ParseRecommendedAction(value string) (RecommendedAction, error) {
	for _, candidate := range validRecommendedActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recommended action %q", value)
}
