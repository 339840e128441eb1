package enums

import "fmt"

// RecommendationStatus tracks a playbook recommendation through its lifecycle.
type RecommendationStatus string

const (
	RecommendationStatusPendingApproval RecommendationStatus = "pending_approval"
	RecommendationStatusStarted         RecommendationStatus = "started"
	RecommendationStatusActive          RecommendationStatus = "active"
	RecommendationStatusDeclined        RecommendationStatus = "declined"
	RecommendationStatusCompleted       RecommendationStatus = "completed"
)

var validRecommendationStatuses = []RecommendationStatus{
	RecommendationStatusPendingApproval,
	RecommendationStatusStarted,
	RecommendationStatusActive,
	RecommendationStatusDeclined,
	RecommendationStatusCompleted,
}

func (r RecommendationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecommendationStatus.
func (r RecommendationStatus) IsValid() bool {
	for _, candidate := range validRecommendationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecommendationStatus converts raw input into a RecommendationStatus.
func ParseRecommendationStatus(value string) (RecommendationStatus, error) {
	for _, candidate := range validRecommendationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recommendation status %q", value)
}

var recommendationTransitions = map[RecommendationStatus][]RecommendationStatus{
	RecommendationStatusPendingApproval: {RecommendationStatusStarted, RecommendationStatusDeclined},
	RecommendationStatusStarted:         {RecommendationStatusActive},
	RecommendationStatusActive:          {RecommendationStatusCompleted},
}

// CanTransitionTo reports whether moving from r to next is allowed.
func (r RecommendationStatus) CanTransitionTo(next RecommendationStatus) bool {
	for _, allowed := range recommendationTransitions[r] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (r RecommendationStatus) IsTerminal() bool {
	return len(recommendationTransitions[r]) == 0
}

// OpenRecommendationStatuses are the statuses of a recommendation that is
// still awaiting approval or in progress.
var OpenRecommendationStatuses = []RecommendationStatus{
	RecommendationStatusPendingApproval,
	RecommendationStatusStarted,
	RecommendationStatusActive,
}

// IsOpen reports whether the recommendation still occupies its playbook slot.
func (r RecommendationStatus) IsOpen() bool {
	for _, s := range OpenRecommendationStatuses {
		if s == r {
			return true
		}
	}
	return false
}
