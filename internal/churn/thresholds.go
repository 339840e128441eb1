// Package churn scores customer rows for churn risk from independently
// evaluated factors.
package churn

import (
	"sync"

	"github.com/angelmondragon/healthpulse-backend/pkg/config"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// Thresholds are the caller-tunable cutoffs. Values are accepted as-is;
// scores are clamped regardless.
type Thresholds struct {
	InactiveDaysWarning  float64 `json:"inactive_days_warning"`
	InactiveDaysCritical float64 `json:"inactive_days_critical"`
	UsageDeclineWarning  float64 `json:"usage_decline_warning"`
	UsageDeclineCritical float64 `json:"usage_decline_critical"`
	TicketCountWarning   float64 `json:"ticket_count_warning"`
	TicketCountCritical  float64 `json:"ticket_count_critical"`
	HealthScoreWarning   float64 `json:"health_score_warning"`
	HealthScoreCritical  float64 `json:"health_score_critical"`
	NPSDetractor         float64 `json:"nps_detractor"`
	MediumRisk           float64 `json:"medium_risk"`
	HighRisk             float64 `json:"high_risk"`
	CriticalRisk         float64 `json:"critical_risk"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		InactiveDaysWarning:  14,
		InactiveDaysCritical: 30,
		UsageDeclineWarning:  20,
		UsageDeclineCritical: 40,
		TicketCountWarning:   5,
		TicketCountCritical:  10,
		HealthScoreWarning:   60,
		HealthScoreCritical:  40,
		NPSDetractor:         6,
		MediumRisk:           40,
		HighRisk:             70,
		CriticalRisk:         85,
	}
}

// ThresholdsFromConfig lifts the environment defaults into Thresholds.
func ThresholdsFromConfig(cfg config.ChurnConfig) Thresholds {
	return Thresholds{
		InactiveDaysWarning:  cfg.InactiveDaysWarning,
		InactiveDaysCritical: cfg.InactiveDaysCritical,
		UsageDeclineWarning:  cfg.UsageDeclineWarning,
		UsageDeclineCritical: cfg.UsageDeclineCritical,
		TicketCountWarning:   cfg.TicketCountWarning,
		TicketCountCritical:  cfg.TicketCountCritical,
		HealthScoreWarning:   cfg.HealthScoreWarning,
		HealthScoreCritical:  cfg.HealthScoreCritical,
		NPSDetractor:         cfg.NPSDetractor,
		MediumRisk:           cfg.MediumRisk,
		HighRisk:             cfg.HighRisk,
		CriticalRisk:         cfg.CriticalRisk,
	}
}

// Level bands a risk score. Bands are inclusive at their lower edge.
func (t Thresholds) Level(score float64) enums.RiskLevel {
	switch {
	case score >= t.CriticalRisk:
		return enums.RiskLevelCritical
	case score >= t.HighRisk:
		return enums.RiskLevelHigh
	case score >= t.MediumRisk:
		return enums.RiskLevelMedium
	default:
		return enums.RiskLevelLow
	}
}

// ThresholdStore holds the process-wide thresholds. Batches take one
// snapshot at start so a concurrent replace never changes a run midway.
type ThresholdStore struct {
	mu      sync.RWMutex
	current Thresholds
}

func NewThresholdStore(initial Thresholds) *ThresholdStore {
	return &ThresholdStore{current: initial}
}

func (s *ThresholdStore) Get() Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *ThresholdStore) Replace(next Thresholds) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}
