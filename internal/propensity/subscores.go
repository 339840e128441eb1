package propensity

import (
	"fmt"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// Factor categories.
const (
	CategoryUsage       = "usage"
	CategoryEngagement  = "engagement"
	CategoryHealth      = "health"
	CategoryBusiness    = "business"
	CategoryStakeholder = "stakeholder"
	CategoryCohort      = "cohort"
)

// Factor is one heuristic adjustment that fired. Weight is the signed
// point adjustment it applied to its sub-score.
type Factor struct {
	Name        string             `json:"name"`
	Category    string             `json:"category"`
	Signal      enums.FactorSignal `json:"signal"`
	Weight      float64            `json:"weight"`
	Description string             `json:"description"`
}

// tally accumulates one sub-score and the factors that moved it.
type tally struct {
	category string
	score    float64
	factors  []Factor
}

func newTally(category string, base float64) *tally {
	return &tally{category: category, score: base}
}

func (t *tally) add(name string, points float64, format string, args ...any) {
	t.score += points
	signal := enums.FactorSignalNeutral
	switch {
	case points > 0:
		signal = enums.FactorSignalPositive
	case points < 0:
		signal = enums.FactorSignalNegative
	}
	t.factors = append(t.factors, Factor{
		Name:        name,
		Category:    t.category,
		Signal:      signal,
		Weight:      points,
		Description: fmt.Sprintf(format, args...),
	})
}

func (t *tally) result() (float64, []Factor) {
	return clamp(t.score), t.factors
}

func usageScore(s customers.Snapshot) (float64, []Factor) {
	t := newTally(CategoryUsage, 30)
	if s.Completeness.Usage {
		switch c := s.UsageCapacity; {
		case c >= 95:
			t.add("usage_at_capacity", 35, "Using %.0f%% of licensed capacity", c)
		case c >= 85:
			t.add("usage_near_capacity", 25, "Using %.0f%% of licensed capacity", c)
		case c >= 70:
			t.add("usage_high", 15, "Using %.0f%% of licensed capacity", c)
		case c < 40:
			t.add("usage_low", -15, "Only %.0f%% of licensed capacity in use", c)
		}
	}
	if s.Completeness.Seats {
		switch u := s.SeatUtilization(); {
		case u >= 1.0:
			t.add("seats_exhausted", 20, "All %d purchased seats assigned", s.SeatCount)
		case u >= 0.9:
			t.add("seats_nearly_full", 15, "%.0f%% of seats assigned", u*100)
		case u >= 0.75:
			t.add("seats_well_used", 8, "%.0f%% of seats assigned", u*100)
		case u < 0.5:
			t.add("seats_underused", -10, "Only %.0f%% of seats assigned", u*100)
		}
	}
	switch tr := s.UsageTrend; {
	case tr >= 20:
		t.add("usage_growing_fast", 15, "Usage up %.0f%%", tr)
	case tr >= 10:
		t.add("usage_growing", 10, "Usage up %.0f%%", tr)
	case tr <= -20:
		t.add("usage_falling_fast", -20, "Usage down %.0f%%", -tr)
	case tr < 0:
		t.add("usage_falling", -10, "Usage down %.0f%%", -tr)
	}
	return t.result()
}

func engagementScore(s customers.Snapshot) (float64, []Factor) {
	t := newTally(CategoryEngagement, 30)
	if s.Completeness.Meetings {
		switch m := s.Meetings90d; {
		case m >= 6:
			t.add("frequent_meetings", 25, "%d meetings in the last 90 days", m)
		case m >= 3:
			t.add("regular_meetings", 15, "%d meetings in the last 90 days", m)
		case m >= 1:
			t.add("occasional_meetings", 5, "%d meeting(s) in the last 90 days", m)
		default:
			t.add("no_meetings", -10, "No meetings in the last 90 days")
		}
	}
	if s.Completeness.Logins {
		switch l := s.LoginCount30d; {
		case l >= 20:
			t.add("frequent_logins", 20, "%d logins in the last 30 days", l)
		case l >= 10:
			t.add("regular_logins", 10, "%d logins in the last 30 days", l)
		case l < 4:
			t.add("rare_logins", -15, "Only %d logins in the last 30 days", l)
		}
	}
	if s.Completeness.FeatureUsage {
		switch f := s.FeatureAdoptionRate; {
		case f >= 70:
			t.add("broad_feature_adoption", 25, "%.0f%% of features adopted", f)
		case f >= 50:
			t.add("solid_feature_adoption", 15, "%.0f%% of features adopted", f)
		case f >= 30:
			t.add("partial_feature_adoption", 5, "%.0f%% of features adopted", f)
		case f < 20:
			t.add("narrow_feature_adoption", -10, "Only %.0f%% of features adopted", f)
		}
	}
	return t.result()
}

func healthScore(s customers.Snapshot) (float64, []Factor) {
	t := newTally(CategoryHealth, s.HealthScore)
	switch ch := s.HealthScoreChange; {
	case ch >= 10:
		t.add("health_improving", 10, "Health up %.0f points", ch)
	case ch <= -10:
		t.add("health_declining", -15, "Health down %.0f points", -ch)
	}
	if s.Completeness.NPS {
		switch n := s.NPSScore; {
		case n >= 9:
			t.add("promoter", 10, "Promoter with NPS %d", n)
		case n <= 6:
			t.add("detractor", -10, "Detractor with NPS %d", n)
		}
	}
	return t.result()
}

var lowTierPlans = map[string]bool{"free": true, "starter": true, "basic": true}

func businessScore(s customers.Snapshot) (float64, []Factor) {
	t := newTally(CategoryBusiness, 40)
	switch a := s.ARR; {
	case a >= 200000:
		t.add("large_account", 20, "ARR of %.0f", a)
	case a >= 100000:
		t.add("mid_account", 15, "ARR of %.0f", a)
	case a >= 50000:
		t.add("growing_account", 10, "ARR of %.0f", a)
	}
	if s.Completeness.Renewal {
		switch d := s.DaysToRenewal; {
		case d >= 30 && d <= 120:
			t.add("renewal_window", 20, "Renewal in %d days", d)
		case d >= 0 && d < 30:
			t.add("renewal_imminent", 5, "Renewal in %d days", d)
		}
	}
	switch {
	case lowTierPlans[s.Plan]:
		t.add("upgradeable_plan", 15, "On the %s plan", s.Plan)
	case s.Plan == "enterprise":
		t.add("top_tier_plan", -5, "Already on the enterprise plan")
	}
	if n := len(s.ExpansionSignals); n > 0 {
		t.add("expansion_signals", float64(min(3, n)*10), "%d expansion signal(s) observed", n)
	}
	if n := len(s.RiskSignals); n > 0 {
		t.add("risk_signals", -float64(min(3, n)*10), "%d risk signal(s) open", n)
	}
	return t.result()
}

func stakeholderScore(s customers.Snapshot) (float64, []Factor) {
	t := newTally(CategoryStakeholder, 20)
	if s.Completeness.Stakeholders {
		switch c := s.StakeholderCount; {
		case c >= 5:
			t.add("broad_relationships", 40, "%d engaged stakeholders", c)
		case c >= 3:
			t.add("multi_threaded", 25, "%d engaged stakeholders", c)
		case c >= 2:
			t.add("two_stakeholders", 10, "%d engaged stakeholders", c)
		default:
			t.add("single_threaded", -10, "Relationship depends on %d contact", c)
		}
	}
	if s.HasExecSponsor {
		t.add("exec_sponsor", 25, "Executive sponsor engaged")
	}
	return t.result()
}

func cohortScore(s customers.Snapshot) (float64, []Factor) {
	t := newTally(CategoryCohort, 50)
	if s.Completeness.Tenure {
		switch m := s.TenureMonths; {
		case m >= 12 && m <= 36:
			t.add("established_tenure", 20, "Customer for %d months", m)
		case m > 36:
			t.add("long_tenure", 10, "Customer for %d months", m)
		case m < 6:
			t.add("new_customer", -15, "Customer for only %d months", m)
		}
	}
	switch s.Stage {
	case enums.LifecycleStageExpansion:
		t.add("expansion_stage", 20, "Lifecycle stage is expansion")
	case enums.LifecycleStageAdoption:
		t.add("adoption_stage", 5, "Lifecycle stage is adoption")
	case enums.LifecycleStageAtRisk:
		t.add("at_risk_stage", -25, "Lifecycle stage is at risk")
	case enums.LifecycleStageOnboarding:
		t.add("onboarding_stage", -10, "Still onboarding")
	}
	return t.result()
}
