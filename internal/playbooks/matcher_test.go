package playbooks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func snapshot(attrs customers.Attributes) customers.Snapshot {
	return customers.NewSnapshot("cust-1", attrs, fixedNow)
}

func TestRecommendAtRiskEnterpriseNeedsApproval(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	s := snapshot(customers.Attributes{
		Name:           "Globex",
		LifecycleStage: ptr(enums.LifecycleStageAtRisk),
		HealthScore:    ptr(30.0),
		ARR:            500000,
	})

	rec, ok := m.Recommend(s, DefaultLibrary(), Trigger{Event: "health_drop", Signal: "health_drop", Hint: enums.PlaybookTypeSave})
	require.True(t, ok)

	assert.Equal(t, enums.PlaybookTypeSave, rec.RecommendedPlaybook.Type)
	assert.Contains(t, []enums.TriggerType{enums.TriggerTypeSuggested, enums.TriggerTypeManual}, rec.TriggerType)
	assert.True(t, rec.RequiresApproval)
	assert.Equal(t, enums.RecommendationStatusPendingApproval, rec.Status)
	require.NotNil(t, rec.TriggerEvent)
	assert.Equal(t, "health_drop", *rec.TriggerEvent)
	assert.LessOrEqual(t, len(rec.AlternativePlaybooks), 3)
	assert.NotEmpty(t, rec.Reasoning)
}

func TestRecommendSmallAccountStartsAutomatically(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	s := snapshot(customers.Attributes{
		LifecycleStage: ptr(enums.LifecycleStageAtRisk),
		HealthScore:    ptr(30.0),
		ARR:            20000,
	})

	rec, ok := m.Recommend(s, DefaultLibrary(), Trigger{Signal: "health_drop", Hint: enums.PlaybookTypeSave})
	require.True(t, ok)
	assert.Equal(t, enums.TriggerTypeAutomatic, rec.TriggerType)
	assert.False(t, rec.RequiresApproval)
	assert.Equal(t, enums.RecommendationStatusStarted, rec.Status)
}

func TestRecommendEmptyLibrary(t *testing.T) {
	_, ok := NewMatcher(DefaultMatcherOptions()).Recommend(snapshot(customers.Attributes{}), nil, Trigger{})
	assert.False(t, ok)
}

func TestFitScoreIsClampedAndRounded(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	s := snapshot(customers.Attributes{
		LifecycleStage: ptr(enums.LifecycleStageAtRisk),
		HealthScore:    ptr(10.0),
		RiskSignals:    []string{"health_drop", "usage_decline", "champion_left"},
	})
	for _, p := range DefaultLibrary() {
		fit, _ := m.FitScore(s, p, Trigger{Signal: "health_drop", Hint: p.Type})
		assert.GreaterOrEqual(t, fit, 0.0, p.ID)
		assert.LessOrEqual(t, fit, 100.0, p.ID)
		assert.InDelta(t, fit, float64(int(fit*10+0.5))/10, 1e-9, p.ID)
	}
}

func TestFitScoreIsDeterministic(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	s := snapshot(customers.Attributes{HealthScore: ptr(62.0), RenewalDate: ptr(fixedNow.AddDate(0, 0, 70))})
	p := DefaultLibrary()[5]

	first, reasonsA := m.FitScore(s, p, Trigger{})
	second, reasonsB := m.FitScore(s, p, Trigger{})
	assert.Equal(t, first, second)
	assert.Equal(t, reasonsA, reasonsB)
}

func TestFitScoreHealthPartialCredit(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	p := Playbook{ID: "p", Type: enums.PlaybookTypeAdoption, Criteria: Criteria{HealthRange: &ScoreRange{Min: 40, Max: 60}}}

	inside, _ := m.FitScore(snapshot(customers.Attributes{HealthScore: ptr(50.0)}), p, Trigger{})
	near, _ := m.FitScore(snapshot(customers.Attributes{HealthScore: ptr(70.0)}), p, Trigger{})
	far, _ := m.FitScore(snapshot(customers.Attributes{HealthScore: ptr(95.0)}), p, Trigger{})

	assert.Equal(t, 95.0, inside)
	assert.Equal(t, 87.5, near)
	assert.Equal(t, 80.0, far)
}

func TestFitScorePenalizesRunningPlaybookOfSameType(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	p := Playbook{ID: "p", Type: enums.PlaybookTypeAdoption}

	fresh, _ := m.FitScore(snapshot(customers.Attributes{}), p, Trigger{})
	running, reasons := m.FitScore(snapshot(customers.Attributes{ActivePlaybooks: []enums.PlaybookType{enums.PlaybookTypeAdoption}}), p, Trigger{})
	assert.Equal(t, fresh-20, running)
	assert.Contains(t, reasons[len(reasons)-1], "already running")
}

func TestRankBreaksTiesBySuccessRateThenID(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	library := []Playbook{
		{ID: "b", Type: enums.PlaybookTypeAdoption, SuccessRate: ptr(0.5)},
		{ID: "a", Type: enums.PlaybookTypeAdoption, SuccessRate: ptr(0.5)},
		{ID: "c", Type: enums.PlaybookTypeAdoption},
	}
	// c has no success rate so it scores the same base fit but ranks last.
	ranked := m.Rank(snapshot(customers.Attributes{}), library, Trigger{})
	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].Playbook.ID)
	assert.Equal(t, "b", ranked[1].Playbook.ID)
	assert.Equal(t, "c", ranked[2].Playbook.ID)
}

func TestRankPrefersHintedTypeWhenScoresClamp(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	s := snapshot(customers.Attributes{
		HealthScore:       ptr(40.0),
		HealthScoreChange: ptr(-20.0),
		RenewalDate:       ptr(fixedNow.AddDate(0, 0, 45)),
	})

	// Renewal prep and both save plays all clamp to 100 here; renewal prep
	// has the best success rate, so only the hint can put save first.
	ranked := m.Rank(s, DefaultLibrary(), Trigger{Event: "health_drop", Signal: "health_drop", Hint: enums.PlaybookTypeSave})
	require.GreaterOrEqual(t, len(ranked), 3)
	assert.Equal(t, 100.0, ranked[0].FitScore)
	assert.Equal(t, 100.0, ranked[2].FitScore)
	assert.Equal(t, enums.PlaybookTypeSave, ranked[0].Playbook.Type)
	assert.Equal(t, enums.PlaybookTypeSave, ranked[1].Playbook.Type)
	assert.Equal(t, "pb-renewal-prep", ranked[2].Playbook.ID)

	unhinted := m.Rank(s, DefaultLibrary(), Trigger{Event: "health_drop", Signal: "health_drop"})
	assert.Equal(t, "pb-renewal-prep", unhinted[0].Playbook.ID)
}

func TestDetermineTriggerType(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	cases := []struct {
		fit, arr float64
		want     enums.TriggerType
	}{
		{95, 50000, enums.TriggerTypeAutomatic},
		{95, 100000, enums.TriggerTypeSuggested},
		{90, 99999, enums.TriggerTypeAutomatic},
		{85, 10000, enums.TriggerTypeSuggested},
		{80, 10000, enums.TriggerTypeSuggested},
		{79.9, 10000, enums.TriggerTypeManual},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, m.DetermineTriggerType(tc.fit, tc.arr), "fit=%v arr=%v", tc.fit, tc.arr)
	}
}

func TestRequiresApproval(t *testing.T) {
	m := NewMatcher(DefaultMatcherOptions())
	assert.False(t, m.RequiresApproval(snapshot(customers.Attributes{ARR: 50000})))
	assert.True(t, m.RequiresApproval(snapshot(customers.Attributes{ARR: 100000})))
	assert.True(t, m.RequiresApproval(snapshot(customers.Attributes{ActivePlaybooks: []enums.PlaybookType{enums.PlaybookTypeSave}})))
	assert.True(t, m.RequiresApproval(snapshot(customers.Attributes{ActivePlaybooks: []enums.PlaybookType{enums.PlaybookTypeExpansion}})))
	assert.False(t, m.RequiresApproval(snapshot(customers.Attributes{ActivePlaybooks: []enums.PlaybookType{enums.PlaybookTypeAdoption}})))
}

func TestMergeLibraryOverridesSeedsByID(t *testing.T) {
	override := Playbook{ID: "pb-advocacy", Name: "Advocacy v2", Type: enums.PlaybookTypeAdvocacy}
	custom := Playbook{ID: "pb-custom", Name: "Custom", Type: enums.PlaybookTypeEngagement}

	merged := MergeLibrary(DefaultLibrary(), []Playbook{override, custom})
	assert.Len(t, merged, len(DefaultLibrary())+1)

	got, ok := findPlaybook(merged, "pb-advocacy")
	require.True(t, ok)
	assert.Equal(t, "Advocacy v2", got.Name)
	for i := 1; i < len(merged); i++ {
		assert.Less(t, merged[i-1].ID, merged[i].ID)
	}
}
