package enums

import "testing"

func TestParseRoundTrip(t *testing.T) {
	if got, err := ParseRiskLevel("critical"); err != nil || got != RiskLevelCritical {
		t.Fatalf("expected critical, got %q err=%v", got, err)
	}
	if _, err := ParseRiskLevel("severe"); err == nil {
		t.Fatal("expected error for unknown risk level")
	}
	if got, err := ParseRecommendationStatus("pending_approval"); err != nil || got != RecommendationStatusPendingApproval {
		t.Fatalf("unexpected status parse %q err=%v", got, err)
	}
	if !PlaybookTypeSave.IsValid() || PlaybookType("rescue").IsValid() {
		t.Fatal("unexpected playbook type validity")
	}
}

func TestRiskLevelRank(t *testing.T) {
	if !(RiskLevelLow.Rank() < RiskLevelMedium.Rank() && RiskLevelHigh.Rank() < RiskLevelCritical.Rank()) {
		t.Fatal("risk levels should rank in ascending severity")
	}
	if RiskLevelMedium.AtLeastHigh() || !RiskLevelCritical.AtLeastHigh() {
		t.Fatal("unexpected AtLeastHigh result")
	}
	if RiskLevel("bogus").Rank() != -1 {
		t.Fatal("unknown levels should rank -1")
	}
}

func TestRecommendationTransitions(t *testing.T) {
	tests := []struct {
		from, to RecommendationStatus
		ok       bool
	}{
		{RecommendationStatusPendingApproval, RecommendationStatusStarted, true},
		{RecommendationStatusPendingApproval, RecommendationStatusDeclined, true},
		{RecommendationStatusStarted, RecommendationStatusActive, true},
		{RecommendationStatusActive, RecommendationStatusCompleted, true},
		{RecommendationStatusPendingApproval, RecommendationStatusCompleted, false},
		{RecommendationStatusDeclined, RecommendationStatusStarted, false},
		{RecommendationStatusStarted, RecommendationStatusDeclined, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tt.from, tt.to, tt.ok, got)
		}
	}
	if !RecommendationStatusCompleted.IsTerminal() || RecommendationStatusActive.IsTerminal() {
		t.Fatal("unexpected terminal state")
	}
}

func TestRecommendationStatusIsOpen(t *testing.T) {
	for _, st := range []RecommendationStatus{RecommendationStatusPendingApproval, RecommendationStatusStarted, RecommendationStatusActive} {
		if !st.IsOpen() {
			t.Fatalf("%s should be open", st)
		}
	}
	for _, st := range []RecommendationStatus{RecommendationStatusDeclined, RecommendationStatusCompleted} {
		if st.IsOpen() {
			t.Fatalf("%s should not be open", st)
		}
	}
}

func TestNPSCategoryForScore(t *testing.T) {
	cases := map[int]NPSCategory{10: NPSCategoryPromoter, 9: NPSCategoryPromoter, 8: NPSCategoryPassive, 7: NPSCategoryPassive, 6: NPSCategoryDetractor, 0: NPSCategoryDetractor}
	for score, want := range cases {
		if got := NPSCategoryForScore(score); got != want {
			t.Fatalf("score %d: expected %s got %s", score, want, got)
		}
	}
	if NPSCategoryDetractor.ImpliedSentiment() != SentimentNegative {
		t.Fatal("detractors imply negative sentiment")
	}
}

func TestPeriodTypeMonths(t *testing.T) {
	if PeriodTypeMonth.Months() != 1 || PeriodTypeQuarter.Months() != 3 || PeriodTypeYear.Months() != 12 {
		t.Fatal("unexpected period lengths")
	}
}
