package playbooks

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

const (
	fitBase            = 50.0
	fitStageMatch      = 20.0
	fitStageMiss       = -15.0
	fitHealth          = 15.0
	fitHealthFalloff   = 20.0
	fitRisk            = 15.0
	fitRiskPerSignal   = 5.0
	fitExpansion       = 10.0
	fitExpansionPerSig = 5.0
	fitRenewal         = 10.0
	fitRenewalPartial  = 5.0
	fitRenewalNearDays = 60
	fitIndustry        = 5.0
	fitSegment         = 5.0
	fitSuccessSpread   = 20.0
	fitDuplicateActive = -20.0
	fitTriggerHint     = 10.0
	maxAlternatives    = 3
)

// MatcherOptions holds the governance cutoffs. AutomaticARRLimit keeps
// large accounts out of automatic enrollment.
type MatcherOptions struct {
	AutomaticScore    float64
	SuggestedScore    float64
	AutomaticARRLimit float64
	ApprovalARR       float64
}

func DefaultMatcherOptions() MatcherOptions {
	return MatcherOptions{
		AutomaticScore:    90,
		SuggestedScore:    80,
		AutomaticARRLimit: 100000,
		ApprovalARR:       100000,
	}
}

// Trigger describes why a match was requested. All fields are optional.
type Trigger struct {
	Event  string             `json:"event,omitempty"`
	Signal string             `json:"signal,omitempty"`
	Hint   enums.PlaybookType `json:"hint,omitempty"`
}

// Match is one scored playbook.
type Match struct {
	Playbook  Playbook `json:"playbook"`
	FitScore  float64  `json:"fit_score"`
	Reasoning []string `json:"reasoning"`
}

type Matcher struct {
	opts MatcherOptions
}

func NewMatcher(opts MatcherOptions) *Matcher {
	return &Matcher{opts: opts}
}

// FitScore scores one playbook for a customer and explains which criteria
// contributed.
func (m *Matcher) FitScore(s customers.Snapshot, p Playbook, trig Trigger) (float64, []string) {
	score := fitBase
	reasons := []string{}
	c := p.Criteria

	if len(c.LifecycleStages) == 0 || containsStage(c.LifecycleStages, s.Stage) {
		score += fitStageMatch
		reasons = append(reasons, fmt.Sprintf("Lifecycle stage %s fits this playbook", s.Stage))
	} else {
		score += fitStageMiss
	}

	if c.HealthRange == nil {
		score += fitHealth
	} else if c.HealthRange.Contains(s.HealthScore) {
		score += fitHealth
		reasons = append(reasons, fmt.Sprintf("Health score %.0f is inside the %.0f-%.0f target range", s.HealthScore, c.HealthRange.Min, c.HealthRange.Max))
	} else {
		partial := fitHealth * math.Max(0, 1-c.HealthRange.Distance(s.HealthScore)/fitHealthFalloff)
		if partial > 0 {
			score += partial
			reasons = append(reasons, fmt.Sprintf("Health score %.0f is close to the %.0f-%.0f target range", s.HealthScore, c.HealthRange.Min, c.HealthRange.Max))
		}
	}

	if len(c.RiskSignals) > 0 {
		if containsFold(c.RiskSignals, trig.Signal) {
			score += fitRisk
			reasons = append(reasons, fmt.Sprintf("Triggered by %s, a signal this playbook addresses", trig.Signal))
		} else if hits := overlap(c.RiskSignals, s.RiskSignals); len(hits) > 0 {
			score += math.Min(fitRisk, fitRiskPerSignal*float64(len(hits)))
			reasons = append(reasons, fmt.Sprintf("Open risk signals: %s", strings.Join(hits, ", ")))
		}
	}

	if len(c.ExpansionSignals) > 0 {
		if containsFold(c.ExpansionSignals, trig.Signal) {
			score += fitExpansion
			reasons = append(reasons, fmt.Sprintf("Triggered by %s, an expansion signal", trig.Signal))
		} else if hits := overlap(c.ExpansionSignals, s.ExpansionSignals); len(hits) > 0 {
			score += math.Min(fitExpansion, fitExpansionPerSig*float64(len(hits)))
			reasons = append(reasons, fmt.Sprintf("Expansion signals: %s", strings.Join(hits, ", ")))
		}
	}

	if w := c.RenewalWindow; w != nil && s.Completeness.Renewal && s.DaysToRenewal >= 0 {
		switch {
		case s.DaysToRenewal >= w.Min && s.DaysToRenewal <= w.Max:
			score += fitRenewal
			reasons = append(reasons, fmt.Sprintf("Renewal in %d days falls in the %d-%d day window", s.DaysToRenewal, w.Min, w.Max))
		case p.Type == enums.PlaybookTypeRenewal && s.DaysToRenewal <= w.Max+fitRenewalNearDays:
			score += fitRenewalPartial
			reasons = append(reasons, fmt.Sprintf("Renewal in %d days is approaching", s.DaysToRenewal))
		}
	}

	if len(c.Industries) == 0 || containsFold(c.Industries, s.Industry) {
		score += fitIndustry
		if len(c.Industries) > 0 {
			reasons = append(reasons, fmt.Sprintf("Built for the %s industry", s.Industry))
		}
	}
	if len(c.Segments) == 0 || containsFold(c.Segments, s.Segment) {
		score += fitSegment
		if len(c.Segments) > 0 {
			reasons = append(reasons, fmt.Sprintf("Built for the %s segment", s.Segment))
		}
	}

	if p.SuccessRate != nil {
		score += (*p.SuccessRate - 0.5) * fitSuccessSpread
		reasons = append(reasons, fmt.Sprintf("Historical success rate %.0f%%", *p.SuccessRate*100))
	}

	if s.HasActivePlaybook(p.Type) {
		score += fitDuplicateActive
		reasons = append(reasons, fmt.Sprintf("A %s playbook is already running for this customer", p.Type))
	}

	if trig.Hint != "" && trig.Hint == p.Type {
		score += fitTriggerHint
		reasons = append(reasons, fmt.Sprintf("Trigger %s points to a %s playbook", triggerName(trig), p.Type))
	}

	return math.Round(math.Min(100, math.Max(0, score))*10) / 10, reasons
}

// Rank scores the whole library. Ties go to the playbook type the trigger
// hints at, then success rate, then ID.
func (m *Matcher) Rank(s customers.Snapshot, library []Playbook, trig Trigger) []Match {
	out := make([]Match, 0, len(library))
	for _, p := range library {
		fit, reasons := m.FitScore(s, p, trig)
		out = append(out, Match{Playbook: p, FitScore: fit, Reasoning: reasons})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FitScore != b.FitScore {
			return a.FitScore > b.FitScore
		}
		if ha, hb := trig.Hint != "" && a.Playbook.Type == trig.Hint, trig.Hint != "" && b.Playbook.Type == trig.Hint; ha != hb {
			return ha
		}
		ra, rb := successOrZero(a.Playbook), successOrZero(b.Playbook)
		if ra != rb {
			return ra > rb
		}
		return a.Playbook.ID < b.Playbook.ID
	})
	return out
}

// DetermineTriggerType maps a fit score and account size to how the
// playbook should be launched.
func (m *Matcher) DetermineTriggerType(fit, arr float64) enums.TriggerType {
	switch {
	case fit >= m.opts.AutomaticScore && arr < m.opts.AutomaticARRLimit:
		return enums.TriggerTypeAutomatic
	case fit >= m.opts.SuggestedScore:
		return enums.TriggerTypeSuggested
	default:
		return enums.TriggerTypeManual
	}
}

// RequiresApproval flags large accounts and accounts already in a save or
// expansion motion.
func (m *Matcher) RequiresApproval(s customers.Snapshot) bool {
	return s.ARR >= m.opts.ApprovalARR ||
		s.HasActivePlaybook(enums.PlaybookTypeSave) ||
		s.HasActivePlaybook(enums.PlaybookTypeExpansion)
}

// Recommend builds a recommendation from the best match. ok is false when
// the library is empty.
func (m *Matcher) Recommend(s customers.Snapshot, library []Playbook, trig Trigger) (Recommendation, bool) {
	ranked := m.Rank(s, library, trig)
	if len(ranked) == 0 {
		return Recommendation{}, false
	}
	best := ranked[0]
	alternatives := []Alternative{}
	for _, alt := range ranked[1:min(len(ranked), 1+maxAlternatives)] {
		alternatives = append(alternatives, Alternative{
			PlaybookID: alt.Playbook.ID,
			Name:       alt.Playbook.Name,
			Type:       alt.Playbook.Type,
			FitScore:   alt.FitScore,
		})
	}

	triggerType := m.DetermineTriggerType(best.FitScore, s.ARR)
	approval := m.RequiresApproval(s)
	status := enums.RecommendationStatusPendingApproval
	if triggerType == enums.TriggerTypeAutomatic && !approval {
		status = enums.RecommendationStatusStarted
	}

	rec := Recommendation{
		CustomerID:           s.ID,
		RecommendedPlaybook:  best.Playbook,
		FitScore:             best.FitScore,
		Reasoning:            best.Reasoning,
		AlternativePlaybooks: alternatives,
		TriggerType:          triggerType,
		Status:               status,
		RequiresApproval:     approval,
	}
	if name := triggerName(trig); name != "" {
		rec.TriggerEvent = &name
	}
	return rec, true
}

func triggerName(t Trigger) string {
	switch {
	case t.Event != "":
		return t.Event
	case t.Signal != "":
		return t.Signal
	default:
		return ""
	}
}

func successOrZero(p Playbook) float64 {
	if p.SuccessRate == nil {
		return 0
	}
	return *p.SuccessRate
}

func containsStage(stages []enums.LifecycleStage, s enums.LifecycleStage) bool {
	for _, st := range stages {
		if st == s {
			return true
		}
	}
	return false
}

func overlap(wanted, have []string) []string {
	hits := []string{}
	for _, h := range have {
		if containsFold(wanted, h) {
			hits = append(hits, h)
		}
	}
	return hits
}
