package playbooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
	"github.com/angelmondragon/healthpulse-backend/pkg/oracle"
)

const reasoningSystemPrompt = "You write concise customer success rationale. Reply with a single JSON object and nothing else."

// Reasoner optionally rewrites deterministic reasoning into prose.
type Reasoner struct {
	gen     oracle.Generator
	metrics *metrics.OracleMetrics
	logg    *logger.Logger
}

func NewReasoner(gen oracle.Generator, m *metrics.OracleMetrics, logg *logger.Logger) *Reasoner {
	if gen == nil {
		gen = oracle.Noop{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Reasoner{gen: gen, metrics: m, logg: logg}
}

// Rewrite returns the oracle's reasoning, or the input list verbatim when
// the oracle fails or returns nothing usable.
func (r *Reasoner) Rewrite(ctx context.Context, s customers.Snapshot, rec Recommendation) []string {
	if len(rec.Reasoning) == 0 {
		return rec.Reasoning
	}
	prompt := fmt.Sprintf(
		"Customer %q (stage %s, health %.0f, ARR %.0f) was matched to the %q playbook (%s) with fit %.0f/100.\n"+
			"Deterministic reasons:\n- %s\n"+
			`Rewrite these as at most %d short sentences for a CSM. Respond as {"reasoning":[""]}.`,
		s.Name, s.Stage, s.HealthScore, s.ARR, rec.RecommendedPlaybook.Name, rec.RecommendedPlaybook.Type,
		rec.FitScore, strings.Join(rec.Reasoning, "\n- "), len(rec.Reasoning)+1,
	)
	text, err := r.gen.Generate(ctx, prompt, reasoningSystemPrompt)
	if err != nil {
		r.fallback(ctx, "oracle unavailable, keeping deterministic reasoning", err)
		return rec.Reasoning
	}
	res := oracle.Decode[struct {
		Reasoning []string `json:"reasoning"`
	}](text)
	if !res.Ok() {
		r.fallback(ctx, "oracle reasoning unusable, keeping deterministic reasoning", res.Err)
		return rec.Reasoning
	}
	out := []string{}
	for _, line := range res.Value.Reasoning {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		r.fallback(ctx, "oracle returned empty reasoning, keeping deterministic reasoning", nil)
		return rec.Reasoning
	}
	return out
}

func (r *Reasoner) fallback(ctx context.Context, msg string, err error) {
	if r.metrics != nil {
		r.metrics.IncFallback("playbook_reasoning")
	}
	r.logg.WarnErr(ctx, msg, err)
}
