package propensity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
	"github.com/angelmondragon/healthpulse-backend/pkg/oracle"
)

const enrichSystemPrompt = "You are a customer success strategist. Reply with a single JSON object and nothing else."

type oracleAdvice struct {
	Products []struct {
		Product   string `json:"product"`
		Name      string `json:"name"`
		Rationale string `json:"rationale"`
	} `json:"products"`
	Approach      string   `json:"approach"`
	TalkingPoints []string `json:"talking_points"`
}

// Enricher adds oracle narrative on top of a rule-based score.
type Enricher struct {
	gen     oracle.Generator
	metrics *metrics.OracleMetrics
	logg    *logger.Logger
}

func NewEnricher(gen oracle.Generator, m *metrics.OracleMetrics, logg *logger.Logger) *Enricher {
	if gen == nil {
		gen = oracle.Noop{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Enricher{gen: gen, metrics: m, logg: logg}
}

// Enrich returns score with oracle additions, or score unchanged when the
// oracle is unavailable or answers with something unusable.
func (e *Enricher) Enrich(ctx context.Context, s customers.Snapshot, score Score) Score {
	text, err := e.gen.Generate(ctx, enrichPrompt(s, score), enrichSystemPrompt)
	if err != nil {
		e.fallback(ctx, "oracle unavailable, keeping rule-based recommendations", err)
		return score
	}
	res := oracle.Decode[oracleAdvice](text)
	if !res.Ok() {
		e.fallback(ctx, "oracle response unusable, keeping rule-based recommendations", res.Err)
		return score
	}

	extra := make([]Product, 0, len(res.Value.Products))
	for _, p := range res.Value.Products {
		extra = append(extra, Product{
			Product:   strings.ToLower(strings.TrimSpace(p.Product)),
			Name:      strings.TrimSpace(p.Name),
			Rationale: strings.TrimSpace(p.Rationale),
			Source:    "oracle",
		})
	}
	score.RecommendedProducts = mergeProducts(score.RecommendedProducts, extra)
	if a := strings.TrimSpace(res.Value.Approach); a != "" {
		score.Approach = a
	}
	for _, tp := range res.Value.TalkingPoints {
		if tp = strings.TrimSpace(tp); tp != "" {
			score.TalkingPoints = append(score.TalkingPoints, tp)
		}
	}
	score.Source = SourceOracle
	return score
}

func (e *Enricher) fallback(ctx context.Context, msg string, err error) {
	if e.metrics != nil {
		e.metrics.IncFallback("propensity")
	}
	e.logg.WarnErr(ctx, msg, err)
}

func enrichPrompt(s customers.Snapshot, score Score) string {
	breakdown, _ := json.Marshal(score.ScoreBreakdown)
	current := make([]string, 0, len(score.RecommendedProducts))
	for _, p := range score.RecommendedProducts {
		current = append(current, p.Product)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Customer %q (industry %q, segment %q, plan %q).\n", s.Name, s.Industry, s.Segment, s.Plan)
	fmt.Fprintf(&b, "ARR %.0f, health %.0f, usage capacity %.0f%%, seats %d/%d, renewal in %d days.\n",
		s.ARR, s.HealthScore, s.UsageCapacity, s.SeatsUsed, s.SeatCount, s.DaysToRenewal)
	fmt.Fprintf(&b, "Expansion propensity %d/100. Sub-scores: %s.\n", score.PropensityScore, breakdown)
	fmt.Fprintf(&b, "Already recommended: %s.\n", strings.Join(current, ", "))
	b.WriteString(`Suggest up to two additional products and a short approach. ` +
		`Respond as {"products":[{"product":"","name":"","rationale":""}],"approach":"","talking_points":[""]}.`)
	return b.String()
}
