// Package propensity estimates how likely a customer is to expand, from six
// weighted heuristic sub-scores.
package propensity

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// Sub-score weights. They sum to 1.
const (
	WeightUsage       = 0.30
	WeightEngagement  = 0.20
	WeightHealth      = 0.20
	WeightBusiness    = 0.15
	WeightStakeholder = 0.10
	WeightCohort      = 0.05
)

const (
	maxFactors    = 8
	maxConfidence = 0.95
)

// Sources of the narrative fields.
const (
	SourceRules  = "rules"
	SourceOracle = "rules+oracle"
)

type Breakdown struct {
	Usage       float64 `json:"usage"`
	Engagement  float64 `json:"engagement"`
	Health      float64 `json:"health"`
	Business    float64 `json:"business"`
	Stakeholder float64 `json:"stakeholder"`
	Cohort      float64 `json:"cohort"`
}

func (b Breakdown) values() []float64 {
	return []float64{b.Usage, b.Engagement, b.Health, b.Business, b.Stakeholder, b.Cohort}
}

// Combine clamps every sub-score and applies the fixed weights.
func (b Breakdown) Combine() int {
	weighted := WeightUsage*clamp(b.Usage) +
		WeightEngagement*clamp(b.Engagement) +
		WeightHealth*clamp(b.Health) +
		WeightBusiness*clamp(b.Business) +
		WeightStakeholder*clamp(b.Stakeholder) +
		WeightCohort*clamp(b.Cohort)
	return int(clamp(math.Round(weighted)))
}

type Score struct {
	CustomerID          string                `json:"customer_id"`
	CustomerName        string                `json:"customer_name,omitempty"`
	PropensityScore     int                   `json:"propensity_score"`
	Confidence          enums.ConfidenceLevel `json:"confidence"`
	ConfidenceValue     float64               `json:"confidence_value"`
	ScoreBreakdown      Breakdown             `json:"score_breakdown"`
	ContributingFactors []Factor              `json:"contributing_factors"`
	RecommendedProducts []Product             `json:"recommended_products"`
	EstimatedValue      decimal.Decimal       `json:"estimated_value"`
	Approach            string                `json:"approach"`
	TalkingPoints       []string              `json:"talking_points"`
	Source              string                `json:"source"`
	CalculatedAt        time.Time             `json:"calculated_at"`
}

// Scorer computes the deterministic part of a propensity score.
type Scorer struct {
	now func() time.Time
}

func NewScorer(now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{now: now}
}

// Score never consults the oracle; narrative fields come from rules.
func (sc *Scorer) Score(s customers.Snapshot) Score {
	var factors []Factor
	collect := func(fn func(customers.Snapshot) (float64, []Factor)) float64 {
		v, f := fn(s)
		factors = append(factors, f...)
		return v
	}
	b := Breakdown{
		Usage:       collect(usageScore),
		Engagement:  collect(engagementScore),
		Health:      collect(healthScore),
		Business:    collect(businessScore),
		Stakeholder: collect(stakeholderScore),
		Cohort:      collect(cohortScore),
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return math.Abs(factors[i].Weight) > math.Abs(factors[j].Weight)
	})
	if len(factors) > maxFactors {
		factors = factors[:maxFactors]
	}
	if factors == nil {
		factors = []Factor{}
	}

	p := b.Combine()
	conf := confidence(s, b)
	return Score{
		CustomerID:          s.ID,
		CustomerName:        s.Name,
		PropensityScore:     p,
		Confidence:          confidenceTier(conf),
		ConfidenceValue:     conf,
		ScoreBreakdown:      b,
		ContributingFactors: factors,
		RecommendedProducts: RuleProducts(s),
		EstimatedValue:      EstimatedValue(s.ARR, p, s.UsageCapacity),
		Approach:            approach(s, b, p),
		TalkingPoints:       []string{},
		Source:              SourceRules,
		CalculatedAt:        sc.now().UTC(),
	}
}

// confidence blends data completeness with agreement between sub-scores.
func confidence(s customers.Snapshot, b Breakdown) float64 {
	c := 0.35
	if s.Completeness.Meetings {
		c += 0.1
	}
	if s.Completeness.Stakeholders {
		c += 0.1
	}
	if s.Completeness.FeatureUsage {
		c += 0.1
	}
	c += 0.15 * s.Completeness.Ratio()

	switch sd := timeseries.StdDev(b.values()); {
	case sd <= 10:
		c += 0.2
	case sd <= 20:
		c += 0.1
	case sd <= 30:
		c += 0.05
	}
	return timeseries.Round(math.Min(maxConfidence, c), 2)
}

func confidenceTier(v float64) enums.ConfidenceLevel {
	switch {
	case v >= 0.75:
		return enums.ConfidenceLevelHigh
	case v >= 0.5:
		return enums.ConfidenceLevelMedium
	default:
		return enums.ConfidenceLevelLow
	}
}

// EstimatedValue sizes the expansion opportunity from current ARR.
func EstimatedValue(arr float64, propensity int, usageCapacity float64) decimal.Decimal {
	base := 0.3 + 0.2*float64(propensity)/100
	capacity := 1.0
	switch {
	case usageCapacity >= 90:
		capacity = 1.5
	case usageCapacity >= 75:
		capacity = 1.2
	}
	return decimal.NewFromFloat(arr).
		Mul(decimal.NewFromFloat(base)).
		Mul(decimal.NewFromFloat(capacity)).
		Round(2)
}

func approach(s customers.Snapshot, b Breakdown, p int) string {
	switch {
	case b.Stakeholder < 40:
		return "Multi-thread the account and secure an executive sponsor before proposing expansion."
	case s.Completeness.Renewal && s.DaysToRenewal >= 0 && s.DaysToRenewal <= 120 && p >= 50:
		return "Bundle the expansion proposal into the upcoming renewal conversation."
	case b.Usage >= 70:
		return "Lead with capacity data: the account is outgrowing its current entitlement."
	case b.Engagement < 40:
		return "Run a value review to rebuild engagement before any commercial conversation."
	case p >= 60:
		return "Propose expansion at the next business review."
	default:
		return "Keep nurturing adoption and revisit expansion next quarter."
	}
}

func clamp(v float64) float64 {
	return timeseries.Clamp(v, 0, 100)
}
