package playbooks

import (
	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// Metric names a snapshot value a Condition can read.
type Metric string

const (
	MetricHealthScore      Metric = "health_score"
	MetricHealthChange     Metric = "health_score_change"
	MetricDaysToRenewal    Metric = "days_to_renewal"
	MetricFeatureAdoption  Metric = "feature_adoption_rate"
	MetricUsageCapacity    Metric = "usage_capacity"
	MetricTenureMonths     Metric = "tenure_months"
	MetricExpansionSignals Metric = "expansion_signals"
	MetricARR              Metric = "arr"
)

// Condition is a closed set of comparisons. Use Eval to interpret one.
type Condition interface {
	condition()
}

type LessThan struct {
	Metric Metric
	Value  float64
}

type LessEq struct {
	Metric Metric
	Value  float64
}

type GreaterThan struct {
	Metric Metric
	Value  float64
}

type GreaterEq struct {
	Metric Metric
	Value  float64
}

type Equals struct {
	Metric Metric
	Value  float64
}

func (LessThan) condition()    {}
func (LessEq) condition()      {}
func (GreaterThan) condition() {}
func (GreaterEq) condition()   {}
func (Equals) condition()      {}

// Eval interprets c against the snapshot. A metric the snapshot does not
// carry makes the condition false.
func Eval(c Condition, s customers.Snapshot) bool {
	switch c := c.(type) {
	case LessThan:
		v, ok := metricValue(c.Metric, s)
		return ok && v < c.Value
	case LessEq:
		v, ok := metricValue(c.Metric, s)
		return ok && v <= c.Value
	case GreaterThan:
		v, ok := metricValue(c.Metric, s)
		return ok && v > c.Value
	case GreaterEq:
		v, ok := metricValue(c.Metric, s)
		return ok && v >= c.Value
	case Equals:
		v, ok := metricValue(c.Metric, s)
		return ok && v == c.Value
	default:
		return false
	}
}

func metricValue(m Metric, s customers.Snapshot) (float64, bool) {
	switch m {
	case MetricHealthScore:
		return s.HealthScore, s.Completeness.Health
	case MetricHealthChange:
		return s.HealthScoreChange, s.Completeness.Health
	case MetricDaysToRenewal:
		return float64(s.DaysToRenewal), s.Completeness.Renewal
	case MetricFeatureAdoption:
		return s.FeatureAdoptionRate, s.Completeness.FeatureUsage
	case MetricUsageCapacity:
		return s.UsageCapacity, s.Completeness.Usage
	case MetricTenureMonths:
		return float64(s.TenureMonths), s.Completeness.Tenure
	case MetricExpansionSignals:
		return float64(len(s.ExpansionSignals)), true
	case MetricARR:
		return s.ARR, true
	default:
		return 0, false
	}
}

// Rule fires when every condition holds.
type Rule struct {
	Name       string
	Signal     string
	Hint       enums.PlaybookType
	Conditions []Condition
}

// Matches reports whether all conditions are true. A rule without
// conditions never fires.
func (r Rule) Matches(s customers.Snapshot) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !Eval(c, s) {
			return false
		}
	}
	return true
}

// DefaultRules is the trigger table evaluated against live metrics.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "health_drop",
			Signal: "health_drop",
			Hint:   enums.PlaybookTypeSave,
			Conditions: []Condition{
				LessEq{Metric: MetricHealthChange, Value: -10},
				LessThan{Metric: MetricHealthScore, Value: 60},
			},
		},
		{
			Name:   "renewal_approaching",
			Signal: "renewal_approaching",
			Hint:   enums.PlaybookTypeRenewal,
			Conditions: []Condition{
				GreaterEq{Metric: MetricDaysToRenewal, Value: 0},
				LessEq{Metric: MetricDaysToRenewal, Value: 90},
			},
		},
		{
			Name:   "low_adoption",
			Signal: "low_adoption",
			Hint:   enums.PlaybookTypeAdoption,
			Conditions: []Condition{
				LessThan{Metric: MetricFeatureAdoption, Value: 30},
				GreaterEq{Metric: MetricTenureMonths, Value: 3},
			},
		},
		{
			Name:   "expansion_signal",
			Signal: "expansion_signal",
			Hint:   enums.PlaybookTypeExpansion,
			Conditions: []Condition{
				GreaterEq{Metric: MetricUsageCapacity, Value: 90},
				GreaterEq{Metric: MetricHealthScore, Value: 70},
			},
		},
	}
}

// EvaluateTriggers runs every rule and matches a playbook for each rule
// that fires.
func (m *Matcher) EvaluateTriggers(s customers.Snapshot, library []Playbook, rules []Rule) []Recommendation {
	out := []Recommendation{}
	for _, r := range rules {
		if !r.Matches(s) {
			continue
		}
		rec, ok := m.Recommend(s, library, Trigger{Event: r.Name, Signal: r.Signal, Hint: r.Hint})
		if ok {
			out = append(out, rec)
		}
	}
	return out
}
