package churn

import (
	"math"
	"sort"
	"time"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

const (
	maxPrimaryConcerns = 3
	patternMinRows     = 3
)

type Score struct {
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name,omitempty"`
	RiskScore       float64         `json:"risk_score"`
	RiskLevel       enums.RiskLevel `json:"risk_level"`
	RiskFactors     []RiskFactor    `json:"risk_factors"`
	PrimaryConcerns []string        `json:"primary_concerns"`
}

// Pattern is a factor shared by several rows of a batch.
type Pattern struct {
	Factor     string  `json:"factor"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Summary struct {
	Total        int                     `json:"total"`
	ByLevel      map[enums.RiskLevel]int `json:"by_level"`
	AverageScore float64                 `json:"average_score"`
}

type BatchResult struct {
	Scores     []Score       `json:"scores"`
	Patterns   []Pattern     `json:"patterns"`
	Summary    Summary       `json:"summary"`
	Mapping    ColumnMapping `json:"mapping"`
	Thresholds Thresholds    `json:"thresholds"`
}

// Scorer is a pure function of its thresholds, mapping and clock.
type Scorer struct {
	thresholds Thresholds
	mapping    ColumnMapping
	now        time.Time
}

func NewScorer(thresholds Thresholds, mapping ColumnMapping, now time.Time) *Scorer {
	return &Scorer{thresholds: thresholds, mapping: mapping, now: now}
}

// Score evaluates one row. Rows with nothing to evaluate score 0 / low.
func (s *Scorer) Score(row Row) Score {
	ctx := evalContext{row: row, mapping: s.mapping, thresholds: s.thresholds, now: s.now}

	factors := []RiskFactor{}
	total := 0.0
	for _, eval := range evaluators {
		if f := eval(ctx); f != nil {
			factors = append(factors, *f)
			total += f.Contribution
		}
	}
	for i := range factors {
		if total > 0 {
			factors[i].Weight = math.Round(factors[i].Contribution/total*1000) / 1000
		}
	}
	sort.SliceStable(factors, func(i, j int) bool { return factors[i].Contribution > factors[j].Contribution })

	score := math.Min(100, math.Max(0, total))
	return Score{
		CustomerID:      row.text(s.mapping.CustomerID),
		CustomerName:    row.text(s.mapping.CustomerName),
		RiskScore:       score,
		RiskLevel:       s.thresholds.Level(score),
		RiskFactors:     factors,
		PrimaryConcerns: primaryConcerns(factors),
	}
}

func primaryConcerns(sorted []RiskFactor) []string {
	out := []string{}
	for _, f := range sorted {
		if !f.Severity.AtLeastHigh() {
			continue
		}
		out = append(out, f.Factor)
		if len(out) == maxPrimaryConcerns {
			break
		}
	}
	return out
}

// ScoreBatch scores every row and aggregates cross-row patterns.
func (s *Scorer) ScoreBatch(rows []Row) BatchResult {
	out := BatchResult{
		Scores:     make([]Score, 0, len(rows)),
		Patterns:   []Pattern{},
		Mapping:    s.mapping,
		Thresholds: s.thresholds,
		Summary: Summary{
			Total: len(rows),
			ByLevel: map[enums.RiskLevel]int{
				enums.RiskLevelLow:      0,
				enums.RiskLevelMedium:   0,
				enums.RiskLevelHigh:     0,
				enums.RiskLevelCritical: 0,
			},
		},
	}

	counts := map[string]int{}
	sum := 0.0
	for _, row := range rows {
		score := s.Score(row)
		out.Scores = append(out.Scores, score)
		out.Summary.ByLevel[score.RiskLevel]++
		sum += score.RiskScore
		for _, f := range score.RiskFactors {
			counts[f.Factor]++
		}
	}
	if len(rows) > 0 {
		out.Summary.AverageScore = math.Round(sum/float64(len(rows))*10) / 10
	}

	for name, count := range counts {
		if count < patternMinRows {
			continue
		}
		out.Patterns = append(out.Patterns, Pattern{
			Factor:     name,
			Count:      count,
			Percentage: math.Round(float64(count)/float64(len(rows))*1000) / 10,
		})
	}
	sort.Slice(out.Patterns, func(i, j int) bool {
		if out.Patterns[i].Count != out.Patterns[j].Count {
			return out.Patterns[i].Count > out.Patterns[j].Count
		}
		return out.Patterns[i].Factor < out.Patterns[j].Factor
	})
	return out
}
