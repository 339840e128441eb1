// Package nps correlates NPS scores with the sentiment of their comments
// and ranks detractors and promoters for follow-up.
package nps

import (
	"math"
	"sort"
	"strings"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

// Sentiment sources.
const (
	SourceSupplied = "supplied"
	SourceOracle   = "oracle"
	SourceScore    = "score"
)

const (
	urgencyCriticalScore  = 30
	urgencyNegative       = 25
	urgencyHighARR        = 30
	urgencyLowHealth      = 20
	urgencyRenewal        = 25
	advocacyPerfectScore  = 30
	advocacyPositive      = 25
	advocacyHighARR       = 20
	advocacyHighHealth    = 20
	advocacyDetailed      = 10
	highARR               = 100000
	strongSentiment       = 0.5
	renewalUrgentDays     = 90
	lowHealth             = 50
	highHealth            = 80
	detailedCommentLength = 50
	unknownSegment        = "unknown"
)

// Response is one NPS survey answer. Sentiment and SentimentScore are
// optional; missing values are derived from the score.
type Response struct {
	ID             string           `json:"id" validate:"required"`
	CustomerID     string           `json:"customer_id" validate:"required"`
	CustomerName   string           `json:"customer_name,omitempty"`
	Score          int              `json:"score" validate:"min=0,max=10"`
	Comment        string           `json:"comment,omitempty"`
	Segment        string           `json:"segment,omitempty"`
	Themes         []string         `json:"themes,omitempty"`
	Sentiment      *enums.Sentiment `json:"sentiment,omitempty"`
	SentimentScore *float64         `json:"sentiment_score,omitempty" validate:"omitempty,min=-1,max=1"`
	ARR            float64          `json:"arr"`
	HealthScore    *float64         `json:"health_score,omitempty"`
	DaysToRenewal  *int             `json:"days_to_renewal,omitempty"`
}

// Classified is a response with its category and resolved sentiment.
type Classified struct {
	Response
	Category         enums.NPSCategory `json:"category"`
	Sentiment        enums.Sentiment   `json:"sentiment"`
	SentimentScore   float64           `json:"sentiment_score"`
	SentimentSource  string            `json:"sentiment_source"`
	HasScoreMismatch bool              `json:"has_score_mismatch"`
}

// Correlation holds the share of each category whose sentiment agrees
// with it.
type Correlation struct {
	PromoterPositiveRate  float64 `json:"promoter_positive_rate"`
	PassiveNeutralRate    float64 `json:"passive_neutral_rate"`
	DetractorNegativeRate float64 `json:"detractor_negative_rate"`
	OverallAlignment      float64 `json:"overall_alignment"`
	MismatchCount         int     `json:"mismatch_count"`
}

type Theme struct {
	Name            string  `json:"name"`
	Count           int     `json:"count"`
	AverageScore    float64 `json:"average_score"`
	DominantSegment string  `json:"dominant_segment"`
}

// Ranked is a detractor or promoter with its priority score.
type Ranked struct {
	Classified
	Priority int      `json:"priority"`
	Reasons  []string `json:"reasons"`
}

type Report struct {
	Total       int                       `json:"total"`
	Skipped     int                       `json:"skipped"`
	NPS         float64                   `json:"nps"`
	Counts      map[enums.NPSCategory]int `json:"counts"`
	Correlation Correlation               `json:"correlation"`
	Themes      []Theme                   `json:"themes"`
	Mismatches  []Classified              `json:"mismatches"`
	Detractors  []Ranked                  `json:"detractors"`
	Promoters   []Ranked                  `json:"promoters"`
}

// ScoreSentiment derives sentiment from the score alone.
func ScoreSentiment(score int) (enums.Sentiment, float64) {
	value := math.Round(float64(score-5)/5*100) / 100
	return enums.NPSCategoryForScore(score).ImpliedSentiment(), value
}

// Classify resolves category and sentiment for one response.
func Classify(r Response) Classified {
	c := Classified{Response: r, Category: enums.NPSCategoryForScore(r.Score)}
	derived, derivedScore := ScoreSentiment(r.Score)
	switch {
	case r.Sentiment != nil && r.Sentiment.IsValid():
		c.Sentiment = *r.Sentiment
		c.SentimentSource = SourceSupplied
		c.SentimentScore = derivedScore
		if r.SentimentScore != nil {
			c.SentimentScore = clampUnit(*r.SentimentScore)
		}
	default:
		c.Sentiment = derived
		c.SentimentScore = derivedScore
		c.SentimentSource = SourceScore
	}
	c.HasScoreMismatch = HasScoreMismatch(c.Category, c.Sentiment)
	return c
}

// HasScoreMismatch reports whether the sentiment disagrees with what the
// category implies.
func HasScoreMismatch(category enums.NPSCategory, sentiment enums.Sentiment) bool {
	return category.ImpliedSentiment() != sentiment
}

// Correlate aggregates classified responses. Responses with a score
// outside 0-10 are counted as skipped.
func Correlate(responses []Classified) Report {
	report := Report{
		Counts:     map[enums.NPSCategory]int{},
		Themes:     []Theme{},
		Mismatches: []Classified{},
		Detractors: []Ranked{},
		Promoters:  []Ranked{},
	}
	aligned := map[enums.NPSCategory]int{}
	valid := make([]Classified, 0, len(responses))
	for _, r := range responses {
		if r.Score < 0 || r.Score > 10 {
			report.Skipped++
			continue
		}
		valid = append(valid, r)
		report.Counts[r.Category]++
		if r.HasScoreMismatch {
			report.Mismatches = append(report.Mismatches, r)
		} else {
			aligned[r.Category]++
		}
		switch r.Category {
		case enums.NPSCategoryDetractor:
			report.Detractors = append(report.Detractors, urgency(r))
		case enums.NPSCategoryPromoter:
			report.Promoters = append(report.Promoters, advocacy(r))
		}
	}
	report.Total = len(valid)
	if report.Total == 0 {
		return report
	}

	report.NPS = math.Round(float64(report.Counts[enums.NPSCategoryPromoter]-report.Counts[enums.NPSCategoryDetractor])/float64(report.Total)*1000) / 10
	report.Correlation = Correlation{
		PromoterPositiveRate:  rate(aligned[enums.NPSCategoryPromoter], report.Counts[enums.NPSCategoryPromoter]),
		PassiveNeutralRate:    rate(aligned[enums.NPSCategoryPassive], report.Counts[enums.NPSCategoryPassive]),
		DetractorNegativeRate: rate(aligned[enums.NPSCategoryDetractor], report.Counts[enums.NPSCategoryDetractor]),
		OverallAlignment:      rate(report.Total-len(report.Mismatches), report.Total),
		MismatchCount:         len(report.Mismatches),
	}
	report.Themes = themes(valid)
	sortRanked(report.Detractors)
	sortRanked(report.Promoters)
	return report
}

func urgency(r Classified) Ranked {
	out := Ranked{Classified: r, Reasons: []string{}}
	add := func(points int, reason string) {
		out.Priority += points
		out.Reasons = append(out.Reasons, reason)
	}
	if r.Score <= 2 {
		add(urgencyCriticalScore, "critical score")
	}
	if r.SentimentScore <= -strongSentiment {
		add(urgencyNegative, "strongly negative comment")
	}
	if r.ARR >= highARR {
		add(urgencyHighARR, "high ARR account")
	}
	if r.HealthScore != nil && *r.HealthScore < lowHealth {
		add(urgencyLowHealth, "low health score")
	}
	if r.DaysToRenewal != nil && *r.DaysToRenewal >= 0 && *r.DaysToRenewal <= renewalUrgentDays {
		add(urgencyRenewal, "renewal within 90 days")
	}
	return out
}

func advocacy(r Classified) Ranked {
	out := Ranked{Classified: r, Reasons: []string{}}
	add := func(points int, reason string) {
		out.Priority += points
		out.Reasons = append(out.Reasons, reason)
	}
	if r.Score == 10 {
		add(advocacyPerfectScore, "perfect score")
	}
	if r.SentimentScore >= strongSentiment {
		add(advocacyPositive, "strongly positive comment")
	}
	if r.ARR >= highARR {
		add(advocacyHighARR, "high ARR account")
	}
	if r.HealthScore != nil && *r.HealthScore >= highHealth {
		add(advocacyHighHealth, "healthy account")
	}
	if len(strings.TrimSpace(r.Comment)) > detailedCommentLength {
		add(advocacyDetailed, "detailed comment")
	}
	return out
}

func themes(responses []Classified) []Theme {
	type acc struct {
		count    int
		total    int
		segments map[string]int
	}
	byName := map[string]*acc{}
	for _, r := range responses {
		seen := map[string]bool{}
		for _, raw := range r.Themes {
			name := strings.ToLower(strings.TrimSpace(raw))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			a, ok := byName[name]
			if !ok {
				a = &acc{segments: map[string]int{}}
				byName[name] = a
			}
			a.count++
			a.total += r.Score
			segment := strings.ToLower(strings.TrimSpace(r.Segment))
			if segment == "" {
				segment = unknownSegment
			}
			a.segments[segment]++
		}
	}
	out := make([]Theme, 0, len(byName))
	for name, a := range byName {
		out = append(out, Theme{
			Name:            name,
			Count:           a.count,
			AverageScore:    math.Round(float64(a.total)/float64(a.count)*10) / 10,
			DominantSegment: dominant(a.segments),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func dominant(counts map[string]int) string {
	best, bestCount := "", -1
	for name, n := range counts {
		if n > bestCount || (n == bestCount && name < best) {
			best, bestCount = name, n
		}
	}
	return best
}

func sortRanked(list []Ranked) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		return list[i].ID < list[j].ID
	})
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 1000
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
