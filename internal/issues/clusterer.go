// Package issues groups support tickets into a fixed keyword taxonomy and
// reports how each group is trending.
package issues

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

type Category string

const (
	CategoryPerformance    Category = "performance"
	CategoryBug            Category = "bug"
	CategoryBilling        Category = "billing"
	CategoryIntegration    Category = "integration"
	CategoryUsability      Category = "usability"
	CategoryFeatureRequest Category = "feature_request"
	CategoryOnboarding     Category = "onboarding"
	CategoryAccess         Category = "access"
	CategoryDataQuality    Category = "data_quality"
	CategoryOther          Category = "other"
)

const (
	trendWindow     = 30 * 24 * time.Hour
	trendThreshold  = 0.2
	maxTopKeywords  = 5
	maxSampleTicket = 5
)

type taxonomyEntry struct {
	category Category
	keywords []string
}

// taxonomy order breaks ties between categories with equal hits.
var taxonomy = []taxonomyEntry{
	{CategoryPerformance, []string{"slow", "latency", "timeout", "lag", "performance", "loading", "speed", "hang", "freeze"}},
	{CategoryBug, []string{"bug", "error", "crash", "broken", "fail", "failing", "exception", "wrong", "glitch"}},
	{CategoryBilling, []string{"invoice", "billing", "charge", "charged", "payment", "refund", "price", "pricing", "subscription"}},
	{CategoryIntegration, []string{"integration", "api", "webhook", "sync", "salesforce", "hubspot", "slack", "zapier", "connector"}},
	{CategoryUsability, []string{"confusing", "hard", "unclear", "navigate", "ui", "ux", "difficult", "intuitive", "find"}},
	{CategoryFeatureRequest, []string{"feature", "request", "wish", "would", "add", "support", "missing", "roadmap", "enhancement"}},
	{CategoryOnboarding, []string{"onboarding", "setup", "getting", "started", "training", "tutorial", "documentation", "docs", "implementation"}},
	{CategoryAccess, []string{"login", "password", "sso", "access", "permission", "locked", "2fa", "mfa", "reset"}},
	{CategoryDataQuality, []string{"data", "missing", "duplicate", "incorrect", "report", "export", "import", "mismatch", "stale"}},
}

type Ticket struct {
	ID         string    `json:"id" validate:"required"`
	CustomerID string    `json:"customer_id,omitempty"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type Cluster struct {
	Category    Category         `json:"category"`
	Count       int              `json:"count"`
	Share       float64          `json:"share"`
	Customers   int              `json:"customers"`
	TopKeywords []string         `json:"top_keywords"`
	Trend       enums.IssueTrend `json:"trend"`
	RecentCount int              `json:"recent_count"`
	PriorCount  int              `json:"prior_count"`
	SampleIDs   []string         `json:"sample_ticket_ids"`
}

type Result struct {
	Total    int       `json:"total"`
	Clusters []Cluster `json:"clusters"`
}

// Classify picks the category with the most keyword hits and returns the
// keywords that matched. No hits means CategoryOther.
func Classify(text string) (Category, []string) {
	tokens := tokenize(text)
	best, bestHits := CategoryOther, []string{}
	for _, entry := range taxonomy {
		hits := []string{}
		for _, kw := range entry.keywords {
			if tokens[kw] > 0 {
				for i := 0; i < tokens[kw]; i++ {
					hits = append(hits, kw)
				}
			}
		}
		if len(hits) > len(bestHits) {
			best, bestHits = entry.category, hits
		}
	}
	return best, bestHits
}

// ClusterTickets classifies every ticket and aggregates per category.
// Trend compares the 30 days before now with the 30 days before that.
func ClusterTickets(tickets []Ticket, now time.Time) Result {
	type acc struct {
		cluster   Cluster
		customers map[string]struct{}
		keywords  map[string]int
	}
	byCategory := map[Category]*acc{}
	recentFrom := now.Add(-trendWindow)
	priorFrom := now.Add(-2 * trendWindow)

	for _, t := range tickets {
		category, hits := Classify(t.Subject + " " + t.Body)
		a, ok := byCategory[category]
		if !ok {
			a = &acc{
				cluster:   Cluster{Category: category, SampleIDs: []string{}},
				customers: map[string]struct{}{},
				keywords:  map[string]int{},
			}
			byCategory[category] = a
		}
		a.cluster.Count++
		if t.CustomerID != "" {
			a.customers[t.CustomerID] = struct{}{}
		}
		for _, kw := range hits {
			a.keywords[kw]++
		}
		if len(a.cluster.SampleIDs) < maxSampleTicket {
			a.cluster.SampleIDs = append(a.cluster.SampleIDs, t.ID)
		}
		switch {
		case t.CreatedAt.After(recentFrom) && !t.CreatedAt.After(now):
			a.cluster.RecentCount++
		case t.CreatedAt.After(priorFrom) && !t.CreatedAt.After(recentFrom):
			a.cluster.PriorCount++
		}
	}

	out := Result{Total: len(tickets), Clusters: make([]Cluster, 0, len(byCategory))}
	for _, a := range byCategory {
		c := a.cluster
		c.Customers = len(a.customers)
		c.TopKeywords = topKeywords(a.keywords)
		c.Trend = Trend(c.RecentCount, c.PriorCount)
		if out.Total > 0 {
			c.Share = math.Round(float64(c.Count)/float64(out.Total)*1000) / 1000
		}
		out.Clusters = append(out.Clusters, c)
	}
	sort.Slice(out.Clusters, func(i, j int) bool {
		if out.Clusters[i].Count != out.Clusters[j].Count {
			return out.Clusters[i].Count > out.Clusters[j].Count
		}
		return out.Clusters[i].Category < out.Clusters[j].Category
	})
	return out
}

// Trend classifies the change between two windows. Growth from zero counts
// as increasing.
func Trend(recent, prior int) enums.IssueTrend {
	if prior == 0 {
		if recent > 0 {
			return enums.IssueTrendIncreasing
		}
		return enums.IssueTrendStable
	}
	change := float64(recent-prior) / float64(prior)
	switch {
	case change > trendThreshold:
		return enums.IssueTrendIncreasing
	case change < -trendThreshold:
		return enums.IssueTrendDecreasing
	default:
		return enums.IssueTrendStable
	}
}

func tokenize(text string) map[string]int {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]int, len(words))
	for _, w := range words {
		out[w]++
	}
	return out
}

func topKeywords(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > maxTopKeywords {
		keys = keys[:maxTopKeywords]
	}
	return keys
}
