package issues

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	cases := map[string]Category{
		"Dashboard is very slow, pages time out with latency spikes": CategoryPerformance,
		"We were charged twice on the last invoice":                  CategoryBilling,
		"Salesforce sync stopped, API returns 500":                   CategoryIntegration,
		"Can't login after password reset":                           CategoryAccess,
		"Thanks for the call yesterday":                              CategoryOther,
	}
	for text, want := range cases {
		got, _ := Classify(text)
		assert.Equal(t, want, got, text)
	}
}

func TestClassifyTieUsesTaxonomyOrder(t *testing.T) {
	got, hits := Classify("slow crash")
	assert.Equal(t, CategoryPerformance, got)
	assert.Equal(t, []string{"slow"}, hits)
}

func TestTrend(t *testing.T) {
	assert.Equal(t, enums.IssueTrendIncreasing, Trend(13, 10))
	assert.Equal(t, enums.IssueTrendStable, Trend(12, 10))
	assert.Equal(t, enums.IssueTrendStable, Trend(8, 10))
	assert.Equal(t, enums.IssueTrendDecreasing, Trend(7, 10))
	assert.Equal(t, enums.IssueTrendIncreasing, Trend(1, 0))
	assert.Equal(t, enums.IssueTrendStable, Trend(0, 0))
}

func TestClusterTickets(t *testing.T) {
	day := 24 * time.Hour
	tickets := []Ticket{
		{ID: "t1", CustomerID: "a", Subject: "Slow reports", Body: "loading takes forever", CreatedAt: now.Add(-2 * day)},
		{ID: "t2", CustomerID: "b", Subject: "Timeout", Body: "page is slow", CreatedAt: now.Add(-10 * day)},
		{ID: "t3", CustomerID: "a", Subject: "Performance", Body: "still slow", CreatedAt: now.Add(-40 * day)},
		{ID: "t4", CustomerID: "c", Subject: "Refund", Body: "wrong charge on invoice", CreatedAt: now.Add(-45 * day)},
		{ID: "t5", CustomerID: "c", Subject: "hello", Body: "", CreatedAt: now.Add(-90 * day)},
	}
	res := ClusterTickets(tickets, now)
	assert.Equal(t, 5, res.Total)
	require.Len(t, res.Clusters, 3)

	perf := res.Clusters[0]
	assert.Equal(t, CategoryPerformance, perf.Category)
	assert.Equal(t, 3, perf.Count)
	assert.Equal(t, 0.6, perf.Share)
	assert.Equal(t, 2, perf.Customers)
	assert.Equal(t, "slow", perf.TopKeywords[0])
	assert.Equal(t, 2, perf.RecentCount)
	assert.Equal(t, 1, perf.PriorCount)
	assert.Equal(t, enums.IssueTrendIncreasing, perf.Trend)

	billing := res.Clusters[1]
	assert.Equal(t, CategoryBilling, billing.Category)
	assert.Equal(t, enums.IssueTrendDecreasing, billing.Trend)

	other := res.Clusters[2]
	assert.Equal(t, CategoryOther, other.Category)
	assert.Equal(t, enums.IssueTrendStable, other.Trend)
}

func TestClusterTicketsEmpty(t *testing.T) {
	res := ClusterTickets(nil, now)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Clusters)
}
