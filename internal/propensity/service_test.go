package propensity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
	"github.com/angelmondragon/healthpulse-backend/pkg/oracle"
)

type fakeStore struct {
	snapshots map[string]customers.Snapshot
	failIDs   map[string]bool
	loads     atomic.Int32
	inFlight  atomic.Int32
	peak      atomic.Int32
}

func (f *fakeStore) GetSnapshot(_ context.Context, id string) (customers.Snapshot, error) {
	f.loads.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	if f.failIDs[id] {
		return customers.Snapshot{}, errors.New("connection reset")
	}
	snap, ok := f.snapshots[id]
	if !ok {
		return customers.Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return snap, nil
}

func (f *fakeStore) GetTimeSeries(context.Context, string, string, timeseries.Range) ([]timeseries.Point, error) {
	return nil, nil
}

func (f *fakeStore) ListCustomerIDs(context.Context) ([]string, error) {
	ids := []string{}
	for id := range f.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryCache) ScoreKey(kind, id string) string { return kind + ":" + id }

func newStore(n int) *fakeStore {
	store := &fakeStore{snapshots: map[string]customers.Snapshot{}, failIDs: map[string]bool{}}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("c%02d", i)
		store.snapshots[id] = customers.NewSnapshot(id, customers.Attributes{
			ARR:           float64(10000 * (i + 1)),
			UsageCapacity: ptr(float64(i * 10 % 100)),
		}, now)
	}
	return store
}

func newTestService(t *testing.T, store *fakeStore, cache Cache, clock *time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:   store,
		Cache:   cache,
		Metrics: metrics.NewScoringMetrics(prometheus.NewRegistry()),
		Now:     func() time.Time { return *clock },
	})
	require.NoError(t, err)
	return svc
}

func TestServiceScoreUsesCacheUntilStale(t *testing.T) {
	store := newStore(1)
	cache := &memoryCache{data: map[string]string{}}
	clock := now
	svc := newTestService(t, store, cache, &clock)

	first, err := svc.Score(context.Background(), "c00", false)
	require.NoError(t, err)
	_, err = svc.Score(context.Background(), "c00", false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.loads.Load())

	_, err = svc.Score(context.Background(), "c00", true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.loads.Load())

	clock = now.Add(25 * time.Hour)
	again, err := svc.Score(context.Background(), "c00", false)
	require.NoError(t, err)
	assert.Equal(t, int32(3), store.loads.Load())
	assert.Equal(t, first.PropensityScore, again.PropensityScore)
}

func TestServiceScoreStoreFailureIsUnavailable(t *testing.T) {
	store := newStore(1)
	store.failIDs["c00"] = true
	clock := now
	_, err := newTestService(t, store, nil, &clock).Score(context.Background(), "c00", false)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestServiceBatchBoundedConcurrency(t *testing.T) {
	store := newStore(20)
	store.failIDs["c03"] = true
	clock := now
	svc := newTestService(t, store, nil, &clock)

	ids := []string{}
	for i := 0; i < 20; i++ {
		ids = append(ids, fmt.Sprintf("c%02d", i))
	}
	ids = append(ids, "ghost")

	out, err := svc.ScoreBatch(context.Background(), ids, false)
	require.NoError(t, err)
	assert.Len(t, out.Scores, 19)
	require.Len(t, out.Failed, 2)
	assert.Equal(t, "c03", out.Failed[0].CustomerID)
	assert.Equal(t, "ghost", out.Failed[1].CustomerID)
	assert.LessOrEqual(t, store.peak.Load(), int32(defaultConcurrency))

	total := 0
	for _, b := range out.Distribution {
		total += b.Count
	}
	assert.Equal(t, 19, total)
	assert.Len(t, out.Distribution, 5)
}

func TestServicePortfolioSummarizes(t *testing.T) {
	store := newStore(7)
	clock := now
	out, err := newTestService(t, store, nil, &clock).Portfolio(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 7, out.Customers)
	assert.Len(t, out.TopOpportunities, topOpportunities)
	assert.True(t, out.TotalEstimatedValue.IsPositive())
	for i := 1; i < len(out.TopOpportunities); i++ {
		assert.GreaterOrEqual(t, out.TopOpportunities[i-1].PropensityScore, out.TopOpportunities[i].PropensityScore)
	}
}

func TestDistributionBands(t *testing.T) {
	bands := Distribution([]Score{{PropensityScore: 0}, {PropensityScore: 19}, {PropensityScore: 20}, {PropensityScore: 100}})
	assert.Equal(t, 2, bands[0].Count)
	assert.Equal(t, 1, bands[1].Count)
	assert.Equal(t, 1, bands[4].Count)
}

func TestEnricherMergesOracleAdvice(t *testing.T) {
	gen := oracle.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "Sure!\n```json\n{\"products\":[{\"product\":\"seat_expansion\",\"name\":\"dup\"},{\"product\":\"Analytics Pack\",\"name\":\"Analytics Pack\",\"rationale\":\"heavy reporting\"}],\"approach\":\"Lead with the QBR.\",\"talking_points\":[\"Seats are full\"]}\n```", nil
	})
	enricher := NewEnricher(gen, nil, nil)
	snap := capacityCustomer()
	base := fixedScorer().Score(snap)

	out := enricher.Enrich(context.Background(), snap, base)

	assert.Equal(t, SourceOracle, out.Source)
	assert.Equal(t, "Lead with the QBR.", out.Approach)
	assert.Equal(t, []string{"Seats are full"}, out.TalkingPoints)
	assert.Len(t, out.RecommendedProducts, len(base.RecommendedProducts)+1)
	assert.Equal(t, "analytics pack", out.RecommendedProducts[len(out.RecommendedProducts)-1].Product)
}

func TestEnricherFallsBackOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	om := metrics.NewOracleMetrics(reg)
	snap := capacityCustomer()
	base := fixedScorer().Score(snap)

	for name, gen := range map[string]oracle.Generator{
		"noop":    oracle.Noop{},
		"garbage": oracle.GeneratorFunc(func(context.Context, string, string) (string, error) { return "no json here", nil }),
	} {
		t.Run(name, func(t *testing.T) {
			out := NewEnricher(gen, om, nil).Enrich(context.Background(), snap, base)
			assert.Equal(t, base, out)
			assert.NotEmpty(t, out.RecommendedProducts)
		})
	}
}
