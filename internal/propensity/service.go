package propensity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/healthpulse-backend/internal/customers"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
)

const (
	scoreKind          = "propensity"
	defaultConcurrency = 5
	defaultCacheTTL    = 24 * time.Hour
	topOpportunities   = 5
)

// Cache is the score cache. Entries are last-write-wins.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ScoreKey(kind, customerID string) string
}

// Band is one bucket of the score distribution. Max is exclusive except
// for the last band.
type Band struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

type BatchFailure struct {
	CustomerID string `json:"customer_id"`
	Error      string `json:"error"`
}

type BatchResult struct {
	Scores       []Score        `json:"scores"`
	Failed       []BatchFailure `json:"failed"`
	Distribution []Band         `json:"distribution"`
	AverageScore float64        `json:"average_score"`
}

type PortfolioSummary struct {
	Customers           int             `json:"customers"`
	AverageScore        float64         `json:"average_score"`
	Distribution        []Band          `json:"distribution"`
	ByConfidence        map[string]int  `json:"by_confidence"`
	TotalEstimatedValue decimal.Decimal `json:"total_estimated_value"`
	TopOpportunities    []Score         `json:"top_opportunities"`
	Failed              []BatchFailure  `json:"failed"`
}

// Service scores stored customers, caching results per customer.
type Service interface {
	Score(ctx context.Context, customerID string, refresh bool) (Score, error)
	ScoreSnapshot(ctx context.Context, snap customers.Snapshot) Score
	ScoreBatch(ctx context.Context, customerIDs []string, refresh bool) (BatchResult, error)
	Portfolio(ctx context.Context, customerIDs []string) (PortfolioSummary, error)
}

type ServiceParams struct {
	Store       customers.Store
	Cache       Cache
	Enricher    *Enricher
	Metrics     *metrics.ScoringMetrics
	Logger      *logger.Logger
	CacheTTL    time.Duration
	Concurrency int
	Now         func() time.Time
}

type service struct {
	store       customers.Store
	cache       Cache
	enricher    *Enricher
	metrics     *metrics.ScoringMetrics
	logg        *logger.Logger
	scorer      *Scorer
	ttl         time.Duration
	concurrency int
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("customer store required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.CacheTTL <= 0 {
		params.CacheTTL = defaultCacheTTL
	}
	if params.Concurrency <= 0 {
		params.Concurrency = defaultConcurrency
	}
	return &service{
		store:       params.Store,
		cache:       params.Cache,
		enricher:    params.Enricher,
		metrics:     params.Metrics,
		logg:        params.Logger,
		scorer:      NewScorer(params.Now),
		ttl:         params.CacheTTL,
		concurrency: params.Concurrency,
		now:         params.Now,
	}, nil
}

func (s *service) Score(ctx context.Context, customerID string, refresh bool) (Score, error) {
	ctx = s.logg.WithCustomerID(ctx, customerID)
	if !refresh {
		if cached, ok := s.cached(ctx, customerID); ok {
			return cached, nil
		}
	}

	snap, err := s.store.GetSnapshot(ctx, customerID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return Score{}, err
		}
		return Score{}, pkgerrors.Unavailable(err, "load customer")
	}
	score := s.ScoreSnapshot(ctx, snap)
	s.remember(ctx, customerID, score)
	return score, nil
}

func (s *service) ScoreSnapshot(ctx context.Context, snap customers.Snapshot) Score {
	started := s.now()
	score := s.scorer.Score(snap)
	if s.enricher != nil {
		score = s.enricher.Enrich(ctx, snap, score)
	}
	if s.metrics != nil {
		s.metrics.ObserveScore(scoreKind, float64(score.PropensityScore), s.now().Sub(started))
	}
	return score
}

func (s *service) ScoreBatch(ctx context.Context, customerIDs []string, refresh bool) (BatchResult, error) {
	if s.metrics != nil {
		s.metrics.ObserveBatch(scoreKind, len(customerIDs))
	}

	results := make([]*Score, len(customerIDs))
	var (
		mu     sync.Mutex
		failed []BatchFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range customerIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := s.Score(gctx, id, refresh)
			if err != nil {
				mu.Lock()
				failed = append(failed, BatchFailure{CustomerID: id, Error: publicMessage(err)})
				mu.Unlock()
				return nil
			}
			results[i] = &score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{Scores: []Score{}, Failed: []BatchFailure{}}
	for _, r := range results {
		if r != nil {
			out.Scores = append(out.Scores, *r)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].CustomerID < failed[j].CustomerID })
	out.Failed = append(out.Failed, failed...)
	out.Distribution = Distribution(out.Scores)
	out.AverageScore = average(out.Scores)
	return out, nil
}

func (s *service) Portfolio(ctx context.Context, customerIDs []string) (PortfolioSummary, error) {
	if len(customerIDs) == 0 {
		ids, err := s.store.ListCustomerIDs(ctx)
		if err != nil {
			return PortfolioSummary{}, pkgerrors.Unavailable(err, "list customers")
		}
		customerIDs = ids
	}
	batch, err := s.ScoreBatch(ctx, customerIDs, false)
	if err != nil {
		return PortfolioSummary{}, err
	}
	return Summarize(batch), nil
}

// Summarize rolls a batch up into portfolio figures.
func Summarize(batch BatchResult) PortfolioSummary {
	out := PortfolioSummary{
		Customers:           len(batch.Scores),
		AverageScore:        batch.AverageScore,
		Distribution:        batch.Distribution,
		ByConfidence:        map[string]int{},
		TotalEstimatedValue: decimal.Zero,
		TopOpportunities:    []Score{},
		Failed:              batch.Failed,
	}
	for _, sc := range batch.Scores {
		out.ByConfidence[sc.Confidence.String()]++
		out.TotalEstimatedValue = out.TotalEstimatedValue.Add(sc.EstimatedValue)
	}
	ranked := append([]Score(nil), batch.Scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].PropensityScore != ranked[j].PropensityScore {
			return ranked[i].PropensityScore > ranked[j].PropensityScore
		}
		return ranked[i].EstimatedValue.GreaterThan(ranked[j].EstimatedValue)
	})
	if len(ranked) > topOpportunities {
		ranked = ranked[:topOpportunities]
	}
	out.TopOpportunities = append(out.TopOpportunities, ranked...)
	return out
}

// Distribution counts scores across the five 20-point bands.
func Distribution(scores []Score) []Band {
	bands := []Band{
		{Label: "0-20", Min: 0, Max: 20},
		{Label: "20-40", Min: 20, Max: 40},
		{Label: "40-60", Min: 40, Max: 60},
		{Label: "60-80", Min: 60, Max: 80},
		{Label: "80-100", Min: 80, Max: 100},
	}
	for _, sc := range scores {
		idx := min(sc.PropensityScore/20, len(bands)-1)
		bands[max(0, idx)].Count++
	}
	return bands
}

func average(scores []Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, sc := range scores {
		sum += sc.PropensityScore
	}
	return float64(sum*10/len(scores)) / 10
}

func (s *service) cached(ctx context.Context, customerID string) (Score, bool) {
	if s.cache == nil {
		return Score{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.ScoreKey(scoreKind, customerID))
	if err != nil || raw == "" {
		s.countCache("miss")
		return Score{}, false
	}
	var score Score
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		s.logg.WarnErr(ctx, "discarding unreadable cached propensity score", err)
		s.countCache("miss")
		return Score{}, false
	}
	if s.now().Sub(score.CalculatedAt) > s.ttl {
		s.countCache("stale")
		return Score{}, false
	}
	s.countCache("hit")
	return score, true
}

func (s *service) remember(ctx context.Context, customerID string, score Score) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(score)
	if err != nil {
		s.logg.WarnErr(ctx, "encode propensity score for cache", err)
		return
	}
	if err := s.cache.Set(ctx, s.cache.ScoreKey(scoreKind, customerID), string(raw), s.ttl); err != nil {
		s.logg.WarnErr(ctx, "cache propensity score", err)
	}
}

func (s *service) countCache(result string) {
	if s.metrics != nil {
		s.metrics.IncCache(scoreKind, result)
	}
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "analysis unavailable"
}
