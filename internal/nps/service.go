package nps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
	"github.com/angelmondragon/healthpulse-backend/pkg/oracle"
)

const (
	scorerName            = "nps"
	defaultConcurrency    = 5
	sentimentSystemPrompt = "You classify customer feedback sentiment. Reply with a single JSON object and nothing else."
)

type oracleSentiment struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

type Service interface {
	Analyze(ctx context.Context, responses []Response) (Report, error)
}

type ServiceParams struct {
	Oracle        oracle.Generator
	OracleMetrics *metrics.OracleMetrics
	Metrics       *metrics.ScoringMetrics
	Logger        *logger.Logger
	Concurrency   int
}

type service struct {
	gen           oracle.Generator
	oracleMetrics *metrics.OracleMetrics
	metrics       *metrics.ScoringMetrics
	logg          *logger.Logger
	concurrency   int
}

func NewService(params ServiceParams) Service {
	if params.Oracle == nil {
		params.Oracle = oracle.Noop{}
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Concurrency <= 0 {
		params.Concurrency = defaultConcurrency
	}
	return &service{
		gen:           params.Oracle,
		oracleMetrics: params.OracleMetrics,
		metrics:       params.Metrics,
		logg:          params.Logger,
		concurrency:   params.Concurrency,
	}
}

// Analyze classifies every response, asking the oracle for sentiment where
// a comment exists but no sentiment was supplied, and aggregates the
// result. Oracle failures fall back to score-derived sentiment per response.
func (s *service) Analyze(ctx context.Context, responses []Response) (Report, error) {
	start := time.Now()
	classified := make([]Classified, len(responses))
	_, oracleOff := s.gen.(oracle.Noop)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, r := range responses {
		c := Classify(r)
		classified[i] = c
		if oracleOff || c.SentimentSource != SourceScore || strings.TrimSpace(r.Comment) == "" {
			continue
		}
		g.Go(func() error {
			classified[i] = s.fillSentiment(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Correlate(classified)
	s.metrics.ObserveBatch(scorerName, len(responses))
	s.metrics.ObserveScore(scorerName, report.NPS, time.Since(start))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"responses":  report.Total,
		"skipped":    report.Skipped,
		"mismatches": report.Correlation.MismatchCount,
	}), "nps responses analyzed")
	return report, nil
}

func (s *service) fillSentiment(ctx context.Context, c Classified) Classified {
	ctx = s.logg.WithCustomerID(ctx, c.CustomerID)
	prompt := fmt.Sprintf(
		"NPS score: %d\nComment: %q\n"+
			`Classify the comment sentiment. Respond as {"sentiment":"positive|neutral|negative","score":-1.0..1.0}.`,
		c.Score, c.Comment,
	)
	text, err := s.gen.Generate(ctx, prompt, sentimentSystemPrompt)
	if err != nil {
		s.fallback(ctx, "oracle unavailable, deriving sentiment from score", err)
		return c
	}
	res := oracle.Decode[oracleSentiment](text)
	if !res.Ok() {
		s.fallback(ctx, "oracle sentiment unusable, deriving sentiment from score", res.Err)
		return c
	}
	sentiment, err := enums.ParseSentiment(strings.ToLower(strings.TrimSpace(res.Value.Sentiment)))
	if err != nil {
		s.fallback(ctx, "oracle sentiment unknown, deriving sentiment from score", err)
		return c
	}
	c.Sentiment = sentiment
	c.SentimentScore = clampUnit(res.Value.Score)
	c.SentimentSource = SourceOracle
	c.HasScoreMismatch = HasScoreMismatch(c.Category, c.Sentiment)
	return c
}

func (s *service) fallback(ctx context.Context, msg string, err error) {
	s.oracleMetrics.IncFallback("nps_sentiment")
	s.logg.WarnErr(ctx, msg, err)
}
