package churn

import (
	"context"
	"time"

	"github.com/angelmondragon/healthpulse-backend/pkg/logger"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
)

// BatchRequest carries the rows to score. A zero mapping is detected from
// the rows' column names.
type BatchRequest struct {
	Rows    []Row         `json:"rows" validate:"required,min=1,max=5000"`
	Mapping ColumnMapping `json:"mapping"`
}

// Service scores churn batches against the live thresholds.
type Service interface {
	ScoreBatch(ctx context.Context, req BatchRequest) BatchResult
	Thresholds() Thresholds
	ReplaceThresholds(ctx context.Context, next Thresholds) Thresholds
}

type ServiceParams struct {
	Thresholds *ThresholdStore
	Metrics    *metrics.ScoringMetrics
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	thresholds *ThresholdStore
	metrics    *metrics.ScoringMetrics
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) Service {
	if params.Thresholds == nil {
		params.Thresholds = NewThresholdStore(DefaultThresholds())
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		thresholds: params.Thresholds,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        params.Now,
	}
}

func (s *service) ScoreBatch(ctx context.Context, req BatchRequest) BatchResult {
	started := s.now()
	mapping := req.Mapping
	if mapping.IsZero() {
		mapping = MappingForRows(req.Rows)
	}

	scorer := NewScorer(s.thresholds.Get(), mapping, started.UTC())
	result := scorer.ScoreBatch(req.Rows)

	if s.metrics != nil {
		s.metrics.ObserveBatch("churn", len(req.Rows))
		took := s.now().Sub(started)
		for _, score := range result.Scores {
			s.metrics.ObserveScore("churn", score.RiskScore, took/time.Duration(max(1, len(result.Scores))))
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"rows":          len(req.Rows),
		"patterns":      len(result.Patterns),
		"average_score": result.Summary.AverageScore,
	}), "churn batch scored")
	return result
}

func (s *service) Thresholds() Thresholds {
	return s.thresholds.Get()
}

func (s *service) ReplaceThresholds(ctx context.Context, next Thresholds) Thresholds {
	s.thresholds.Replace(next)
	s.logg.Info(s.logg.WithField(ctx, "thresholds", next), "churn thresholds replaced")
	return next
}
