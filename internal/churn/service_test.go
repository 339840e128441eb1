package churn

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	"github.com/angelmondragon/healthpulse-backend/pkg/metrics"
)

func TestServiceDetectsMappingAndUsesLiveThresholds(t *testing.T) {
	store := NewThresholdStore(DefaultThresholds())
	svc := NewService(ServiceParams{
		Thresholds: store,
		Metrics:    metrics.NewScoringMetrics(prometheus.NewRegistry()),
		Now:        func() time.Time { return now },
	})

	req := BatchRequest{Rows: []Row{{"customer_id": "c1", "days_inactive": 35, "health_score": 35, "nps": 2}}}
	first := svc.ScoreBatch(context.Background(), req)
	require.Len(t, first.Scores, 1)
	assert.Equal(t, enums.RiskLevelCritical, first.Scores[0].RiskLevel)
	assert.Equal(t, "days_inactive", first.Mapping.DaysInactive)

	raised := DefaultThresholds()
	raised.CriticalRisk = 95
	svc.ReplaceThresholds(context.Background(), raised)

	second := svc.ScoreBatch(context.Background(), req)
	assert.Equal(t, enums.RiskLevelHigh, second.Scores[0].RiskLevel)
	assert.Equal(t, 95.0, svc.Thresholds().CriticalRisk)
}
