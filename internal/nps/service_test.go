package nps

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	"github.com/angelmondragon/healthpulse-backend/pkg/oracle"
)

func TestAnalyzeFillsSentimentFromOracle(t *testing.T) {
	var calls atomic.Int32
	gen := oracle.GeneratorFunc(func(_ context.Context, prompt, _ string) (string, error) {
		calls.Add(1)
		if strings.Contains(prompt, "slow") {
			return `{"sentiment":"negative","score":-0.7}`, nil
		}
		return "not json", nil
	})
	svc := NewService(ServiceParams{Oracle: gen, Concurrency: 2})

	report, err := svc.Analyze(context.Background(), []Response{
		{ID: "a", CustomerID: "c1", Score: 9, Comment: "Love it but the app is slow"},
		{ID: "b", CustomerID: "c2", Score: 3, Comment: "meh"},
		{ID: "c", CustomerID: "c3", Score: 8},
		{ID: "d", CustomerID: "c4", Score: 10, Comment: "great", Sentiment: ptr(enums.SentimentPositive)},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 4, report.Total)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "a", report.Mismatches[0].ID)
	assert.Equal(t, SourceOracle, report.Mismatches[0].SentimentSource)
	assert.Equal(t, -0.7, report.Mismatches[0].SentimentScore)
}

func TestAnalyzeWithoutOracleUsesScore(t *testing.T) {
	svc := NewService(ServiceParams{Oracle: oracle.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("boom")
	})})
	report, err := svc.Analyze(context.Background(), []Response{
		{ID: "a", CustomerID: "c1", Score: 1, Comment: "broken"},
	})
	require.NoError(t, err)
	require.Len(t, report.Detractors, 1)
	assert.Equal(t, SourceScore, report.Detractors[0].SentimentSource)
	assert.False(t, report.Detractors[0].HasScoreMismatch)
}
