package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScoringMetrics tracks scorer throughput, latency and cache efficiency.
type ScoringMetrics struct {
	duration *prometheus.HistogramVec
	scores   *prometheus.HistogramVec
	cache    *prometheus.CounterVec
	batch    *prometheus.HistogramVec
}

// NewScoringMetrics registers scoring metrics on the provided registerer.
func NewScoringMetrics(reg prometheus.Registerer) *ScoringMetrics {
	if reg == nil {
		return &ScoringMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scoring_duration_seconds",
		Help:      "Time spent computing a score, by scorer.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scorer"})
	scores := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "score_value",
		Help:      "Distribution of emitted 0-100 scores, by scorer.",
		Buckets:   []float64{20, 40, 60, 80, 100},
	}, []string{"scorer"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "score_cache_total",
		Help:      "Score cache lookups by result (hit, miss, error).",
	}, []string{"scorer", "result"})
	batch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scoring_batch_size",
		Help:      "Number of rows or customers processed per batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
	}, []string{"scorer"})
	reg.MustRegister(duration, scores, cache, batch)
	return &ScoringMetrics{
		duration: duration,
		scores:   scores,
		cache:    cache,
		batch:    batch,
	}
}

// ObserveScore records the duration and value of one computed score.
func (m *ScoringMetrics) ObserveScore(scorer string, value float64, took time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	label := normalizeLabel(scorer)
	m.duration.WithLabelValues(label).Observe(took.Seconds())
	m.scores.WithLabelValues(label).Observe(value)
}

// ObserveBatch records the size of a batch run.
func (m *ScoringMetrics) ObserveBatch(scorer string, size int) {
	if m == nil || m.batch == nil {
		return
	}
	m.batch.WithLabelValues(normalizeLabel(scorer)).Observe(float64(size))
}

// IncCache counts a cache lookup result.
func (m *ScoringMetrics) IncCache(scorer, result string) {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues(normalizeLabel(scorer), normalizeLabel(result)).Inc()
}
