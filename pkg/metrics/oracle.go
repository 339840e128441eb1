package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OracleMetrics tracks calls to the text-generation provider.
type OracleMetrics struct {
	calls    *prometheus.CounterVec
	latency  prometheus.Histogram
	breaker  prometheus.Gauge
	fallback *prometheus.CounterVec
}

// NewOracleMetrics registers oracle metrics on the provided registerer.
func NewOracleMetrics(reg prometheus.Registerer) *OracleMetrics {
	if reg == nil {
		return &OracleMetrics{}
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "oracle_calls_total",
		Help:      "Oracle generation calls by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "oracle_call_duration_seconds",
		Help:      "Latency of oracle generation calls, including retries.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	})
	breaker := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "oracle_breaker_open",
		Help:      "1 while the oracle circuit breaker is open or half-open.",
	})
	fallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "oracle_fallback_total",
		Help:      "Times a deterministic fallback replaced oracle output, by feature.",
	}, []string{"feature"})
	reg.MustRegister(calls, latency, breaker, fallback)
	return &OracleMetrics{
		calls:    calls,
		latency:  latency,
		breaker:  breaker,
		fallback: fallback,
	}
}

// ObserveCall records one oracle call outcome (ok, error, rejected).
func (m *OracleMetrics) ObserveCall(outcome string, took time.Duration) {
	if m == nil || m.calls == nil {
		return
	}
	m.calls.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.latency.Observe(took.Seconds())
}

// SetBreakerOpen flips the breaker gauge.
func (m *OracleMetrics) SetBreakerOpen(open bool) {
	if m == nil || m.breaker == nil {
		return
	}
	if open {
		m.breaker.Set(1)
		return
	}
	m.breaker.Set(0)
}

// IncFallback counts a fallback to the rule-based path.
func (m *OracleMetrics) IncFallback(feature string) {
	if m == nil || m.fallback == nil {
		return
	}
	m.fallback.WithLabelValues(normalizeLabel(feature)).Inc()
}
