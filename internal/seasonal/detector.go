// Package seasonal detects calendar seasonality in a metric series by
// comparing quarterly and monthly bucket averages against the overall mean.
package seasonal

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
)

const (
	// MinPoints is the shortest series the detector analyses.
	MinPoints           = 12
	monthlyMinPoints    = 24
	minDistinctQuarters = 4
	minDistinctMonths   = 10

	quarterObservationTarget = 6.0
	monthObservationTarget   = 2.0

	// SignificantConfidence is the confidence a pattern needs before it is
	// reported as significant or preferred as primary.
	SignificantConfidence = 60.0
)

// PeriodIndex is one bucket of a pattern. Index 100 means the bucket
// averages exactly the overall mean.
type PeriodIndex struct {
	Period       string  `json:"period"`
	Index        float64 `json:"index"`
	Average      float64 `json:"average"`
	Observations int     `json:"observations"`
}

// Pattern is one detected seasonal cycle of a metric, quarterly or monthly.
type Pattern struct {
	Metric           string                 `json:"metric"`
	Periodicity      enums.Periodicity      `json:"periodicity"`
	Strength         enums.SeasonalStrength `json:"strength"`
	PeakPeriod       string                 `json:"peak_period"`
	TroughPeriod     string                 `json:"trough_period"`
	Amplitude        float64                `json:"amplitude"`
	SeasonalityIndex []PeriodIndex          `json:"seasonality_index"`
	Confidence       float64                `json:"confidence"`
	Insights         []string               `json:"insights"`
}

// IndexFor returns the index of the bucket containing t, or 100 when the
// pattern has no such bucket.
func (p *Pattern) IndexFor(t time.Time) float64 {
	if p == nil {
		return 100
	}
	label := monthLabel(t)
	if p.Periodicity == enums.PeriodicityQuarterly {
		label = quarterLabel(t)
	}
	for _, idx := range p.SeasonalityIndex {
		if idx.Period == label {
			return idx.Index
		}
	}
	return 100
}

// Analysis is the detector result for one metric. PrimaryPattern is nil
// when no pattern was found.
type Analysis struct {
	HasSignificantSeasonality bool      `json:"has_significant_seasonality"`
	PrimaryPattern            *Pattern  `json:"primary_pattern"`
	AllPatterns               []Pattern `json:"all_patterns"`
	Recommendations           []string  `json:"recommendations"`
}

// ClassifyStrength maps an amplitude in index points to a strength tier.
func ClassifyStrength(amplitude float64) enums.SeasonalStrength {
	switch {
	case amplitude >= 30:
		return enums.SeasonalStrengthStrong
	case amplitude >= 15:
		return enums.SeasonalStrengthModerate
	case amplitude >= 5:
		return enums.SeasonalStrengthWeak
	default:
		return enums.SeasonalStrengthNone
	}
}

// Detector is stateless; the zero value is ready to use.
type Detector struct{}

// NewDetector returns a ready detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Analyze buckets points by quarter and, with enough history, by month.
// Sparse input never errors; it yields no patterns and a recommendation to
// collect more data.
func (d *Detector) Analyze(metric string, points []timeseries.Point) Analysis {
	if len(points) < MinPoints {
		return Analysis{
			AllPatterns: []Pattern{},
			Recommendations: []string{
				fmt.Sprintf("Collect at least %d months of %s history before relying on seasonal adjustments.", MinPoints, metric),
			},
		}
	}

	overall := timeseries.Mean(timeseries.Values(points))
	patterns := []Pattern{}

	if p := buildPattern(metric, enums.PeriodicityQuarterly, points, overall); p != nil {
		patterns = append(patterns, *p)
	}
	if len(points) >= monthlyMinPoints {
		if p := buildPattern(metric, enums.PeriodicityMonthly, points, overall); p != nil {
			patterns = append(patterns, *p)
		}
	}

	analysis := Analysis{AllPatterns: patterns}
	for _, p := range patterns {
		if p.Strength != enums.SeasonalStrengthNone && p.Confidence >= SignificantConfidence {
			analysis.HasSignificantSeasonality = true
		}
	}
	analysis.PrimaryPattern = selectPrimary(patterns)
	analysis.Recommendations = recommendations(metric, analysis)
	return analysis
}

func selectPrimary(patterns []Pattern) *Pattern {
	for i := range patterns {
		if patterns[i].Periodicity == enums.PeriodicityQuarterly && patterns[i].Confidence >= SignificantConfidence {
			p := patterns[i]
			return &p
		}
	}
	var best *Pattern
	for i := range patterns {
		if patterns[i].Strength == enums.SeasonalStrengthNone {
			continue
		}
		if best == nil || patterns[i].Confidence > best.Confidence {
			p := patterns[i]
			best = &p
		}
	}
	return best
}

type bucket struct {
	label  string
	order  int
	values []float64
}

func buildPattern(metric string, periodicity enums.Periodicity, points []timeseries.Point, overall float64) *Pattern {
	keyFn, target, minDistinct := quarterKey, quarterObservationTarget, minDistinctQuarters
	if periodicity == enums.PeriodicityMonthly {
		keyFn, target, minDistinct = monthKey, monthObservationTarget, minDistinctMonths
	}

	byKey := map[int]*bucket{}
	for _, p := range points {
		order, label := keyFn(p.Date)
		b, ok := byKey[order]
		if !ok {
			b = &bucket{label: label, order: order}
			byKey[order] = b
		}
		b.values = append(b.values, p.Value)
	}
	if len(byKey) < minDistinct {
		return nil
	}

	buckets := make([]*bucket, 0, len(byKey))
	for _, b := range byKey {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].order < buckets[j].order })

	index := make([]PeriodIndex, 0, len(buckets))
	var cvSum float64
	peak, trough := 0, 0
	for i, b := range buckets {
		avg := timeseries.Mean(b.values)
		idx := 100.0
		if overall != 0 {
			idx = math.Round(avg / overall * 100)
		}
		index = append(index, PeriodIndex{
			Period:       b.label,
			Index:        idx,
			Average:      timeseries.Round(avg, 2),
			Observations: len(b.values),
		})
		cvSum += timeseries.CoefficientOfVariation(b.values)
		if idx > index[peak].Index {
			peak = i
		}
		if idx < index[trough].Index {
			trough = i
		}
	}

	amplitude := index[peak].Index - index[trough].Index
	avgObs := float64(len(points)) / float64(len(buckets))
	adequacy := 50 * math.Min(1, avgObs/target)
	consistency := math.Max(0, 50*(1-cvSum/float64(len(buckets))))

	pattern := &Pattern{
		Metric:           metric,
		Periodicity:      periodicity,
		Strength:         ClassifyStrength(amplitude),
		PeakPeriod:       index[peak].Period,
		TroughPeriod:     index[trough].Period,
		Amplitude:        amplitude,
		SeasonalityIndex: index,
		Confidence:       timeseries.Round(math.Min(100, adequacy+consistency), 1),
	}
	pattern.Insights = insights(pattern, index[peak], index[trough])
	return pattern
}

func insights(p *Pattern, peak, trough PeriodIndex) []string {
	if p.Strength == enums.SeasonalStrengthNone {
		return []string{fmt.Sprintf("No meaningful %s variation in %s (amplitude %.0f points).", p.Periodicity, p.Metric, p.Amplitude)}
	}
	out := []string{
		fmt.Sprintf("%s peaks in %s at %.0f%% of average (%s %s pattern).", p.Metric, peak.Period, peak.Index, p.Strength, p.Periodicity),
		fmt.Sprintf("%s is the weakest period at %.0f%% of average.", trough.Period, trough.Index),
	}
	if p.Confidence < SignificantConfidence {
		out = append(out, fmt.Sprintf("Confidence is limited (%.0f/100); treat this pattern as indicative.", p.Confidence))
	}
	return out
}

func recommendations(metric string, a Analysis) []string {
	if len(a.AllPatterns) == 0 {
		return []string{fmt.Sprintf("History for %s does not cover enough distinct periods; keep collecting data.", metric)}
	}
	p := a.PrimaryPattern
	if p == nil || !a.HasSignificantSeasonality {
		return []string{fmt.Sprintf("No significant seasonality in %s; forecast on trend alone.", metric)}
	}
	out := []string{
		fmt.Sprintf("Apply %s seasonal indices when forecasting %s.", p.Periodicity, metric),
		fmt.Sprintf("Schedule expansion conversations ahead of the %s peak.", p.PeakPeriod),
		fmt.Sprintf("Increase check-ins before %s to offset the seasonal dip.", p.TroughPeriod),
	}
	if p.Strength == enums.SeasonalStrengthStrong {
		out = append(out, "Compare year-over-year rather than period-over-period to avoid false trend alarms.")
	}
	return out
}

func quarterKey(t time.Time) (int, string) {
	q := (int(t.Month())-1)/3 + 1
	return q, fmt.Sprintf("Q%d", q)
}

func monthKey(t time.Time) (int, string) {
	return int(t.Month()), monthLabel(t)
}

func quarterLabel(t time.Time) string {
	_, label := quarterKey(t)
	return label
}

func monthLabel(t time.Time) string {
	return t.Month().String()[:3]
}
