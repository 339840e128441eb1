package timeseries

import (
	"sort"
	"strings"
	"time"
)

// Point is one observation of a metric on a calendar date.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// AggregateMode decides how duplicate dates collapse.
type AggregateMode int

const (
	// AggregateSum adds values that share a date (ARR, ticket counts).
	AggregateSum AggregateMode = iota
	// AggregateMean averages values that share a date (scores).
	AggregateMean
)

// Sorted returns a copy of points ordered by date ascending. Ties keep
// their input order.
func Sorted(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Values projects the values of points in their current order.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// Aggregate collapses points sharing a calendar day.
func Aggregate(points []Point, mode AggregateMode) []Point {
	return aggregateBy(points, mode, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	})
}

// AggregateByMonth collapses points into one per calendar month, dated on
// the first of the month.
func AggregateByMonth(points []Point, mode AggregateMode) []Point {
	return aggregateBy(points, mode, MonthStart)
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves t by n calendar months, clamping the day to the last day
// of the target month so Jan 31 + 1 lands on Feb 28/29.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// Measure describes what a metric's values represent, which decides how
// values are combined on a day and across a month.
type Measure string

const (
	// MeasureLevel is a balance sampled over time (ARR). Rows on one day
	// add up; a month is the average of its snapshots.
	MeasureLevel Measure = "level"
	// MeasureScore is a bounded score (health, NPS). Always averaged.
	MeasureScore Measure = "score"
	// MeasureFlow counts events in a period (tickets, logins). Always summed.
	MeasureFlow Measure = "flow"
)

// IsValid reports whether m is a known measure.
func (m Measure) IsValid() bool {
	switch m {
	case MeasureLevel, MeasureScore, MeasureFlow:
		return true
	}
	return false
}

// DailyMode is how values sharing a date collapse.
func (m Measure) DailyMode() AggregateMode {
	if m == MeasureScore {
		return AggregateMean
	}
	return AggregateSum
}

// MonthlyMode is how a month of daily values collapses.
func (m Measure) MonthlyMode() AggregateMode {
	if m == MeasureFlow {
		return AggregateSum
	}
	return AggregateMean
}

// MeasureForMetric guesses the measure from a metric name, defaulting to
// level.
func MeasureForMetric(metric string) Measure {
	name := strings.ToLower(metric)
	for _, hint := range []string{"score", "health", "nps", "csat", "rating"} {
		if strings.Contains(name, hint) {
			return MeasureScore
		}
	}
	for _, hint := range []string{"ticket", "count", "login", "event", "session"} {
		if strings.Contains(name, hint) {
			return MeasureFlow
		}
	}
	return MeasureLevel
}

func aggregateBy(points []Point, mode AggregateMode, key func(time.Time) time.Time) []Point {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := map[time.Time]*bucket{}
	order := []time.Time{}
	for _, p := range points {
		k := key(p.Date)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
			order = append(order, k)
		}
		b.sum += p.Value
		b.count++
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := make([]Point, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		v := b.sum
		if mode == AggregateMean {
			v = b.sum / float64(b.count)
		}
		out = append(out, Point{Date: k, Value: v})
	}
	return out
}

// Range bounds a series query. A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range, inclusive on both ends.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}
