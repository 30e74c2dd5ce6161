package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATION - Reductions over filtered, annotated collections
// =============================================================================

// Sum adds value(r) over records.
func Sum[R any](records []R, value func(R) int) int {
	total := 0
	for _, r := range records {
		total += value(r)
	}
	return total
}

// Count counts records matching pred.
func Count[R any](records []R, pred func(R) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// Mean is an average that knows whether it had any samples.
type Mean struct {
	Value   decimal.Decimal
	Samples int
	Defined bool
}

// Rounded is the mean to whole units; 0 when undefined.
func (m Mean) Rounded() int64 {
	if !m.Defined {
		return 0
	}
	return m.Value.Round(0).IntPart()
}

// MeanOf averages the defined values, skipping undefined ones.
func MeanOf[R any](records []R, value func(R) (int, bool)) Mean {
	sum := decimal.Zero
	n := 0
	for _, r := range records {
		v, ok := value(r)
		if !ok {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(int64(v)))
		n++
	}
	if n == 0 {
		return Mean{}
	}
	return Mean{Value: sum.Div(decimal.NewFromInt(int64(n))), Samples: n, Defined: true}
}

// MeanCoverage averages the defined coverage durations.
func MeanCoverage[R any](annotated []Annotated[R]) Mean {
	return MeanOf(annotated, func(a Annotated[R]) (int, bool) { return a.Days, a.Defined })
}

// Percent is part/whole*100 rounded to places. ok is false when whole is zero.
func Percent(part, whole int64, places int32) (decimal.Decimal, bool) {
	if whole == 0 {
		return decimal.Zero, false
	}
	p := decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(whole))
	return p.Round(places), true
}

// DeltaPercent is (value-baseline)/baseline*100.
func DeltaPercent(value, baseline int64, places int32) (decimal.Decimal, bool) {
	return Percent(value-baseline, baseline, places)
}

// =============================================================================
// BUCKETS
// =============================================================================

// Bucket is one group of a grouped sum.
type Bucket struct {
	Key     string
	Value   int
	Percent decimal.Decimal
}

// GroupSum sums value(r) per key(r), sorted by value desc then key asc.
func GroupSum[R any](records []R, key func(R) string, value func(R) int) []Bucket {
	totals := make(map[string]int)
	var order []string
	for _, r := range records {
		k := key(r)
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		totals[k] += value(r)
	}
	out := make([]Bucket, 0, len(order))
	for _, k := range order {
		out = append(out, Bucket{Key: k, Value: totals[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// TopN keeps the first n buckets (all of them when n <= 0).
func TopN(buckets []Bucket, n int) []Bucket {
	if n <= 0 || n >= len(buckets) {
		return append([]Bucket(nil), buckets...)
	}
	return append([]Bucket(nil), buckets[:n]...)
}

// WithPercentages fills Percent as the share of the buckets' own total.
func WithPercentages(buckets []Bucket, places int32) []Bucket {
	total := 0
	for _, b := range buckets {
		total += b.Value
	}
	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		b.Percent, _ = Percent(int64(b.Value), int64(total), places)
		out[i] = b
	}
	return out
}

// MonthTotal is one point of a month series.
type MonthTotal struct {
	Month time.Month
	Value int
}

// MonthSeries sums value(r) by the month of field(r), for all twelve months
// in calendar order. Records without a date are skipped.
func MonthSeries[R any](records []R, field DateField[R], value func(R) int) []MonthTotal {
	series := make([]MonthTotal, 12)
	for i := range series {
		series[i].Month = time.Month(i + 1)
	}
	for _, r := range records {
		d, ok := field(r)
		if !ok {
			continue
		}
		series[d.Month()-1].Value += value(r)
	}
	return series
}

// Years collects the year of field(r) for every dated record.
func Years[R any](records []R, field DateField[R]) []int {
	var out []int
	for _, r := range records {
		if d, ok := field(r); ok {
			out = append(out, d.Year())
		}
	}
	return out
}
