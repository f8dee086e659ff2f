package montecarlo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PercentileValue pairs a requested percentile with its interpolated value.
type PercentileValue struct {
	Percentile float64
	Value      float64
}

// MetricSummary is the statistical aggregation of one metric's values
// across every iteration of a Monte Carlo batch.
type MetricSummary struct {
	Name        string
	Mean        float64
	Variance    float64
	Min         float64
	Max         float64
	Percentiles []PercentileValue
}

// Percentile returns the interpolated value at percentile p (in [0,1]) over
// vs, which need not be pre-sorted. p is clamped to [0,1] and the
// interpolation index i = (len(vs)-1)*p is split into a floor/ceil pair
// blended by its fractional part.
func Percentile(vs []float64, p float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	i := float64(len(sorted)-1) * p
	lo := int(math.Floor(i))
	hi := int(math.Ceil(i))
	if lo == hi {
		return sorted[lo]
	}
	frac := i - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Summarize aggregates values into a MetricSummary, computing the
// interpolated value at each of percentiles (each in [0,1], sorted
// ascending in the result regardless of input order). Variance uses the
// sample (N-1) denominator and is 0 when there are fewer than 2 values.
func Summarize(name string, values []float64, percentiles []float64) MetricSummary {
	summary := MetricSummary{Name: name}
	n := len(values)
	if n == 0 {
		return summary
	}

	summary.Min, summary.Max = values[0], values[0]
	for _, v := range values {
		if v < summary.Min {
			summary.Min = v
		}
		if v > summary.Max {
			summary.Max = v
		}
	}
	summary.Mean = stat.Mean(values, nil)

	if n > 1 {
		summary.Variance = stat.Variance(values, nil)
	}

	sortedPercentiles := make([]float64, len(percentiles))
	copy(sortedPercentiles, percentiles)
	sort.Float64s(sortedPercentiles)

	summary.Percentiles = make([]PercentileValue, len(sortedPercentiles))
	for i, p := range sortedPercentiles {
		summary.Percentiles[i] = PercentileValue{Percentile: p, Value: Percentile(values, p)}
	}
	return summary
}
