package features

import (
	"math"
	"sort"
)

// Rolling helpers operate over trailing windows ending at each index with a
// minimum of one observation, so out[i] depends only on xs[:i+1].
// NaN marks an undefined value: it is skipped inside windows, and a window
// holding no defined value yields NaN.

// RollingMean returns the trailing mean over window bars.
func RollingMean(xs []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(xs))
	sum := 0.0
	count := 0
	for i, x := range xs {
		if !math.IsNaN(x) {
			sum += x
			count++
		}
		if i >= window {
			if old := xs[i-window]; !math.IsNaN(old) {
				sum -= old
				count--
			}
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}

// RollingMedian returns the trailing median over window bars.
// An even number of observations yields the mean of the two middle values.
func RollingMedian(xs []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(xs))
	buf := make([]float64, 0, window)
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		buf = buf[:0]
		for _, x := range xs[start : i+1] {
			if !math.IsNaN(x) {
				buf = append(buf, x)
			}
		}
		out[i] = median(buf)
	}
	return out
}

func median(buf []float64) float64 {
	n := len(buf)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(buf)
	if n%2 == 1 {
		return buf[n/2]
	}
	return (buf[n/2-1] + buf[n/2]) / 2
}

// RollingFraction returns the trailing share of true flags over window bars.
func RollingFraction(flags []bool, window int) []float64 {
	xs := make([]float64, len(flags))
	for i, f := range flags {
		if f {
			xs[i] = 1
		}
	}
	return RollingMean(xs, window)
}

// Diff returns xs[i] - xs[i-1]; the first element and any difference touching NaN are NaN.
func Diff(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i] - xs[i-1]
	}
	return out
}
