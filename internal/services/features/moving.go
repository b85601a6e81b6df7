package features

import (
	talib "github.com/markcheno/go-talib"
)

// MovingAverage returns the trailing simple mean of finite values with a minimum
// of one observation. talib leaves the first window-1 outputs at zero, so those
// bars take the expanding mean instead.
func MovingAverage(xs []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	n := len(xs)
	warm := min(window-1, n)
	out := make([]float64, n)
	copy(out, RollingMean(xs[:warm], window))
	if n < window {
		return out
	}
	sma := talib.Sma(xs, window)
	copy(out[warm:], sma[warm:])
	return out
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close and falls back to high-low.
func TrueRange(high, low, close []float64) []float64 {
	if len(high) == 0 {
		return []float64{}
	}
	out := talib.TRange(high, low, close)
	out[0] = high[0] - low[0]
	return out
}
