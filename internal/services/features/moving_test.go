package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverageWarmUpThenFullWindow(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5, 6}, 3)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2, 3, 4, 5}, got, 1e-12)
}

func TestMovingAverageShorterThanWindow(t *testing.T) {
	got := MovingAverage([]float64{4, 6}, 5)
	assert.InDeltaSlice(t, []float64{4, 5}, got, 1e-12)
	assert.Empty(t, MovingAverage(nil, 5))
}

func TestMovingAverageMatchesRollingMean(t *testing.T) {
	xs := make([]float64, 80)
	for i := range xs {
		xs[i] = 100 + math.Sin(float64(i)/3)*7
	}
	for _, w := range []int{1, 5, 20, 50} {
		assert.InDeltaSlice(t, RollingMean(xs, w), MovingAverage(xs, w), 1e-9, "window %d", w)
	}
}

func TestTrueRange(t *testing.T) {
	high := []float64{10, 12, 11, 10}
	low := []float64{9, 11, 7, 8}
	closes := []float64{9.5, 11.5, 8, 9}
	got := TrueRange(high, low, closes)
	// bar 0 has only high-low; |12-9.5| wins at 1, |7-11.5| at 2, 10-8 at 3
	require.Len(t, got, 4)
	assert.InDeltaSlice(t, []float64{1, 2.5, 4.5, 2}, got, 1e-12)
	assert.Empty(t, TrueRange(nil, nil, nil))
}
