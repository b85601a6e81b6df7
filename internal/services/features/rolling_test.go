package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingMeanExpandsThenSlides(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2, 3, 4}, got, 1e-12)
}

func TestRollingMeanSkipsNaN(t *testing.T) {
	nan := math.NaN()
	got := RollingMean([]float64{nan, 2, nan, 4, nan, nan, nan}, 2)
	require.Len(t, got, 7)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 2.0, got[1])
	assert.Equal(t, 2.0, got[2])
	assert.Equal(t, 4.0, got[3])
	assert.Equal(t, 4.0, got[4])
	assert.True(t, math.IsNaN(got[5]))
	assert.True(t, math.IsNaN(got[6]))
}

func TestRollingMedian(t *testing.T) {
	got := RollingMedian([]float64{5, 1, 3, 10, 2}, 4)
	// windows: [5] [5 1] [5 1 3] [5 1 3 10] [1 3 10 2]
	assert.Equal(t, []float64{5, 3, 3, 4, 2.5}, got)
}

func TestRollingMedianDoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 2, 1}
	RollingMedian(xs, 3)
	assert.Equal(t, []float64{3, 2, 1}, xs)
}

func TestRollingFraction(t *testing.T) {
	got := RollingFraction([]bool{true, false, true, true}, 2)
	assert.Equal(t, []float64{1, 0.5, 0.5, 1}, got)
}

func TestDiff(t *testing.T) {
	got := Diff([]float64{1, 3, math.NaN(), 2})
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 2.0, got[1])
	assert.True(t, math.IsNaN(got[2]))
	assert.True(t, math.IsNaN(got[3]))
}

func TestZeroWindowTreatedAsOne(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, RollingMean([]float64{1, 2}, 0))
	assert.Equal(t, []float64{1, 2}, RollingMedian([]float64{1, 2}, -3))
}
