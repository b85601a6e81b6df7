package indicators

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AMDScope/internal/domain/models"
)

var t0 = time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)

func bar(i int, o, h, l, c, v float64) models.Bar {
	return models.Bar{Time: t0.Add(time.Duration(i) * 5 * time.Minute), Open: o, High: h, Low: l, Close: c, Volume: v}
}

func flatSeries(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = bar(i, c, c+1, c-1, c, 1000)
	}
	return bars
}

func TestComputeSingleBar(t *testing.T) {
	out, err := NewEngine().Compute([]models.Bar{bar(0, 10, 12, 9, 11, 500)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	b := out[0]
	assert.InDelta(t, 32.0/3.0, b.Typical, 1e-12)
	assert.Equal(t, 11.0, b.MA20)
	assert.Equal(t, 11.0, b.MA50)
	assert.Equal(t, 3.0, b.ATR5)
	assert.Equal(t, 3.0, b.Range)
	require.NotNil(t, b.VWAP)
	assert.InDelta(t, b.Typical, *b.VWAP, 1e-12)
}

func TestComputeEmpty(t *testing.T) {
	out, err := NewEngine().Compute(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMovingAveragesUseAvailableBars(t *testing.T) {
	out, err := NewEngine().Compute(flatSeries(60))
	require.NoError(t, err)

	assert.Equal(t, 100.5, out[1].MA20)
	// 20-bar window at index 30 covers closes 111..130
	assert.InDelta(t, 120.5, out[30].MA20, 1e-9)
	assert.InDelta(t, 115.0, out[30].MA50, 1e-9)
	assert.InDelta(t, 134.5, out[59].MA50, 1e-9)
}

func TestATRUsesPreviousClose(t *testing.T) {
	bars := []models.Bar{
		bar(0, 10, 11, 9, 10, 1),
		bar(1, 14, 15, 13, 14, 1), // gap up: TR = 15-10
	}
	out, err := NewEngine().Compute(bars)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out[0].ATR5)
	assert.Equal(t, 3.5, out[1].ATR5)
}

func TestVWAPResetsOnNewDay(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 23, 50, 0, 0, time.UTC)
	bars := []models.Bar{
		{Time: day1, Open: 10, High: 11, Low: 9, Close: 10, Volume: 1_000_000},
		{Time: day1.Add(5 * time.Minute), Open: 10, High: 11, Low: 9, Close: 10, Volume: 1_000_000},
		{Time: day1.Add(10 * time.Minute), Open: 50, High: 51, Low: 49, Close: 50, Volume: 10},
		{Time: day1.Add(15 * time.Minute), Open: 60, High: 61, Low: 59, Close: 60, Volume: 10},
	}
	out, err := NewEngine().Compute(bars)
	require.NoError(t, err)

	require.NotNil(t, out[1].VWAP)
	assert.InDelta(t, 10.0, *out[1].VWAP, 1e-9)
	require.NotNil(t, out[2].VWAP)
	assert.InDelta(t, 50.0, *out[2].VWAP, 1e-9)
	require.NotNil(t, out[3].VWAP)
	assert.InDelta(t, 55.0, *out[3].VWAP, 1e-9)
}

func TestVWAPSessionLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:50 and 00:05 UTC fall on the same New York date
	first := time.Date(2024, 3, 4, 23, 50, 0, 0, time.UTC)
	bars := []models.Bar{
		{Time: first, Open: 10, High: 10, Low: 10, Close: 10, Volume: 100},
		{Time: first.Add(15 * time.Minute), Open: 20, High: 20, Low: 20, Close: 20, Volume: 100},
	}

	utc, err := NewEngine().Compute(bars)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, *utc[1].VWAP, 1e-9)

	local, err := NewEngine(WithSessionLocation(ny)).Compute(bars)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, *local[1].VWAP, 1e-9)
}

func TestVWAPUndefinedWithoutVolume(t *testing.T) {
	bars := []models.Bar{
		bar(0, 10, 11, 9, 10, 0),
		bar(1, 10, 11, 9, 10, 0),
		bar(2, 10, 12, 9, 12, 30),
	}
	out, err := NewEngine().Compute(bars)
	require.NoError(t, err)
	assert.Nil(t, out[0].VWAP)
	assert.Nil(t, out[1].VWAP)
	require.NotNil(t, out[2].VWAP)
	assert.InDelta(t, 11.0, *out[2].VWAP, 1e-9)
}

func TestComputeHasNoLookAhead(t *testing.T) {
	bars := flatSeries(80)
	bars[70].High, bars[70].Close = 500, 500
	full, err := NewEngine().Compute(bars)
	require.NoError(t, err)

	prefix, err := NewEngine().Compute(bars[:60])
	require.NoError(t, err)
	assert.Equal(t, prefix, full[:60])
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	bars := flatSeries(10)
	before := append([]models.Bar(nil), bars...)
	_, err := NewEngine().Compute(bars)
	require.NoError(t, err)
	assert.Equal(t, before, bars)
}

func TestComputeRejectsInvalidBars(t *testing.T) {
	cases := map[string]func([]models.Bar){
		"high below low":       func(b []models.Bar) { b[2].High, b[2].Low = 1, 2 },
		"negative volume":      func(b []models.Bar) { b[2].Volume = -1 },
		"close outside range":  func(b []models.Bar) { b[2].Close = b[2].High + 1 },
		"open outside range":   func(b []models.Bar) { b[2].Open = b[2].Low - 1 },
		"duplicate timestamp":  func(b []models.Bar) { b[2].Time = b[1].Time },
		"timestamp goes back":  func(b []models.Bar) { b[2].Time = b[0].Time.Add(-time.Minute) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			bars := flatSeries(5)
			mutate(bars)
			_, err := NewEngine().Compute(bars)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidBar))

			var ib *models.InvalidBarError
			require.True(t, errors.As(err, &ib))
			assert.Equal(t, 2, ib.Index)
		})
	}
}
