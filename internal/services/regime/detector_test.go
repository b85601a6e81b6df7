package regime

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AMDScope/internal/domain/models"
)

var t0 = time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)

func at(i int) time.Time { return t0.Add(time.Duration(i) * 5 * time.Minute) }

func enriched(i int, open, close, rng, volume float64) models.EnrichedBar {
	hi := math.Max(open, close) + rng/2
	return models.EnrichedBar{
		Bar:   models.Bar{Time: at(i), Open: open, High: hi, Low: hi - rng, Close: close, Volume: volume},
		Range: rng,
	}
}

// quiet returns n flat bars with constant volume and range.
func quiet(n int) []models.EnrichedBar {
	bars := make([]models.EnrichedBar, n)
	for i := range bars {
		bars[i] = enriched(i, 100, 100, 1, 100)
	}
	return bars
}

func newDetector(t *testing.T, p Params) *Detector {
	t.Helper()
	d, err := NewDetector(p)
	require.NoError(t, err)
	return d
}

func labels(det models.Detection) []models.Label {
	out := make([]models.Label, len(det.Bars))
	for i, b := range det.Bars {
		out[i] = b.Label
	}
	return out
}

func TestDetectEmpty(t *testing.T) {
	det := newDetector(t, Params{}).Detect(nil)
	assert.Empty(t, det.Bars)
	assert.NotNil(t, det.Windows)
	assert.Empty(t, det.Windows)
}

func TestDetectSingleBar(t *testing.T) {
	det := newDetector(t, Params{}).Detect(quiet(1))
	require.Len(t, det.Bars, 1)
	assert.True(t, det.Bars[0].Label.IsNone())
}

func TestSpikeRequiresVolumeAndRange(t *testing.T) {
	bars := quiet(30)
	// volume-only spike followed by a sharp drop
	bars[10] = enriched(10, 100, 100, 1, 1000)
	bars[11] = enriched(11, 90, 90, 1, 100)
	// range-only spike followed by a sharp drop
	bars[20] = enriched(20, 100, 104, 5, 100)
	bars[21] = enriched(21, 95, 95, 1, 100)

	det := newDetector(t, Params{}).Detect(bars)
	assert.Empty(t, det.Windows)
	for i, l := range labels(det) {
		assert.NotEqual(t, models.LabelManipulation, l, "bar %d", i)
	}
}

func TestManipulationSpanIsInclusive(t *testing.T) {
	bars := quiet(30)
	bars[20] = enriched(20, 100, 104, 5, 1000)
	bars[21] = enriched(21, 103, 103, 1, 100)
	bars[22] = enriched(22, 100, 100, 1, 100)

	det := newDetector(t, Params{}).Detect(bars)
	require.Len(t, det.Windows, 1)
	assert.Equal(t, models.ManipulationWindow{Start: at(20), End: at(22)}, det.Windows[0])

	got := labels(det)
	for i := 20; i <= 22; i++ {
		assert.Equal(t, models.LabelManipulation, got[i], "bar %d", i)
	}
	// two bars filled on each side, nothing further
	assert.Equal(t, models.LabelManipulation, got[18])
	assert.Equal(t, models.LabelManipulation, got[24])
	assert.True(t, got[17].IsNone())
	assert.True(t, got[25].IsNone())
}

func TestOverlappingSpikesKeepBothWindows(t *testing.T) {
	bars := quiet(30)
	bars[20] = enriched(20, 100, 104, 5, 1000)
	bars[21] = enriched(21, 104, 108, 5, 1000)
	bars[22] = enriched(22, 100, 100, 1, 100)

	det := newDetector(t, Params{}).Detect(bars)
	// windows stay in spike order even when they share a reversal bar
	require.Len(t, det.Windows, 2)
	assert.Equal(t, models.ManipulationWindow{Start: at(20), End: at(22)}, det.Windows[0])
	assert.Equal(t, models.ManipulationWindow{Start: at(21), End: at(22)}, det.Windows[1])

	got := labels(det)
	for i := 18; i <= 24; i++ {
		assert.Equal(t, models.LabelManipulation, got[i], "bar %d", i)
	}
	assert.True(t, got[17].IsNone())
	assert.True(t, got[25].IsNone())
}

func TestDownSpikeLooksForHigherClose(t *testing.T) {
	bars := quiet(30)
	bars[20] = enriched(20, 104, 100, 5, 1000)
	bars[21] = enriched(21, 100, 100, 1, 100)
	bars[22] = enriched(22, 100, 100, 1, 100)
	bars[23] = enriched(23, 102, 102, 1, 100)

	det := newDetector(t, Params{}).Detect(bars)
	require.Len(t, det.Windows, 1)
	assert.Equal(t, at(23), det.Windows[0].End)
}

func TestSpikeWithoutReversalIsNotLabeled(t *testing.T) {
	bars := quiet(30)
	bars[20] = enriched(20, 100, 104, 5, 1000)
	for i := 21; i < 30; i++ {
		bars[i] = enriched(i, 104, 104, 1, 100)
	}

	det := newDetector(t, Params{}).Detect(bars)
	assert.Empty(t, det.Windows)
	for i, l := range labels(det) {
		assert.True(t, l.IsNone(), "bar %d", i)
	}
}

func TestReversalBeyondWindowIsIgnored(t *testing.T) {
	bars := quiet(40)
	bars[20] = enriched(20, 100, 104, 5, 1000)
	for i := 21; i <= 26; i++ {
		bars[i] = enriched(i, 104, 104, 1, 100)
	}
	bars[27] = enriched(27, 100, 100, 1, 100)

	det := newDetector(t, Params{}).Detect(bars)
	assert.Empty(t, det.Windows)
}

func TestSpikeAtLastBarHasNoReversal(t *testing.T) {
	bars := quiet(30)
	bars[29] = enriched(29, 100, 104, 5, 1000)
	det := newDetector(t, Params{}).Detect(bars)
	assert.Empty(t, det.Windows)
}

// shrinking returns bars whose range decays geometrically so each bar sits well
// below its trailing median range, with VWAP stepping by vwapStep per bar.
func shrinking(n int, vwapStep float64) []models.EnrichedBar {
	bars := make([]models.EnrichedBar, n)
	for i := range bars {
		bars[i] = enriched(i, 100, 100, math.Pow(0.7, float64(i)), 100)
		v := 100 + vwapStep*float64(i)
		bars[i].VWAP = &v
	}
	return bars
}

func TestAccumulationWhenVWAPRises(t *testing.T) {
	det := newDetector(t, Params{}).Detect(shrinking(30, 0.1))
	got := labels(det)
	assert.True(t, got[5].IsNone())
	assert.Equal(t, models.LabelAccumulation, got[6])
	assert.Equal(t, models.LabelAccumulation, got[8])
	assert.Equal(t, models.LabelAccumulation, got[29])
}

func TestDistributionWhenVWAPFalls(t *testing.T) {
	det := newDetector(t, Params{}).Detect(shrinking(30, -0.1))
	got := labels(det)
	assert.True(t, got[5].IsNone())
	assert.Equal(t, models.LabelDistribution, got[8])
	assert.Equal(t, models.LabelDistribution, got[29])
}

func TestMissingVWAPKeepsAccumulation(t *testing.T) {
	bars := shrinking(30, -0.1)
	for i := range bars {
		bars[i].VWAP = nil
	}
	got := labels(newDetector(t, Params{}).Detect(bars))
	assert.Equal(t, models.LabelAccumulation, got[29])
}

func TestManipulationOverridesAccumulation(t *testing.T) {
	bars := shrinking(30, 0.1)
	bars[25] = enriched(25, 100, 104, 5, 1000)
	bars[26] = enriched(26, 100, 100, 0.001, 100)

	got := labels(newDetector(t, Params{}).Detect(bars))
	assert.Equal(t, models.LabelAccumulation, got[24])
	assert.Equal(t, models.LabelManipulation, got[25])
	assert.Equal(t, models.LabelManipulation, got[26])
}

func TestDetectIsDeterministic(t *testing.T) {
	bars := shrinking(40, -0.05)
	bars[30] = enriched(30, 100, 104, 5, 1000)
	bars[31] = enriched(31, 100, 100, 0.001, 100)

	d := newDetector(t, Params{})
	assert.Equal(t, d.Detect(bars), d.Detect(bars))
}

func TestFillGaps(t *testing.T) {
	const (
		A = models.LabelAccumulation
		M = models.LabelManipulation
		o = models.LabelNone
	)
	cases := []struct {
		name  string
		in    []models.Label
		limit int
		want  []models.Label
	}{
		{"short gap filled forward", []models.Label{A, o, o, M}, 2, []models.Label{A, A, A, M}},
		{"four bar gap meets in the middle", []models.Label{A, o, o, o, o, M}, 2, []models.Label{A, A, A, M, M, M}},
		{"five bar gap leaves one bar", []models.Label{A, o, o, o, o, o, M}, 2, []models.Label{A, A, A, o, M, M, M}},
		{"leading gap filled backward", []models.Label{o, o, o, M}, 2, []models.Label{o, M, M, M}},
		{"trailing gap filled forward", []models.Label{A, o, o, o}, 2, []models.Label{A, A, A, o}},
		{"all none", []models.Label{o, o, o}, 2, []models.Label{o, o, o}},
		{"disabled", []models.Label{A, o, M}, 0, []models.Label{A, o, M}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := append([]models.Label(nil), tc.in...)
			assert.Equal(t, tc.want, fillGaps(in, tc.limit))
			assert.Equal(t, tc.in, in)
		})
	}
}

func TestParams(t *testing.T) {
	d := newDetector(t, Params{})
	assert.Equal(t, DefaultParams(), d.Params())

	d = newDetector(t, Params{FillLimitBars: -1, ReversalWindowBars: 3})
	assert.Equal(t, 0, d.Params().FillLimitBars)
	assert.Equal(t, 3, d.Params().ReversalWindowBars)

	_, err := NewDetector(Params{AccumulationFraction: 1.5})
	assert.Error(t, err)
	_, err = NewDetector(Params{VolSpikeMult: -1})
	assert.Error(t, err)
}
