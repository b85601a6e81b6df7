package regime

import (
	"fmt"
	"math"

	"AMDScope/internal/domain/models"
	domsvc "AMDScope/internal/domain/service"
	"AMDScope/internal/services/features"
)

// Detector classifies enriched bars into accumulation, distribution and
// manipulation regimes using rolling volume/range statistics and a
// spike-then-reversal search.
type Detector struct {
	p Params
}

// NewDetector creates a detector. Unset parameters take their defaults.
func NewDetector(p Params) (*Detector, error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("regime params: %w", err)
	}
	return &Detector{p: p}, nil
}

// Params returns the effective parameters.
func (d *Detector) Params() Params { return d.p }

// Detect labels every bar and returns the manipulation windows in spike order.
func (d *Detector) Detect(bars []models.EnrichedBar) models.Detection {
	n := len(bars)
	labels := make([]models.Label, n)
	windows := make([]models.ManipulationWindow, 0)
	if n == 0 {
		return models.Detection{Bars: []models.LabeledBar{}, Windows: windows}
	}

	w := d.p.AccumulationWindowBars
	volume := make([]float64, n)
	ranges := make([]float64, n)
	vwap := make([]float64, n)
	for i, b := range bars {
		volume[i] = b.Volume
		ranges[i] = b.Range
		vwap[i] = math.NaN()
		if b.VWAP != nil {
			vwap[i] = *b.VWAP
		}
	}

	volMed := features.RollingMedian(volume, w)
	rangeMed := features.RollingMedian(ranges, w)

	spikes := make([]bool, n)
	lowRange := make([]bool, n)
	for i := range bars {
		spikes[i] = volume[i] > volMed[i]*d.p.VolSpikeMult && ranges[i] > rangeMed[i]*d.p.RangeSpikeMult
		lowRange[i] = ranges[i] < rangeMed[i]*d.p.LowRangeMult
	}

	lowFrac := features.RollingFraction(lowRange, w)
	vwapTrend := features.RollingMean(features.Diff(vwap), w)
	for i := range bars {
		if !(lowFrac[i] > d.p.AccumulationFraction) {
			continue
		}
		labels[i] = models.LabelAccumulation
		// NaN trend compares false and keeps accumulation
		if vwapTrend[i] < 0 {
			labels[i] = models.LabelDistribution
		}
	}

	for i := range bars {
		if !spikes[i] {
			continue
		}
		rev, ok := d.findReversal(bars, i)
		if !ok {
			continue
		}
		for j := i; j <= rev; j++ {
			labels[j] = models.LabelManipulation
		}
		windows = append(windows, models.ManipulationWindow{Start: bars[i].Time, End: bars[rev].Time})
	}

	labels = fillGaps(labels, d.p.FillLimitBars)

	out := make([]models.LabeledBar, n)
	for i, b := range bars {
		out[i] = models.LabeledBar{EnrichedBar: b, Label: labels[i]}
	}
	return models.Detection{Bars: out, Windows: windows}
}

// findReversal scans the bars after spike i, up to ReversalWindowBars ahead, for the
// first close that retraces ReversalFraction of the spike range against its direction.
// An up-closing spike looks for a lower close; any other spike looks for a higher close.
func (d *Detector) findReversal(bars []models.EnrichedBar, i int) (int, bool) {
	spike := bars[i]
	if spike.Range <= 0 {
		return 0, false
	}
	end := i + d.p.ReversalWindowBars
	if end > len(bars)-1 {
		end = len(bars) - 1
	}
	offset := d.p.ReversalFraction * spike.Range
	up := spike.Close > spike.Open
	for j := i + 1; j <= end; j++ {
		c := bars[j].Close
		if up && c < spike.Close-offset {
			return j, true
		}
		if !up && c > spike.Close+offset {
			return j, true
		}
	}
	return 0, false
}

// fillGaps forward-fills unlabeled bars from the preceding label, at most limit bars
// per gap, then backward-fills what remains from the following label with the same limit.
func fillGaps(labels []models.Label, limit int) []models.Label {
	out := make([]models.Label, len(labels))
	copy(out, labels)
	if limit <= 0 {
		return out
	}

	var last models.Label
	run := 0
	for i, l := range out {
		if !l.IsNone() {
			last, run = l, 0
			continue
		}
		if last.IsNone() || run >= limit {
			continue
		}
		out[i] = last
		run++
	}

	var next models.Label
	run = 0
	for i := len(out) - 1; i >= 0; i-- {
		l := out[i]
		if !l.IsNone() {
			next, run = l, 0
			continue
		}
		if next.IsNone() || run >= limit {
			continue
		}
		out[i] = next
		run++
	}
	return out
}

var _ domsvc.RegimeDetector = (*Detector)(nil)
