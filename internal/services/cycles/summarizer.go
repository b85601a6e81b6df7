package cycles

import (
	"math"

	"github.com/shopspring/decimal"

	"AMDScope/internal/domain/models"
	domsvc "AMDScope/internal/domain/service"
)

// Summarizer collapses labeled bars into cycles.
type Summarizer struct{}

// NewSummarizer creates a cycle summarizer.
func NewSummarizer() *Summarizer { return &Summarizer{} }

// Summarize returns one cycle per maximal run of equal labels, skipping unlabeled runs.
func (s *Summarizer) Summarize(bars []models.LabeledBar) []models.Cycle {
	out := make([]models.Cycle, 0)
	start := 0
	for i := 1; i <= len(bars); i++ {
		if i < len(bars) && bars[i].Label == bars[start].Label {
			continue
		}
		if !bars[start].Label.IsNone() {
			out = append(out, buildCycle(bars[start:i]))
		}
		start = i
	}
	return out
}

func buildCycle(run []models.LabeledBar) models.Cycle {
	first, last := run[0], run[len(run)-1]
	vol := 0.0
	for _, b := range run {
		vol += b.Volume
	}
	move := last.Close - first.Close
	return models.Cycle{
		Start:        first.Time,
		End:          last.Time,
		Label:        first.Label,
		DurationMin:  last.Time.Sub(first.Time).Minutes(),
		PointMove:    move,
		AbsPointMove: math.Abs(move),
		AvgVolume:    int64(vol / float64(len(run))),
		Bars:         len(run),
	}
}

// Summarize aggregates cycles into the summary view. The manipulation average is
// taken over moves already rounded to two decimals, rounded again, and left nil
// when no manipulation cycle exists.
func Summarize(symbol, period string, cycles []models.Cycle) models.Summary {
	sum := models.Summary{Symbol: symbol, Period: period, TotalCycles: len(cycles)}
	total := decimal.Zero
	for _, c := range cycles {
		if c.Label != models.LabelManipulation {
			continue
		}
		sum.ManipulationCount++
		total = total.Add(decimal.NewFromFloat(c.AbsPointMove).Round(2))
	}
	if sum.ManipulationCount > 0 {
		avg, _ := total.Div(decimal.NewFromInt(int64(sum.ManipulationCount))).Round(2).Float64()
		sum.AvgManipulationSize = &avg
	}
	return sum
}

var _ domsvc.CycleSummarizer = (*Summarizer)(nil)
