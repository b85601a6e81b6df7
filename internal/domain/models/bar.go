package models

import "time"

// Bar is one OHLCV observation at a fixed interval.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Range returns high minus low.
func (b Bar) Range() float64 { return b.High - b.Low }

// EnrichedBar is a Bar plus the per-bar technical features.
// VWAP is nil while the session's cumulative volume is zero.
type EnrichedBar struct {
	Bar
	Typical float64
	VWAP    *float64
	MA20    float64
	MA50    float64
	ATR5    float64
	Range   float64
}

// Label is the regime assigned to a bar. The empty label means unlabeled ("none").
type Label string

const (
	LabelNone         Label = ""
	LabelAccumulation Label = "accumulation"
	LabelDistribution Label = "distribution"
	LabelManipulation Label = "manipulation"
)

// String returns "none" for the empty label.
func (l Label) String() string {
	if l == LabelNone {
		return "none"
	}
	return string(l)
}

// IsNone reports whether the label is unset.
func (l Label) IsNone() bool { return l == LabelNone }

// LabeledBar is an EnrichedBar with its regime label.
type LabeledBar struct {
	EnrichedBar
	Label Label
}

// ManipulationWindow is the raw spike-to-reversal interval, recorded before smoothing.
type ManipulationWindow struct {
	Start time.Time
	End   time.Time
}

// Cycle is a maximal run of consecutive bars sharing one non-none label.
type Cycle struct {
	Start        time.Time
	End          time.Time
	Label        Label
	DurationMin  float64
	PointMove    float64
	AbsPointMove float64
	AvgVolume    int64
	Bars         int
}

// Detection bundles the regime detector output.
type Detection struct {
	Bars    []LabeledBar
	Windows []ManipulationWindow
}

// CycleReport is the result of the cycles operation.
type CycleReport struct {
	Symbol  string
	Period  string
	Cycles  []Cycle
	Windows []ManipulationWindow
}

// Summary aggregates a cycle list.
// AvgManipulationSize is nil when no manipulation cycle exists.
type Summary struct {
	Symbol              string
	Period              string
	TotalCycles         int
	ManipulationCount   int
	AvgManipulationSize *float64
}
