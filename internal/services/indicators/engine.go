package indicators

import (
	"math"
	"time"

	talib "github.com/markcheno/go-talib"

	"AMDScope/internal/domain/models"
	domsvc "AMDScope/internal/domain/service"
	"AMDScope/internal/services/features"
)

const (
	fastMAWindow = 20
	slowMAWindow = 50
	atrWindow    = 5
)

// EngineOption configures Engine.
type EngineOption func(*Engine)

// WithSessionLocation sets the timezone whose calendar date anchors VWAP sessions.
// Without it each bar's own location is used.
func WithSessionLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		e.loc = loc
	}
}

// Engine computes typical price, session VWAP, MA20/MA50, ATR5 and range.
// It holds no state between calls.
type Engine struct {
	loc *time.Location
}

// NewEngine creates an indicator engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute validates bars and returns a new enriched series of the same length and order.
func (e *Engine) Compute(bars []models.Bar) ([]models.EnrichedBar, error) {
	if err := Validate(bars); err != nil {
		return nil, err
	}
	n := len(bars)
	out := make([]models.EnrichedBar, n)
	if n == 0 {
		return out, nil
	}

	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range bars {
		high[i], low[i], closes[i] = b.High, b.Low, b.Close
	}

	ma20 := features.MovingAverage(closes, fastMAWindow)
	ma50 := features.MovingAverage(closes, slowMAWindow)
	atr5 := features.MovingAverage(features.TrueRange(high, low, closes), atrWindow)
	typical := talib.TypPrice(high, low, closes)
	vwap := e.sessionVWAP(bars, typical)

	for i, b := range bars {
		out[i] = models.EnrichedBar{
			Bar:     b,
			Typical: typical[i],
			VWAP:    vwap[i],
			MA20:    ma20[i],
			MA50:    ma50[i],
			ATR5:    atr5[i],
			Range:   b.Range(),
		}
	}
	return out, nil
}

// sessionVWAP accumulates volume*typical / volume, resetting whenever the calendar
// date changes between consecutive bars.
func (e *Engine) sessionVWAP(bars []models.Bar, typical []float64) []*float64 {
	out := make([]*float64, len(bars))
	var cumPV, cumVol float64
	var prevY, prevD int
	var prevM time.Month
	for i, b := range bars {
		y, m, d := e.sessionTime(b.Time).Date()
		if i == 0 || y != prevY || m != prevM || d != prevD {
			cumPV, cumVol = 0, 0
		}
		prevY, prevM, prevD = y, m, d

		cumPV += typical[i] * b.Volume
		cumVol += b.Volume
		if cumVol == 0 {
			continue
		}
		v := cumPV / cumVol
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = &v
	}
	return out
}

func (e *Engine) sessionTime(t time.Time) time.Time {
	if e.loc != nil {
		return t.In(e.loc)
	}
	return t
}

var _ domsvc.IndicatorEngine = (*Engine)(nil)
