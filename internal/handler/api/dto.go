package api

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"AMDScope/internal/domain/models"
	"AMDScope/internal/usecase"
)

type BarDTO struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type IndicatorBarDTO struct {
	BarDTO
	Typical float64  `json:"typical"`
	VWAP    *float64 `json:"vwap"`
	MA20    float64  `json:"ma20"`
	MA50    float64  `json:"ma50"`
	ATR5    float64  `json:"atr5"`
	Range   float64  `json:"range"`
}

type SeriesResponse[T any] struct {
	Symbol   string `json:"symbol"`
	Period   string `json:"period"`
	Interval string `json:"interval"`
	Count    int    `json:"count"`
	Bars     []T    `json:"bars"`
}

type CycleDTO struct {
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Label        string  `json:"label"`
	DurationMin  float64 `json:"duration_min"`
	PointMove    float64 `json:"point_move"`
	AbsPointMove float64 `json:"abs_point_move"`
	AvgVolume    int64   `json:"avg_volume"`
	Bars         int     `json:"bars"`
}

type CyclesResponse struct {
	Symbol       string      `json:"symbol"`
	Period       string      `json:"period"`
	Cycles       []CycleDTO  `json:"cycles"`
	ManipWindows [][2]string `json:"manip_windows"`
}

type SummaryResponse struct {
	Symbol              string   `json:"symbol"`
	Period              string   `json:"period"`
	TotalCycles         int      `json:"total_cycles"`
	ManipulationCount   int      `json:"manipulation_count"`
	AvgManipulationSize *float64 `json:"avg_manipulation_size"`
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func ts(t time.Time) string { return t.Format(time.RFC3339) }

func toBarDTO(b models.Bar) BarDTO {
	return BarDTO{
		Time:   ts(b.Time),
		Open:   round2(b.Open),
		High:   round2(b.High),
		Low:    round2(b.Low),
		Close:  round2(b.Close),
		Volume: round2(b.Volume),
	}
}

func NewRawResponse(r *usecase.RawResult) SeriesResponse[BarDTO] {
	out := make([]BarDTO, len(r.Bars))
	for i, b := range r.Bars {
		out[i] = toBarDTO(b)
	}
	return SeriesResponse[BarDTO]{Symbol: r.Symbol, Period: r.Period, Interval: string(r.Interval), Count: len(out), Bars: out}
}

func NewIndicatorsResponse(r *usecase.IndicatorsResult) SeriesResponse[IndicatorBarDTO] {
	out := make([]IndicatorBarDTO, len(r.Bars))
	for i, b := range r.Bars {
		d := IndicatorBarDTO{
			BarDTO:  toBarDTO(b.Bar),
			Typical: round2(b.Typical),
			MA20:    round2(b.MA20),
			MA50:    round2(b.MA50),
			ATR5:    round2(b.ATR5),
			Range:   round2(b.Range),
		}
		if b.VWAP != nil {
			v := round2(*b.VWAP)
			d.VWAP = &v
		}
		out[i] = d
	}
	return SeriesResponse[IndicatorBarDTO]{Symbol: r.Symbol, Period: r.Period, Interval: string(r.Interval), Count: len(out), Bars: out}
}

func NewCyclesResponse(r *models.CycleReport) CyclesResponse {
	cs := make([]CycleDTO, len(r.Cycles))
	for i, c := range r.Cycles {
		cs[i] = CycleDTO{
			Start:        ts(c.Start),
			End:          ts(c.End),
			Label:        c.Label.String(),
			DurationMin:  round2(c.DurationMin),
			PointMove:    round2(c.PointMove),
			AbsPointMove: round2(c.AbsPointMove),
			AvgVolume:    c.AvgVolume,
			Bars:         c.Bars,
		}
	}
	ws := make([][2]string, len(r.Windows))
	for i, w := range r.Windows {
		ws[i] = [2]string{ts(w.Start), ts(w.End)}
	}
	return CyclesResponse{Symbol: r.Symbol, Period: r.Period, Cycles: cs, ManipWindows: ws}
}

func NewSummaryResponse(s *models.Summary) SummaryResponse {
	return SummaryResponse{
		Symbol:              s.Symbol,
		Period:              s.Period,
		TotalCycles:         s.TotalCycles,
		ManipulationCount:   s.ManipulationCount,
		AvgManipulationSize: s.AvgManipulationSize,
	}
}
