package yahoo

import (
	"fmt"
	"time"

	"AMDScope/internal/domain/models"
)

// chartResponse is the subset of the v8 chart payload used here. Points are
// pointers because the API returns null for bars without trades.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// bars converts the payload, skipping points with a missing price. Timestamps are
// expressed in the exchange timezone when it is known.
func (r *chartResponse) bars() ([]models.Bar, error) {
	if r.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", r.Chart.Error.Code, r.Chart.Error.Description)
	}
	if len(r.Chart.Result) == 0 || len(r.Chart.Result[0].Timestamp) == 0 ||
		len(r.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errNoData
	}

	res := r.Chart.Result[0]
	q := res.Indicators.Quote[0]
	loc := time.UTC
	if res.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(res.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	out := make([]models.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, h, l, c := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		var v float64
		if p := at(q.Volume, i); p != nil {
			v = *p
		}
		out = append(out, models.Bar{
			Time:   time.Unix(ts, 0).In(loc),
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *c,
			Volume: v,
		})
	}
	if len(out) == 0 {
		return nil, errNoData
	}
	return out, nil
}

func at(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}
