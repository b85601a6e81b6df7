package indicators

import (
	"math"

	"AMDScope/internal/domain/models"
)

// Validate checks the series preconditions and returns the first violation as
// an *models.InvalidBarError.
func Validate(bars []models.Bar) error {
	for i, b := range bars {
		if reason := checkBar(b); reason != "" {
			return &models.InvalidBarError{Index: i, Time: b.Time, Reason: reason}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return &models.InvalidBarError{Index: i, Time: b.Time, Reason: "timestamp not after previous bar"}
		}
	}
	return nil
}

func checkBar(b models.Bar) string {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "non-finite value"
		}
	}
	switch {
	case b.Volume < 0:
		return "negative volume"
	case b.High < b.Low:
		return "high below low"
	case b.Open < b.Low || b.Open > b.High:
		return "open outside high/low"
	case b.Close < b.Low || b.Close > b.High:
		return "close outside high/low"
	}
	return ""
}
