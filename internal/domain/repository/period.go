package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"AMDScope/internal/domain/models"
)

// Interval is the bar resolution.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
)

// IsValidInterval returns true if iv is a supported interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case Interval1m, Interval5m, Interval15m, Interval30m, Interval1h:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default bar interval.
func DefaultInterval() Interval { return Interval5m }

// NormalizeInterval converts raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}

// Period is a lookback duration such as "7d", "2wk", "1mo", "1y", "ytd" or "max",
// using the same vocabulary as the Yahoo chart range parameter.
type Period struct {
	raw   string
	count int
	unit  string
}

// ParsePeriod parses a lookback period string.
func ParsePeriod(s string) (Period, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "ytd" || raw == "max" {
		return Period{raw: raw, unit: raw}, nil
	}
	for _, unit := range []string{"wk", "mo", "d", "y"} {
		if !strings.HasSuffix(raw, unit) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(raw, unit))
		if err != nil || n <= 0 {
			break
		}
		return Period{raw: raw, count: n, unit: unit}, nil
	}
	return Period{}, fmt.Errorf("%w: %q", models.ErrInvalidPeriod, s)
}

// MustParsePeriod is ParsePeriod for constants; it panics on error.
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the normalized period text.
func (p Period) String() string { return p.raw }

// Since resolves the period into the earliest timestamp to include, relative to now.
// "max" resolves to the zero time.
func (p Period) Since(now time.Time) time.Time {
	switch p.unit {
	case "d":
		return now.AddDate(0, 0, -p.count)
	case "wk":
		return now.AddDate(0, 0, -7*p.count)
	case "mo":
		return now.AddDate(0, -p.count, 0)
	case "y":
		return now.AddDate(-p.count, 0, 0)
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}
