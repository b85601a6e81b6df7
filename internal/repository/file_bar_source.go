package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"AMDScope/internal/domain/models"
	domrepo "AMDScope/internal/domain/repository"
	"AMDScope/pkg/util"
)

// fileBar accepts "time", "t", "timestamp" or "datetime" as a string or unix
// seconds/milliseconds, with long or one-letter OHLCV keys.
type fileBar struct {
	Time      json.RawMessage `json:"time"`
	T         json.RawMessage `json:"t"`
	Timestamp json.RawMessage `json:"timestamp"`
	Datetime  json.RawMessage `json:"datetime"`
	Open      *float64        `json:"open"`
	High      *float64        `json:"high"`
	Low       *float64        `json:"low"`
	Close     *float64        `json:"close"`
	Volume    *float64        `json:"volume"`
	O         *float64        `json:"o"`
	H         *float64        `json:"h"`
	L         *float64        `json:"l"`
	C         *float64        `json:"c"`
	V         *float64        `json:"v"`
}

// ReadBars decodes a JSON array of bars in file order. Ordering is not checked
// here; the indicator engine rejects non-increasing timestamps. A non-nil loc
// relocates every timestamp, which moves the VWAP session boundary.
func ReadBars(r io.Reader, loc *time.Location) ([]models.Bar, error) {
	var raw []fileBar
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	out := make([]models.Bar, 0, len(raw))
	for i, fb := range raw {
		b, err := fb.bar()
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		b.Time = util.InLocation(b.Time, loc)
		out = append(out, b)
	}
	return out, nil
}

func (fb fileBar) bar() (models.Bar, error) {
	var ts json.RawMessage
	for _, c := range []json.RawMessage{fb.Time, fb.T, fb.Timestamp, fb.Datetime} {
		if len(c) > 0 && string(c) != "null" {
			ts = c
			break
		}
	}
	if ts == nil {
		return models.Bar{}, fmt.Errorf("missing time")
	}
	t, err := parseRawTime(ts)
	if err != nil {
		return models.Bar{}, err
	}

	b := models.Bar{Time: t}
	fields := []struct {
		name        string
		dst         *float64
		long, short *float64
	}{
		{"open", &b.Open, fb.Open, fb.O},
		{"high", &b.High, fb.High, fb.H},
		{"low", &b.Low, fb.Low, fb.L},
		{"close", &b.Close, fb.Close, fb.C},
	}
	for _, f := range fields {
		switch {
		case f.long != nil:
			*f.dst = *f.long
		case f.short != nil:
			*f.dst = *f.short
		default:
			return models.Bar{}, fmt.Errorf("missing %s", f.name)
		}
	}
	// missing volume is treated as zero, like a null chart volume
	switch {
	case fb.Volume != nil:
		b.Volume = *fb.Volume
	case fb.V != nil:
		b.Volume = *fb.V
	}
	return b, nil
}

func parseRawTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if bytes.HasPrefix(raw, []byte(`"`)) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("time: %w", err)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return time.Time{}, fmt.Errorf("time: %w", err)
		}
		s = strings.SplitN(n.String(), ".", 2)[0]
	}
	t, ok := util.ParseTime(s)
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized time %q", s)
	}
	return t, nil
}

// FileBarSource serves bars from a local JSON file. The period is measured back
// from the last bar in the file rather than from the wall clock.
type FileBarSource struct {
	path string
	loc  *time.Location
}

// NewFileBarSource creates a source reading path on every fetch.
func NewFileBarSource(path string, loc *time.Location) *FileBarSource {
	return &FileBarSource{path: path, loc: loc}
}

func (s *FileBarSource) Name() string { return "file" }

func (s *FileBarSource) FetchBars(_ context.Context, symbol string, period domrepo.Period, _ domrepo.Interval) ([]models.Bar, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, models.NewDataUnavailable(s.Name(), symbol, err)
	}
	defer f.Close()

	bars, err := ReadBars(f, s.loc)
	if err != nil {
		return nil, models.NewDataUnavailable(s.Name(), symbol, err)
	}
	if len(bars) == 0 {
		return nil, models.NewDataUnavailable(s.Name(), symbol, fmt.Errorf("%s holds no bars", s.path))
	}

	since := period.Since(bars[len(bars)-1].Time)
	if since.IsZero() {
		return bars, nil
	}
	start := 0
	for start < len(bars) && bars[start].Time.Before(since) {
		start++
	}
	return bars[start:], nil
}

var _ domrepo.BarSource = (*FileBarSource)(nil)
