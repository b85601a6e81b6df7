package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	require.True(t, ok)
	assert.Equal(t, s, got.UTC().Format(time.RFC3339))
}

func TestParseTimeOffsetKept(t *testing.T) {
	got, ok := ParseTime("2024-03-08T09:30:00-05:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 8, 14, 30, 0, 0, time.UTC), got.UTC())
	_, off := got.Zone()
	assert.Equal(t, -5*3600, off)
}

func TestParseTimeDateTime(t *testing.T) {
	got, ok := ParseTime("2024-03-08 14:30:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 8, 14, 30, 0, 0, time.UTC), got)
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got, ok := ParseTime(strconv.FormatInt(ts.Unix(), 10))
	require.True(t, ok)
	assert.Equal(t, ts, got)

	got, ok = ParseTime(strconv.FormatInt(ts.UnixMilli(), 10))
	require.True(t, ok)
	assert.Equal(t, ts, got)
}

func TestParseTimeRejects(t *testing.T) {
	for _, s := range []string{"", "  ", "yesterday", "-5"} {
		_, ok := ParseTime(s)
		assert.False(t, ok, s)
	}
}

func TestInLocation(t *testing.T) {
	ts := time.Date(2024, 3, 8, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, ts, InLocation(ts, nil))
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, 9, InLocation(ts, ny).Hour())
}
