package util

import (
	"strconv"
	"strings"
	"time"
)

// unixMillisCutoff separates unix seconds from unix milliseconds; 1e11 seconds is year 5138.
const unixMillisCutoff = 1e11

// ParseTime tries RFC3339, RFC3339Nano, "2006-01-02 15:04:05" (UTC) and unix
// seconds or milliseconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return FromUnix(ts), true
	}
	return time.Time{}, false
}

// FromUnix converts unix seconds, or milliseconds when ts is large enough, to UTC.
func FromUnix(ts int64) time.Time {
	if ts >= unixMillisCutoff {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}

// InLocation returns t in loc, or t unchanged when loc is nil.
func InLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
