package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AMDScope/internal/domain/models"
)

func TestParsePeriod(t *testing.T) {
	for _, s := range []string{"7d", "2WK", " 1mo ", "1y", "ytd", "max"} {
		p, err := ParsePeriod(s)
		require.NoError(t, err, s)
		assert.NotEmpty(t, p.String())
	}
	for _, s := range []string{"", "0d", "-3d", "7h", "d", "week"} {
		_, err := ParsePeriod(s)
		assert.ErrorIs(t, err, models.ErrInvalidPeriod, s)
	}
}

func TestPeriodSince(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"7d":  time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC),
		"2wk": time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC),
		"1mo": time.Date(2024, 2, 14, 15, 0, 0, 0, time.UTC),
		"1y":  time.Date(2023, 3, 14, 15, 0, 0, 0, time.UTC),
		"ytd": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for s, want := range cases {
		assert.Equal(t, want, MustParsePeriod(s).Since(now), s)
	}
	assert.True(t, MustParsePeriod("max").Since(now).IsZero())
}

func TestNormalizeInterval(t *testing.T) {
	assert.Equal(t, Interval15m, NormalizeInterval(" 15M "))
	assert.Equal(t, Interval5m, NormalizeInterval("2h"))
	assert.False(t, IsValidInterval("1d"))
}
