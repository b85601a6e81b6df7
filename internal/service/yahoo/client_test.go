package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AMDScope/internal/domain/models"
	"AMDScope/internal/domain/repository"
)

const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "NQ=F", "exchangeTimezoneName": "UTC"},
      "timestamp": [1709562600, 1709562900, 1709563200],
      "indicators": {"quote": [{
        "open":   [100.0, null, 102.0],
        "high":   [101.0, null, 103.5],
        "low":    [99.5,  null, 101.0],
        "close":  [100.5, null, 103.0],
        "volume": [1200,  null, null]
      }]}
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, h http.HandlerFunc, maxFailures uint32) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:       srv.URL,
		Timeout:       time.Second,
		RatePerMinute: 6000,
		MaxFailures:   maxFailures,
		OpenTimeout:   time.Minute,
	}, nil)
}

func TestFetchBarsDecodesChart(t *testing.T) {
	var gotPath, gotRange, gotInterval string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		gotInterval = r.URL.Query().Get("interval")
		_, _ = w.Write([]byte(chartJSON))
	}, 3)

	bars, err := c.FetchBars(context.Background(), "NQ=F", repository.MustParsePeriod("2wk"), repository.Interval5m)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/NQ=F", gotPath)
	assert.Equal(t, "14d", gotRange)
	assert.Equal(t, "5m", gotInterval)

	require.Len(t, bars, 2)
	assert.Equal(t, time.Unix(1709562600, 0).UTC(), bars[0].Time.UTC())
	assert.Equal(t, 101.0, bars[0].High)
	assert.Equal(t, 1200.0, bars[0].Volume)
	assert.Equal(t, 103.0, bars[1].Close)
	assert.Equal(t, 0.0, bars[1].Volume)
}

func TestFetchBarsEmptyChartIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}, 1)

	_, err := c.FetchBars(context.Background(), "NQ=F", repository.MustParsePeriod("7d"), repository.Interval5m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))

	// empty results do not trip the breaker
	assert.NoError(t, c.Health(context.Background()))
}

func TestFetchBarsChartError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}, 3)

	_, err := c.FetchBars(context.Background(), "BAD", repository.MustParsePeriod("7d"), repository.Interval5m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))

	var du *models.DataUnavailableError
	require.True(t, errors.As(err, &du))
	assert.Equal(t, "yahoo", du.Source)
	assert.Equal(t, "BAD", du.Symbol)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, 2)
	ctx := context.Background()
	p := repository.MustParsePeriod("7d")

	for i := 0; i < 2; i++ {
		_, err := c.FetchBars(ctx, "NQ=F", p, repository.Interval5m)
		require.Error(t, err)
	}
	_, err := c.FetchBars(ctx, "NQ=F", p, repository.Interval5m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Error(t, c.Health(ctx))
}

func TestFetchBarsRateLimitedBacksOff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, 5)
	before := c.limiter.Backoff()

	_, err := c.FetchBars(context.Background(), "NQ=F", repository.MustParsePeriod("1d"), repository.Interval5m)
	require.Error(t, err)
	assert.Greater(t, c.limiter.Backoff(), before)
}

func TestFetchBarsHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, 5)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchBars(ctx, "NQ=F", repository.MustParsePeriod("1d"), repository.Interval5m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}

func TestChartRange(t *testing.T) {
	assert.Equal(t, "7d", chartRange(repository.MustParsePeriod("7d")))
	assert.Equal(t, "21d", chartRange(repository.MustParsePeriod("3wk")))
	assert.Equal(t, "1mo", chartRange(repository.MustParsePeriod("1mo")))
	assert.Equal(t, "ytd", chartRange(repository.MustParsePeriod("ytd")))
}
