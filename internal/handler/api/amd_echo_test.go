package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AMDScope/internal/domain/models"
	domrepo "AMDScope/internal/domain/repository"
	"AMDScope/internal/service/ratelimit"
	"AMDScope/internal/services/cycles"
	"AMDScope/internal/services/indicators"
	"AMDScope/internal/services/regime"
	"AMDScope/internal/usecase"
)

type fixedSource struct {
	bars []models.Bar
	err  error
}

func (s fixedSource) Name() string { return "fixed" }

func (s fixedSource) FetchBars(context.Context, string, domrepo.Period, domrepo.Interval) ([]models.Bar, error) {
	return s.bars, s.err
}

type healthFunc func(context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func testBars() []models.Bar {
	t0 := time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 40)
	for i := range bars {
		bars[i] = models.Bar{
			Time: t0.Add(time.Duration(i) * 5 * time.Minute),
			Open: 100, High: 100.5, Low: 99.5, Close: 100.123, Volume: 1000,
		}
	}
	bars[30] = models.Bar{Time: bars[30].Time, Open: 100, High: 104.5, Low: 99.5, Close: 104, Volume: 5000}
	bars[31] = models.Bar{Time: bars[31].Time, Open: 104, High: 104.2, Low: 100.8, Close: 101, Volume: 1000}
	return bars
}

func newTestServer(t *testing.T, src domrepo.BarSource, rl *ratelimit.KeyedLimiter) (*echo.Echo, *AMDEchoHandler) {
	t.Helper()
	det, err := regime.NewDetector(regime.DefaultParams())
	require.NoError(t, err)
	uc := usecase.NewAMDUseCase(usecase.Config{DefaultSymbol: "NQ=F"}, src,
		indicators.NewEngine(), det, cycles.NewSummarizer(), nil, nil, nil)
	h := NewAMDEchoHandler(nil, uc, rl)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestRawEndpoint(t *testing.T) {
	e, _ := newTestServer(t, fixedSource{bars: testBars()}, nil)

	rec, env := get(t, e, "/api/raw?period=7d&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.Status)

	var body SeriesResponse[BarDTO]
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "NQ=F", body.Symbol)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, "2024-03-08T17:15:00Z", body.Bars[2].Time)
	assert.Equal(t, 100.12, body.Bars[2].Close)
}

func TestIndicatorsEndpointRoundsAndNullsVWAP(t *testing.T) {
	bars := testBars()
	bars[39].Volume = 0
	bars[39].Time = bars[39].Time.Add(24 * time.Hour)
	e, _ := newTestServer(t, fixedSource{bars: bars}, nil)

	rec, env := get(t, e, "/api/indicators?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Bars []map[string]interface{} `json:"bars"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	require.Len(t, raw.Bars, 2)
	assert.NotNil(t, raw.Bars[0]["vwap"])
	v, ok := raw.Bars[1]["vwap"]
	assert.True(t, ok, "vwap key present")
	assert.Nil(t, v, "zero-volume session has null vwap")
}

func TestCyclesEndpoint(t *testing.T) {
	e, _ := newTestServer(t, fixedSource{bars: testBars()}, nil)

	rec, env := get(t, e, "/api/cycles")
	require.Equal(t, http.StatusOK, rec.Code)

	var body CyclesResponse
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Cycles, 1)
	assert.Equal(t, "manipulation", body.Cycles[0].Label)
	assert.Equal(t, 6, body.Cycles[0].Bars)
	assert.Equal(t, [][2]string{{"2024-03-08T16:30:00Z", "2024-03-08T16:35:00Z"}}, body.ManipWindows)
}

func TestSummaryEndpointNullAverage(t *testing.T) {
	bars := testBars()
	bars[30].Volume = 1000
	e, _ := newTestServer(t, fixedSource{bars: bars}, nil)

	rec, env := get(t, e, "/api/summary?period=1d")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	assert.Equal(t, "1d", raw["period"])
	assert.EqualValues(t, 0, raw["manipulation_count"])
	v, ok := raw["avg_manipulation_size"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestErrorStatusMapping(t *testing.T) {
	badBars := testBars()
	badBars[5].High = badBars[5].Low - 1

	cases := []struct {
		name   string
		src    fixedSource
		target string
		status int
		code   string
	}{
		{"invalid period", fixedSource{bars: testBars()}, "/api/cycles?period=5q", http.StatusBadRequest, "ERR_INVALID_PERIOD"},
		{"limit out of range", fixedSource{bars: testBars()}, "/api/raw?limit=6000", http.StatusBadRequest, "ERR_LTE"},
		{"source down", fixedSource{err: errors.New("dial tcp: refused")}, "/api/summary", http.StatusServiceUnavailable, "ERR_DATA_UNAVAILABLE"},
		{"empty source", fixedSource{}, "/api/raw", http.StatusServiceUnavailable, "ERR_DATA_UNAVAILABLE"},
		{"invalid bar", fixedSource{bars: badBars}, "/api/indicators", http.StatusUnprocessableEntity, "ERR_INVALID_BAR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestServer(t, tc.src, nil)
			rec, env := get(t, e, tc.target)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status, env.Status)

			var errs []struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &errs))
			require.NotEmpty(t, errs)
			assert.Equal(t, tc.code, errs[0].Code)
		})
	}
}

func TestRateLimitPerClient(t *testing.T) {
	e, _ := newTestServer(t, fixedSource{bars: testBars()}, ratelimit.NewKeyed(0.001, 1))

	rec, _ := get(t, e, "/api/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env := get(t, e, "/api/summary")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, env.Status)
}

func TestHealthz(t *testing.T) {
	e, h := newTestServer(t, fixedSource{bars: testBars()}, nil)
	h.AddHealthCheck("source", healthFunc(func(context.Context) error { return nil }))

	rec, _ := get(t, e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.AddHealthCheck("cache", healthFunc(func(context.Context) error { return errors.New("redis down") }))
	rec, env := get(t, e, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "ok", status["source"])
	assert.Equal(t, "redis down", status["cache"])
}
