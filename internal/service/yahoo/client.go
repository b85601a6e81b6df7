package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"AMDScope/internal/domain/models"
	"AMDScope/internal/domain/repository"
	"AMDScope/internal/service/ratelimit"
	pkghttp "AMDScope/pkg/http"
	"AMDScope/pkg/logger"
)

const chartPath = "/v8/finance/chart/"

var errNoData = errors.New("no data available")

// Config configures the Yahoo chart source.
type Config struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	RatePerMinute int
	MaxFailures   uint32
	OpenTimeout   time.Duration
	Interval      time.Duration
}

// Client fetches intraday bars from the Yahoo Finance v8 chart API.
type Client struct {
	base    string
	http    *pkghttp.Client
	limiter *ratelimit.Upstream
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// New creates a Yahoo bar source.
func New(cfg Config, log *logger.Logger, opts ...pkghttp.ClientOption) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.String("component", "yahoo"))

	httpOpts := []pkghttp.ClientOption{pkghttp.WithTimeout(cfg.Timeout)}
	if cfg.UserAgent != "" {
		httpOpts = append(httpOpts, pkghttp.WithHeader("User-Agent", cfg.UserAgent))
	}
	httpOpts = append(httpOpts, opts...)

	c := &Client{
		base:    cfg.BaseURL,
		http:    pkghttp.NewClient(httpOpts...),
		limiter: ratelimit.NewUpstream("yahoo", cfg.RatePerMinute),
		log:     log,
	}
	maxFailures := cfg.MaxFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// an empty chart or a cancelled caller says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNoData) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return c
}

// Name returns the source name.
func (c *Client) Name() string { return "yahoo" }

// FetchBars returns the bars for symbol over period. Every failure, including an
// open breaker or an empty chart, matches models.ErrDataUnavailable.
func (c *Client) FetchBars(ctx context.Context, symbol string, period repository.Period, interval repository.Interval) ([]models.Bar, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, symbol, period, interval)
	})
	if err != nil {
		return nil, models.NewDataUnavailable(c.Name(), symbol, err)
	}
	return res.([]models.Bar), nil
}

// Health reports whether the breaker currently admits requests.
func (c *Client) Health(context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, symbol string, period repository.Period, interval repository.Interval) ([]models.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload chartResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.base + chartPath + url.PathEscape(symbol),
		QueryParams: map[string][]string{
			"range":          {chartRange(period)},
			"interval":       {string(interval)},
			"includePrePost": {"false"},
		},
	}, &payload)
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
			c.limiter.SignalRateLimited()
			return nil, fmt.Errorf("rate limited: %w", err)
		}
		return nil, err
	}
	c.limiter.ResetBackoff()

	bars, err := payload.bars()
	if err != nil {
		return nil, err
	}
	c.log.Debug("chart fetched",
		logger.String("symbol", symbol),
		logger.String("period", period.String()),
		logger.Int("bars", len(bars)),
	)
	return bars, nil
}

// chartRange maps a period onto the chart API range vocabulary, which has no weeks.
func chartRange(p repository.Period) string {
	s := p.String()
	if n, ok := weeks(s); ok {
		return strconv.Itoa(7*n) + "d"
	}
	return s
}

func weeks(s string) (int, bool) {
	if len(s) < 3 || s[len(s)-2:] != "wk" {
		return 0, false
	}
	n, err := strconv.Atoi(s[:len(s)-2])
	return n, err == nil
}
