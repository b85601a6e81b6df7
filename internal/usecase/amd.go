package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"AMDScope/internal/domain/models"
	domrepo "AMDScope/internal/domain/repository"
	domsvc "AMDScope/internal/domain/service"
	"AMDScope/internal/services/cycles"
	applogger "AMDScope/pkg/logger"
)

const (
	defaultLimit = 1000
	maxLimit     = 5000
)

// Config holds the use case defaults.
type Config struct {
	DefaultSymbol string
	DefaultPeriod string
	Interval      domrepo.Interval
	Limit         int
	FetchTimeout  time.Duration
}

// AMDUseCase fetches bars and runs the regime pipeline over them, once per request.
// It keeps no state between calls and is safe for concurrent use.
type AMDUseCase struct {
	cfg        Config
	source     domrepo.BarSource
	engine     domsvc.IndicatorEngine
	detector   domsvc.RegimeDetector
	summarizer domsvc.CycleSummarizer
	publisher  domrepo.EventPublisher
	metrics    domrepo.Metrics
	l          *applogger.Logger
}

// NewAMDUseCase wires the pipeline. Nil publisher and metrics are replaced by no-ops.
func NewAMDUseCase(
	cfg Config,
	source domrepo.BarSource,
	engine domsvc.IndicatorEngine,
	detector domsvc.RegimeDetector,
	summarizer domsvc.CycleSummarizer,
	publisher domrepo.EventPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *AMDUseCase {
	if cfg.DefaultSymbol == "" {
		cfg.DefaultSymbol = "NQ=F"
	}
	if cfg.DefaultPeriod == "" {
		cfg.DefaultPeriod = "7d"
	}
	if cfg.Limit <= 0 || cfg.Limit > maxLimit {
		cfg.Limit = defaultLimit
	}
	if cfg.Interval == "" {
		cfg.Interval = domrepo.DefaultInterval()
	}
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &AMDUseCase{
		cfg:        cfg,
		source:     source,
		engine:     engine,
		detector:   detector,
		summarizer: summarizer,
		publisher:  publisher,
		metrics:    metrics,
		l:          l,
	}
}

// Params selects the instrument, lookback and output size of a request.
type Params struct {
	Symbol string
	Period string
	Limit  int
}

type RawResult struct {
	Symbol   string
	Period   string
	Interval domrepo.Interval
	Bars     []models.Bar
}

type IndicatorsResult struct {
	Symbol   string
	Period   string
	Interval domrepo.Interval
	Bars     []models.EnrichedBar
}

// Analysis is the full pipeline output over one bar series.
type Analysis struct {
	Bars      []models.Bar
	Enriched  []models.EnrichedBar
	Detection models.Detection
	Cycles    []models.Cycle
}

// Raw returns the most recent Limit bars.
func (uc *AMDUseCase) Raw(ctx context.Context, p Params) (*RawResult, error) {
	symbol, period, err := uc.resolve(p)
	if err != nil {
		return nil, err
	}
	bars, err := uc.fetch(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return &RawResult{
		Symbol:   symbol,
		Period:   period.String(),
		Interval: uc.cfg.Interval,
		Bars:     tail(bars, uc.limitOf(p.Limit)),
	}, nil
}

// Indicators returns the most recent Limit enriched bars. Indicators are computed
// over the whole fetched series before truncation.
func (uc *AMDUseCase) Indicators(ctx context.Context, p Params) (*IndicatorsResult, error) {
	symbol, period, err := uc.resolve(p)
	if err != nil {
		return nil, err
	}
	bars, err := uc.fetch(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	enriched, err := uc.compute(bars)
	if err != nil {
		return nil, err
	}
	return &IndicatorsResult{
		Symbol:   symbol,
		Period:   period.String(),
		Interval: uc.cfg.Interval,
		Bars:     tail(enriched, uc.limitOf(p.Limit)),
	}, nil
}

// Cycles returns the regime cycles and raw manipulation windows and publishes a
// regime event. A publish failure is logged and does not fail the request.
func (uc *AMDUseCase) Cycles(ctx context.Context, p Params) (*models.CycleReport, error) {
	symbol, period, err := uc.resolve(p)
	if err != nil {
		return nil, err
	}
	bars, err := uc.fetch(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	a, err := uc.Analyze(bars)
	if err != nil {
		return nil, err
	}

	report := &models.CycleReport{
		Symbol:  symbol,
		Period:  period.String(),
		Cycles:  a.Cycles,
		Windows: a.Detection.Windows,
	}
	uc.metrics.RecordCycles(symbol, report.Cycles)
	uc.metrics.RecordManipulationWindows(symbol, len(report.Windows))

	if uc.publisher != nil {
		if err := uc.publisher.PublishCycles(ctx, report); err != nil {
			uc.metrics.RecordError("publish")
			uc.l.Warn("publish regime event failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	return report, nil
}

// Summary aggregates the cycles of a run.
func (uc *AMDUseCase) Summary(ctx context.Context, p Params) (*models.Summary, error) {
	symbol, period, err := uc.resolve(p)
	if err != nil {
		return nil, err
	}
	bars, err := uc.fetch(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	a, err := uc.Analyze(bars)
	if err != nil {
		return nil, err
	}
	s := cycles.Summarize(symbol, period.String(), a.Cycles)
	return &s, nil
}

// Analyze runs the three pipeline stages over bars.
func (uc *AMDUseCase) Analyze(bars []models.Bar) (*Analysis, error) {
	enriched, err := uc.compute(bars)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	det := uc.detector.Detect(enriched)
	uc.metrics.RecordStage("detect", time.Since(start).Seconds())

	start = time.Now()
	cs := uc.summarizer.Summarize(det.Bars)
	uc.metrics.RecordStage("cycles", time.Since(start).Seconds())

	return &Analysis{Bars: bars, Enriched: enriched, Detection: det, Cycles: cs}, nil
}

func (uc *AMDUseCase) compute(bars []models.Bar) ([]models.EnrichedBar, error) {
	start := time.Now()
	enriched, err := uc.engine.Compute(bars)
	uc.metrics.RecordStage("indicators", time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordError("invalid_bar")
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	return enriched, nil
}

func (uc *AMDUseCase) resolve(p Params) (string, domrepo.Period, error) {
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		symbol = uc.cfg.DefaultSymbol
	}
	raw := p.Period
	if strings.TrimSpace(raw) == "" {
		raw = uc.cfg.DefaultPeriod
	}
	period, err := domrepo.ParsePeriod(raw)
	if err != nil {
		uc.metrics.RecordError("invalid_period")
		return "", domrepo.Period{}, err
	}
	return symbol, period, nil
}

func (uc *AMDUseCase) fetch(ctx context.Context, symbol string, period domrepo.Period) ([]models.Bar, error) {
	if uc.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	bars, err := uc.source.FetchBars(ctx, symbol, period, uc.cfg.Interval)
	elapsed := time.Since(start)
	if err == nil && len(bars) == 0 {
		err = models.NewDataUnavailable(uc.source.Name(), symbol, errors.New("no bars"))
	}
	if err != nil {
		uc.metrics.RecordError("data_unavailable")
		uc.l.Warn("fetch bars failed",
			applogger.String("source", uc.source.Name()),
			applogger.String("symbol", symbol),
			applogger.String("period", period.String()),
			applogger.Duration("duration_ms", elapsed),
			applogger.Error(err),
		)
		if !errors.Is(err, models.ErrDataUnavailable) {
			err = models.NewDataUnavailable(uc.source.Name(), symbol, err)
		}
		return nil, err
	}

	uc.metrics.RecordFetch(uc.source.Name(), len(bars), elapsed.Seconds())
	uc.l.Debug("fetched bars",
		applogger.String("source", uc.source.Name()),
		applogger.String("symbol", symbol),
		applogger.String("period", period.String()),
		applogger.Int("bars", len(bars)),
		applogger.Duration("duration_ms", elapsed),
	)
	return bars, nil
}

func (uc *AMDUseCase) limitOf(n int) int {
	switch {
	case n <= 0:
		return uc.cfg.Limit
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}

func tail[T any](xs []T, n int) []T {
	if len(xs) > n {
		return xs[len(xs)-n:]
	}
	return xs
}
