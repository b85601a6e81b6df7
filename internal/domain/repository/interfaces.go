package repository

import (
	"context"

	"AMDScope/internal/domain/models"
)

// BarSource returns a time-ordered sequence of bars for symbol over the lookback period.
// An empty or unreachable source must return an error matching models.ErrDataUnavailable.
type BarSource interface {
	Name() string
	FetchBars(ctx context.Context, symbol string, period Period, interval Interval) ([]models.Bar, error)
}

// HealthChecker is implemented by sources and caches that can report liveness.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// EventPublisher emits regime events produced by the cycles operation.
type EventPublisher interface {
	PublishCycles(ctx context.Context, report *models.CycleReport) error
	Close() error
}

// Metrics records pipeline observations.
type Metrics interface {
	RecordFetch(source string, bars int, seconds float64)
	RecordError(kind string)
	RecordStage(stage string, seconds float64)
	RecordCycles(symbol string, cycles []models.Cycle)
	RecordManipulationWindows(symbol string, n int)
	RecordCache(result string)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, int, float64)      {}
func (NopMetrics) RecordError(string)                    {}
func (NopMetrics) RecordStage(string, float64)           {}
func (NopMetrics) RecordCycles(string, []models.Cycle)   {}
func (NopMetrics) RecordManipulationWindows(string, int) {}
func (NopMetrics) RecordCache(string)                    {}

var _ Metrics = NopMetrics{}
