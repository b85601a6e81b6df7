package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"AMDScope/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchBars        *prometheus.HistogramVec
	fetchLatency     *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	stageLatency     *prometheus.HistogramVec
	cyclesTotal      *prometheus.CounterVec
	lastManipWindows *prometheus.GaugeVec
	cacheTotal       *prometheus.CounterVec
}

// New registers the AMD pipeline metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetchBars: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "amd_fetch_bars",
				Help:    "Number of bars returned per fetch",
				Buckets: []float64{0, 10, 100, 500, 1000, 2000, 5000, 10000},
			},
			[]string{"source"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "amd_fetch_duration_seconds",
				Help:    "Duration of market-data fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amd_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stageLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "amd_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"stage"},
		),
		cyclesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amd_cycles_total",
				Help: "Cycles produced, by label",
			},
			[]string{"symbol", "label"},
		),
		lastManipWindows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "amd_manipulation_windows",
				Help: "Manipulation windows found by the last cycles run",
			},
			[]string{"symbol"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amd_bar_cache_requests_total",
				Help: "Bar cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (r *Recorder) RecordFetch(source string, bars int, seconds float64) {
	r.fetchBars.WithLabelValues(source).Observe(float64(bars))
	r.fetchLatency.WithLabelValues(source).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

func (r *Recorder) RecordCycles(symbol string, cycles []models.Cycle) {
	for _, c := range cycles {
		r.cyclesTotal.WithLabelValues(symbol, c.Label.String()).Inc()
	}
}

func (r *Recorder) RecordManipulationWindows(symbol string, n int) {
	r.lastManipWindows.WithLabelValues(symbol).Set(float64(n))
}

// RecordCache records a cache hit, miss or error.
func (r *Recorder) RecordCache(result string) {
	r.cacheTotal.WithLabelValues(result).Inc()
}
