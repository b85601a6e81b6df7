package repository

import (
	"context"
	"time"

	"AMDScope/internal/domain/models"
	domrepo "AMDScope/internal/domain/repository"
	"AMDScope/pkg/kafka"
	applogger "AMDScope/pkg/logger"
)

// RegimeEvent is the message emitted after each cycles run.
type RegimeEvent struct {
	Symbol      string         `json:"symbol"`
	Period      string         `json:"period"`
	GeneratedAt time.Time      `json:"generated_at"`
	Cycles      int            `json:"cycles"`
	LabelCounts map[string]int `json:"label_counts"`
	Windows     []EventWindow  `json:"manipulation_windows"`
	LastCycle   *EventCycle    `json:"last_cycle,omitempty"`
}

type EventWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type EventCycle struct {
	Label     string    `json:"label"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	PointMove float64   `json:"point_move"`
}

type eventProducer interface {
	Publish(ctx context.Context, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher, keying messages by symbol.
type KafkaEventPublisher struct {
	p   eventProducer
	l   *applogger.Logger
	now func() time.Time
}

// NewKafkaEventPublisher creates a publisher over p.
func NewKafkaEventPublisher(p *kafka.Producer, l *applogger.Logger) *KafkaEventPublisher {
	return newKafkaEventPublisher(p, l)
}

func newKafkaEventPublisher(p eventProducer, l *applogger.Logger) *KafkaEventPublisher {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaEventPublisher{p: p, l: l, now: time.Now}
}

func (k *KafkaEventPublisher) PublishCycles(ctx context.Context, report *models.CycleReport) error {
	ev := NewRegimeEvent(report, k.now())
	if err := k.p.Publish(ctx, []byte(report.Symbol), ev); err != nil {
		return err
	}
	k.l.Debug("regime event published",
		applogger.String("symbol", report.Symbol),
		applogger.Int("cycles", ev.Cycles),
		applogger.Int("windows", len(ev.Windows)),
	)
	return nil
}

func (k *KafkaEventPublisher) Close() error { return k.p.Close() }

// NewRegimeEvent builds the event payload for report.
func NewRegimeEvent(report *models.CycleReport, at time.Time) RegimeEvent {
	ev := RegimeEvent{
		Symbol:      report.Symbol,
		Period:      report.Period,
		GeneratedAt: at.UTC(),
		Cycles:      len(report.Cycles),
		LabelCounts: map[string]int{},
		Windows:     make([]EventWindow, 0, len(report.Windows)),
	}
	for _, c := range report.Cycles {
		ev.LabelCounts[c.Label.String()]++
	}
	for _, w := range report.Windows {
		ev.Windows = append(ev.Windows, EventWindow{Start: w.Start, End: w.End})
	}
	if n := len(report.Cycles); n > 0 {
		c := report.Cycles[n-1]
		ev.LastCycle = &EventCycle{Label: c.Label.String(), Start: c.Start, End: c.End, PointMove: c.PointMove}
	}
	return ev
}

// NopEventPublisher drops events; used when Kafka is disabled.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishCycles(context.Context, *models.CycleReport) error { return nil }
func (NopEventPublisher) Close() error                                            { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NopEventPublisher{}
)
