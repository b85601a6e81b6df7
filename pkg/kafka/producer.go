package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes keyed JSON messages to a single topic.
type Producer struct {
	writer  MessageWriter
	topic   string
	comp    string
	metrics *producerMetrics
}

// Message is a key/value pair. Value is JSON-encoded unless it is []byte or string.
type Message struct {
	Key   []byte
	Value interface{}
}

// NewProducer creates a producer backed by a kafka-go Writer. Messages are
// hash-balanced by key so one symbol keeps its order within a partition.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            parseCompression(cfg.Compression),
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
	}
	return newProducer(w, cfg), nil
}

// NewProducerWithWriter wraps an existing writer; the topic still comes from opts.
func NewProducerWithWriter(w MessageWriter, opts ...ProducerOption) *Producer {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newProducer(w, cfg)
}

func defaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		RequiredAcks: 1,
		Compression:  "snappy",
		MaxAttempts:  3,
		WriteTimeout: 5 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
}

func newProducer(w MessageWriter, cfg *ProducerConfig) *Producer {
	return &Producer{
		writer:  w,
		topic:   cfg.Topic,
		comp:    cfg.Compression,
		metrics: newProducerMetrics(cfg.Registerer),
	}
}

// Topic returns the destination topic.
func (p *Producer) Topic() string { return p.topic }

// Publish sends one message.
func (p *Producer) Publish(ctx context.Context, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, []Message{{Key: key, Value: value}})
}

// PublishBatch sends messages in a single write.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	msgs := make([]kafka.Message, 0, len(messages))
	var total int64
	for _, m := range messages {
		v, err := encodeValue(m.Value)
		if err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: m.Key, Value: v, Time: start})
		total += int64(len(v))
	}

	if nw, ok := p.writer.(*kafka.Writer); !ok || nw.Topic == "" {
		for i := range msgs {
			msgs[i].Topic = p.topic
		}
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	p.metrics.observe(p.topic, p.comp, total, len(msgs), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(value)
	}
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Snappy
	}
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &producerMetrics{
		messages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amd_kafka_producer_messages_total",
				Help: "Total messages published to Kafka",
			},
			[]string{"topic", "compression", "result"},
		),
		bytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amd_kafka_producer_bytes_total",
				Help: "Total payload bytes published",
			},
			[]string{"topic", "compression"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "amd_kafka_producer_publish_seconds",
				Help:    "Publish latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic"},
		),
	}
}

func (m *producerMetrics) observe(topic, comp string, bytes int64, count int, dur time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, comp, result).Add(float64(count))
	m.bytes.WithLabelValues(topic, comp).Add(float64(bytes))
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}
