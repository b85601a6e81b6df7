package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	reg := prometheus.NewRegistry()
	p := NewProducerWithWriter(w, WithTopic("amd.regime.events"), WithRegisterer(reg))

	err := p.Publish(context.Background(), []byte("NQ=F"), map[string]int{"cycles": 3})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	m := w.msgs[0]
	assert.Equal(t, "amd.regime.events", m.Topic)
	assert.Equal(t, []byte("NQ=F"), m.Key)
	var got map[string]int
	require.NoError(t, json.Unmarshal(m.Value, &got))
	assert.Equal(t, 3, got["cycles"])

	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.messages.WithLabelValues("amd.regime.events", "snappy", "ok")))
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducerPublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, WithTopic("t"))

	err := p.PublishBatch(context.Background(), []Message{{Value: "a"}, {Value: []byte("b")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestProducerEmptyBatchIsNoop(t *testing.T) {
	w := &recordingWriter{err: errors.New("unused")}
	p := NewProducerWithWriter(w, WithTopic("t"))
	assert.NoError(t, p.PublishBatch(context.Background(), nil))
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewProducer(WithTopic("t"))
	assert.Error(t, err)
	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}))
	assert.Error(t, err)
}
