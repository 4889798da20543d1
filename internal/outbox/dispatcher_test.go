package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type stubProducer struct {
	mu     sync.Mutex
	err    error
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type memoryStore struct {
	pending   []Message
	published []int64
	dlq       map[int64]string
}

func (m *memoryStore) Claim(ctx context.Context, limit int) ([]Message, error) {
	if limit > len(m.pending) {
		limit = len(m.pending)
	}
	claimed := m.pending[:limit]
	m.pending = m.pending[limit:]
	return claimed, nil
}

func (m *memoryStore) MarkPublished(ctx context.Context, messages []Message) error {
	for _, msg := range messages {
		m.published = append(m.published, msg.EventID)
	}
	return nil
}

func (m *memoryStore) MoveToDLQ(ctx context.Context, msg Message, reason string) error {
	if m.dlq == nil {
		m.dlq = make(map[int64]string)
	}
	m.dlq[msg.EventID] = reason
	return nil
}

func pendingMessage(id int64, eventType string) Message {
	payload, _ := json.Marshal(map[string]string{"activity_id": "act-1", "owner_id": "owner-1"})
	return Message{
		EventID:       id,
		OwnerID:       "owner-1",
		AggregateType: "activity",
		AggregateID:   "act-1",
		EventType:     eventType,
		Topic:         "activity_events",
		PartitionKey:  "act-1",
		Payload:       payload,
	}
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}

func TestDispatcherPublishesMessages(t *testing.T) {
	store := &memoryStore{pending: []Message{
		pendingMessage(1, "activity.created"),
		pendingMessage(2, "activity.updated"),
	}}
	producer := &stubProducer{}
	dispatcher := NewDispatcher(store, producer, nil, 10*time.Millisecond, 5)

	beforeDelivered := testutil.ToFloat64(deliveredCounter)
	beforeHistogram := histogramSampleCount(t)

	require.NoError(t, dispatcher.processBatch(context.Background()))

	require.Len(t, producer.writes, 1)
	require.Equal(t, "activity_events", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)

	record := producer.writes[0].messages[0]
	require.Equal(t, "act-1", string(record.Key))
	require.Equal(t, []kafka.Header{
		{Key: HeaderEventType, Value: []byte("activity.created")},
		{Key: HeaderOwnerID, Value: []byte("owner-1")},
	}, record.Headers)
	require.JSONEq(t, `{"activity_id":"act-1","owner_id":"owner-1"}`, string(record.Value))

	require.InDelta(t, beforeDelivered+2, testutil.ToFloat64(deliveredCounter), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)
	require.Equal(t, []int64{1, 2}, store.published)
	require.Empty(t, store.dlq)
}

func TestDispatcherRoutesMessagesToDLQOnFailure(t *testing.T) {
	store := &memoryStore{pending: []Message{pendingMessage(7, "activity.deleted")}}
	producer := &stubProducer{err: errors.New("kafka write failed")}
	dispatcher := NewDispatcher(store, producer, nil, 10*time.Millisecond, 5)

	beforeFailed := testutil.ToFloat64(failedCounter)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues("activity_events"))

	require.NoError(t, dispatcher.processBatch(context.Background()))

	require.InDelta(t, beforeFailed+1, testutil.ToFloat64(failedCounter), 0.0001)
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues("activity_events")), 0.0001)
	require.Contains(t, store.dlq[7], "kafka write failed")
	require.Contains(t, store.dlq[7], "topic=activity_events")
	require.Equal(t, []int64{7}, store.published)
}

func TestDispatcherRejectsCorruptPayload(t *testing.T) {
	broken := pendingMessage(9, "activity.created")
	broken.Payload = json.RawMessage(`{"activity_id":`)
	store := &memoryStore{pending: []Message{broken}}
	producer := &stubProducer{}
	dispatcher := NewDispatcher(store, producer, nil, 10*time.Millisecond, 5)

	require.NoError(t, dispatcher.processBatch(context.Background()))
	require.Empty(t, producer.writes)
	require.Contains(t, store.dlq[9], "invalid payload")
}

func TestDispatcherIdleBatch(t *testing.T) {
	store := &memoryStore{}
	producer := &stubProducer{}
	dispatcher := NewDispatcher(store, producer, nil, 10*time.Millisecond, 5)

	require.NoError(t, dispatcher.processBatch(context.Background()))
	require.Empty(t, producer.writes)
	require.Empty(t, store.published)
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	dispatcher := NewDispatcher(&memoryStore{}, &stubProducer{}, nil, 5*time.Millisecond, 5)
	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after cancel")
	}
}
