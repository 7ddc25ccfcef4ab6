package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rentalyard/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, topic: "equipment-events"}

	at := time.Date(2025, 10, 8, 9, 0, 0, 0, time.UTC)
	ev := events.Event{Type: events.TypeReturned, EquipmentID: "unit-1", Status: "IN_MAINTENANCE", OccurredAt: at}
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, []byte("unit-1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte(events.TypeReturned), msg.Headers[0].Value)

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.Type, decoded.Type)
	assert.Equal(t, ev.Status, decoded.Status)
}

func TestPublisher_WriteError(t *testing.T) {
	p := &Publisher{writer: &fakeWriter{err: errors.New("leader not available")}, topic: "t"}

	err := p.Publish(context.Background(), events.Event{Type: events.TypeReserved})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic t")
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, (&Publisher{writer: w}).Close())
	assert.True(t, w.closed)
}
