package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/config"
	"github.com/taskhub/apiserver/internal/logging"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type recordingBackend struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (b *recordingBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	b.msgs = append(b.msgs, published{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func (b *recordingBackend) Subscribe(context.Context, string, Handler) error { return nil }
func (b *recordingBackend) Close() error                                     { return nil }

func TestEventPublisherEnvelope(t *testing.T) {
	backend := &recordingBackend{}
	pub := NewEventPublisher(New("test", backend), "task-events", logging.Discard())
	pub.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := pub.Publish(context.Background(), "task.created", map[string]any{"task_id": 7})
	require.NoError(t, err)
	require.Len(t, backend.msgs, 1)

	msg := backend.msgs[0]
	assert.Equal(t, "task-events", msg.channel)
	assert.Equal(t, "task.created", msg.attrs[AttrEvent])
	assert.Equal(t, "application/json", msg.attrs["content_type"])

	env, err := DecodeEnvelope(Message{ID: "msg-1", Data: msg.data})
	require.NoError(t, err)
	assert.Equal(t, "task.created", env.Event)
	assert.True(t, env.OccurredAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	var payload map[string]int
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, 7, payload["task_id"])
}

func TestEventPublisherBackendError(t *testing.T) {
	backend := &recordingBackend{err: errors.New("broker down")}
	pub := NewEventPublisher(New("test", backend), "task-events", logging.Discard())

	err := pub.Publish(context.Background(), "task.deleted", struct{}{})
	assert.ErrorContains(t, err, "broker down")
}

func TestEventPublisherEncodeError(t *testing.T) {
	pub := NewEventPublisher(New("test", &recordingBackend{}), "task-events", logging.Discard())
	err := pub.Publish(context.Background(), "task.created", make(chan int))
	assert.Error(t, err)
}

func TestDecodeEnvelopeFallsBackToAttribute(t *testing.T) {
	env, err := DecodeEnvelope(Message{
		Data:       []byte(`{"payload":{}}`),
		Attributes: map[string]string{AttrEvent: "comment.created"},
	})
	require.NoError(t, err)
	assert.Equal(t, "comment.created", env.Event)

	_, err = DecodeEnvelope(Message{Data: []byte("not json")})
	assert.Error(t, err)
}

func TestOpenNone(t *testing.T) {
	m, err := Open(context.Background(), config.MQConfig{Backend: "none"}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "none", m.Name())

	id, err := m.Publish(context.Background(), "x", []byte("y"), nil)
	require.NoError(t, err)
	assert.Empty(t, id)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Subscribe(ctx, "x", nil), context.Canceled)
	assert.NoError(t, m.Close())
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.MQConfig{Backend: "kafka"}, logging.Discard())
	assert.Error(t, err)
}

func TestHeadersToAttributes(t *testing.T) {
	assert.Nil(t, headersToAttributes(nil))

	attrs := headersToAttributes(amqp.Table{
		"event":   "task.created",
		"raw":     []byte("bytes"),
		"attempt": int32(3),
	})
	assert.Equal(t, map[string]string{
		"event":   "task.created",
		"raw":     "bytes",
		"attempt": "3",
	}, attrs)
}
