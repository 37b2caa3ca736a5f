package mq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskhub/apiserver/config"
)

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Returning an error nacks it for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by each broker client.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
	name    string
}

// New wraps backend under name for logging.
func New(name string, backend Backend) *MQ {
	return &MQ{backend: backend, name: name}
}

// Open connects to the backend selected by cfg.Backend. "none" and the
// empty string yield a backend that drops published messages.
func Open(ctx context.Context, cfg config.MQConfig, log *slog.Logger) (*MQ, error) {
	switch cfg.Backend {
	case "", "none":
		return New("none", Nop{}), nil
	case "rabbitmq":
		client, err := NewRabbitMQClient(cfg.RabbitMQ, log)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return New(cfg.Backend, client), nil
	case "pubsub":
		client, err := NewPubSubClient(ctx, cfg.PubSub, log)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return New(cfg.Backend, client), nil
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.Backend)
	}
}

// Name reports which backend is in use.
func (m *MQ) Name() string {
	return m.name
}

func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe blocks consuming channel until ctx is done or the backend fails.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	return m.backend.Close()
}

// Nop drops every published message. Subscribe blocks until ctx is done.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

func (Nop) Subscribe(ctx context.Context, _ string, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (Nop) Close() error { return nil }
