package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// AttrEvent is the message attribute carrying the event name.
const AttrEvent = "event"

// Envelope is the JSON body of every domain event message.
type Envelope struct {
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EventPublisher publishes domain events as JSON envelopes on one channel.
type EventPublisher struct {
	mq      *MQ
	channel string
	log     *slog.Logger
	now     func() time.Time
}

func NewEventPublisher(mq *MQ, channel string, log *slog.Logger) *EventPublisher {
	return &EventPublisher{
		mq:      mq,
		channel: channel,
		log:     log,
		now:     time.Now,
	}
}

// Publish encodes payload and sends it with the event name as attribute.
func (p *EventPublisher) Publish(ctx context.Context, name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", name, err)
	}
	data, err := json.Marshal(Envelope{
		Event:      name,
		OccurredAt: p.now().UTC(),
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", name, err)
	}

	id, err := p.mq.Publish(ctx, p.channel, data, map[string]string{
		AttrEvent:      name,
		"content_type": "application/json",
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	p.log.Debug("event published", "event", name, "message_id", id, "backend", p.mq.Name())
	return nil
}

// DecodeEnvelope parses a message produced by EventPublisher.
func DecodeEnvelope(msg Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	if env.Event == "" {
		env.Event = msg.Attributes[AttrEvent]
	}
	return env, nil
}
