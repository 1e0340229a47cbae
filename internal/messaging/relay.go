package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"perfumeria/internal/event"

	"github.com/segmentio/kafka-go"
)

// Envelope is the record value written for every domain event.
type Envelope struct {
	Event      string      `json:"event"`
	Channel    string      `json:"channel"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       event.Event `json:"data"`
}

type sender interface {
	Send(ctx context.Context, key string, value []byte, headers ...kafka.Header) error
}

// Relay is an event.Listener that forwards events to Kafka for downstream
// consumers (analytics, ERP sync).
type Relay struct {
	producer sender
	now      func() time.Time
}

func NewRelay(p *Producer) *Relay {
	return &Relay{producer: p, now: time.Now}
}

func (r *Relay) Handle(ctx context.Context, ev event.Event) error {
	value, err := json.Marshal(Envelope{
		Event:      ev.Name(),
		Channel:    ev.Channel(),
		OccurredAt: r.now().UTC(),
		Data:       ev,
	})
	if err != nil {
		return fmt.Errorf("relay: marshal %s: %w", ev.Name(), err)
	}

	key := ev.Channel()
	if k, ok := ev.(event.Keyed); ok {
		key = k.Key()
	}
	return r.producer.Send(ctx, key, value, kafka.Header{Key: "event", Value: []byte(ev.Name())})
}
