package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"perfumeria/internal/event"

	"github.com/redis/go-redis/v9"
)

// Message is the JSON published on the Redis channel for each event.
type Message struct {
	Event string      `json:"event"`
	Data  event.Event `json:"data"`
}

type pubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Broadcaster pushes every event to its Redis pub/sub channel (orders,
// products, cash) so dashboards can follow stock and order changes live.
type Broadcaster struct {
	rdb    pubSub
	prefix string
}

// NewBroadcaster publishes on "<prefix><channel>". An empty prefix uses the
// bare channel names.
func NewBroadcaster(rdb pubSub, prefix string) *Broadcaster {
	return &Broadcaster{rdb: rdb, prefix: prefix}
}

func (b *Broadcaster) Handle(ctx context.Context, ev event.Event) error {
	data, err := json.Marshal(Message{Event: ev.Name(), Data: ev})
	if err != nil {
		return fmt.Errorf("broadcast: marshal %s: %w", ev.Name(), err)
	}
	if err := b.rdb.Publish(ctx, b.prefix+ev.Channel(), data).Err(); err != nil {
		return fmt.Errorf("broadcast: publish %s: %w", ev.Name(), err)
	}
	return nil
}
