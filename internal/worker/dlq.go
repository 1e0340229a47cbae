package worker

// dlq.go: dead letter queue
// Events whose listener failed every attempt are parked in a Redis list for
// manual inspection: dlq:events

import (
	"context"
	"encoding/json"
	"time"

	"perfumeria/internal/event"
	"perfumeria/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQKey = "dlq:events"

// DLQEntry wraps a failed event with metadata for debugging.
type DLQEntry struct {
	Event    string          `json:"event"`
	Channel  string          `json:"channel"`
	Listener string          `json:"listener"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	FailedAt string          `json:"failed_at"` // RFC 3339
	Attempts int             `json:"attempts"`
}

type listStore interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// RedisDeadLetter implements event.DeadLetterSink.
type RedisDeadLetter struct {
	rdb listStore
	now func() time.Time
}

var _ event.DeadLetterSink = (*RedisDeadLetter)(nil)

func NewRedisDeadLetter(rdb listStore) *RedisDeadLetter {
	return &RedisDeadLetter{rdb: rdb, now: time.Now}
}

func (d *RedisDeadLetter) DeadLetter(ctx context.Context, ev event.Event, listener string, reason error, attempts int) {
	telemetry.EventDeadLettered(ctx, ev.Name(), listener)

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("event", ev.Name()).Msg("dlq: failed to marshal event")
		return
	}
	data, err := json.Marshal(DLQEntry{
		Event:    ev.Name(),
		Channel:  ev.Channel(),
		Listener: listener,
		Payload:  payload,
		Reason:   reason.Error(),
		FailedAt: d.now().UTC().Format(time.RFC3339),
		Attempts: attempts,
	})
	if err != nil {
		log.Error().Err(err).Str("event", ev.Name()).Msg("dlq: failed to marshal entry")
		return
	}

	if err := d.rdb.LPush(ctx, DLQKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", DLQKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("event", ev.Name()).
		Str("listener", listener).
		Str("reason", reason.Error()).
		Int("attempts", attempts).
		Msg("dlq: event moved to dead letter queue")
}

// Length returns the number of parked events, for monitoring.
func (d *RedisDeadLetter) Length(ctx context.Context) (int64, error) {
	return d.rdb.LLen(ctx, DLQKey).Result()
}
