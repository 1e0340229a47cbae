package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"perfumeria/internal/event"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestHeaderCarrier_SetReplacesExisting(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "event", Value: []byte("a")}}}
	c := headerCarrier{msg: &msg}

	c.Set("event", "b")
	c.Set("traceparent", "00-x")

	assert.Equal(t, "b", c.Get("event"))
	assert.Equal(t, "00-x", c.Get("traceparent"))
	assert.ElementsMatch(t, []string{"event", "traceparent"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}

func TestProducer_InjectsTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "perfumeria.events"}
	require.NoError(t, p.Send(ctx, "k1", []byte(`{}`)))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "k1", string(msg.Key))

	extracted := otel.GetTextMapPropagator().Extract(context.Background(), headerCarrier{msg: &msg})
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(extracted).TraceID())
}

func TestRelay_KeysByEntityAndWrapsEnvelope(t *testing.T) {
	w := &fakeWriter{}
	r := NewRelay(&Producer{writer: w, topic: "perfumeria.events"})

	orderID := uuid.New()
	require.NoError(t, r.Handle(context.Background(), event.OrderStatusChanged{OrderID: orderID, From: "pending", To: "shipped"}))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, orderID.String(), string(msg.Key))

	var env struct {
		Event   string         `json:"event"`
		Channel string         `json:"channel"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "order.status_changed", env.Event)
	assert.Equal(t, event.ChannelOrders, env.Channel)
	assert.Equal(t, "shipped", env.Data["to"])
	assert.Equal(t, "order.status_changed", headerCarrier{msg: &msg}.Get("event"))
}

func TestRelay_WriteErrorIsReturned(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	r := NewRelay(&Producer{writer: w, topic: "t"})

	err := r.Handle(context.Background(), event.ProductStockUpdated{ProductID: uuid.New()})
	assert.ErrorContains(t, err, "broker unavailable")
}
