package telemetry

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider initializes the Prometheus exporter and MeterProvider.
// It returns an http.Handler for the /metrics endpoint and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	// Go runtime metrics (GC, goroutines, heap) on the same exporter.
	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, nil, err
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// ── Business counters ────────────────────────────────────────────────────────
// Instruments are created from the global meter on first use, so they are
// no-ops until InitMeterProvider runs (unit tests never call it).

type counters struct {
	ordersCreated     metric.Int64Counter
	ordersCancelled   metric.Int64Counter
	stockRejections   metric.Int64Counter
	cashMovements     metric.Int64Counter
	eventsDropped     metric.Int64Counter
	eventsDeadLetters metric.Int64Counter
}

var (
	once sync.Once
	c    counters
)

func instruments() *counters {
	once.Do(func() {
		m := otel.Meter("perfumeria")
		c.ordersCreated, _ = m.Int64Counter("orders_created_total",
			metric.WithDescription("Orders persisted"))
		c.ordersCancelled, _ = m.Int64Counter("orders_cancelled_total",
			metric.WithDescription("Orders cancelled with stock restored"))
		c.stockRejections, _ = m.Int64Counter("stock_reservation_failures_total",
			metric.WithDescription("Reservations rejected for insufficient stock"))
		c.cashMovements, _ = m.Int64Counter("cash_movements_total",
			metric.WithDescription("Cash ledger entries appended"))
		c.eventsDropped, _ = m.Int64Counter("events_dropped_total",
			metric.WithDescription("Events rejected by a full bus queue"))
		c.eventsDeadLetters, _ = m.Int64Counter("events_dead_lettered_total",
			metric.WithDescription("Events moved to the dead letter queue"))
	})
	return &c
}

func OrderCreated(ctx context.Context, source, paymentMethod string) {
	instruments().ordersCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("payment_method", paymentMethod),
	))
}

func OrderCancelled(ctx context.Context) {
	instruments().ordersCancelled.Add(ctx, 1)
}

func StockRejected(ctx context.Context, movementType string) {
	instruments().stockRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("type", movementType)))
}

func CashMovement(ctx context.Context, movementType string) {
	instruments().cashMovements.Add(ctx, 1, metric.WithAttributes(attribute.String("type", movementType)))
}

func EventDropped(ctx context.Context, name string) {
	instruments().eventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("event", name)))
}

func EventDeadLettered(ctx context.Context, name, listener string) {
	instruments().eventsDeadLetters.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", name),
		attribute.String("listener", listener),
	))
}
