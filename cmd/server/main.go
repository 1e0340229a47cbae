package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perfumeria/internal/config"
	"perfumeria/internal/event"
	"perfumeria/internal/infra"
	"perfumeria/internal/messaging"
	"perfumeria/internal/repository"
	"perfumeria/internal/router"
	"perfumeria/internal/telemetry"
	"perfumeria/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTelEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, version, cfg.OTelEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init tracer provider")
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, version)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init meter provider")
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// ── Event bus ────────────────────────────────────────────────────────────
	// Listeners are wired here (composition root) so they get the concrete
	// infrastructure without services knowing about it.
	bus := event.NewBus(cfg.EventQueueSize,
		event.WithDeadLetter(worker.NewRedisDeadLetter(rdb)),
		event.WithDropHook(func(ev event.Event) { telemetry.EventDropped(context.Background(), ev.Name()) }),
	)

	notifier := worker.NewNotifier(repository.NewNotificationRepository(db))
	for _, name := range []string{
		event.OrderCreated{}.Name(),
		event.OrderStatusChanged{}.Name(),
		event.PaymentConfirmed{}.Name(),
		event.CashSessionClosed{}.Name(),
	} {
		bus.Subscribe(name, "notifier", notifier)
	}
	bus.Subscribe(event.AllEvents, "broadcaster", worker.NewBroadcaster(rdb, "perfumeria:"))

	var producer *messaging.Producer
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer = messaging.NewProducer(brokers, cfg.KafkaTopic)
		bus.Subscribe(event.AllEvents, "kafka-relay", messaging.NewRelay(producer))
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("kafka relay enabled")
	}
	bus.Start(cfg.EventWorkers)

	documents := infra.NewDocumentClient(
		cfg.DocumentAPIURL,
		time.Duration(cfg.DocumentAPITimeoutSeconds)*time.Second,
		infra.NewCircuitBreaker(infra.DefaultCBConfig()),
	)

	r := router.New(cfg, router.Deps{
		DB:        db,
		Redis:     rdb,
		Events:    bus,
		Documents: documents,
		Metrics:   metricsHandler,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      otelhttp.NewHandler(r, cfg.ServiceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("%s listening on :%d", cfg.ServiceName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// Drain in-flight events only after HTTP stops producing them.
	if err := bus.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("event bus did not drain before timeout")
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka producer close")
		}
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	log.Info().Msg("server exited")
}
