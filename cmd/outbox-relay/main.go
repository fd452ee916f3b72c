package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/app/api"
	platformkafka "github.com/Apurer/go-gin-storefront/internal/platform/kafka"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, "storefront-outbox-relay")
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()
	logger := instruments.Logger

	stores, cleanup := api.BuildOrderStores(ctx, cfg, logger)
	defer cleanup()
	if stores.Backend != api.BackendPostgres {
		logger.Error("outbox relay requires POSTGRES_DSN")
		os.Exit(1)
	}

	writer, err := platformkafka.NewClient(cfg.KafkaBrokers).NewWriter(cfg.KafkaTopic)
	if err != nil {
		logger.Error("outbox relay requires KAFKA_BROKERS", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer writer.Close()

	relay := outbox.NewRelay(
		stores.Outbox,
		writer,
		outbox.WithInterval(cfg.OutboxInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithLogger(logger),
	)
	logger.Info("outbox relay started", slog.String("topic", cfg.KafkaTopic), slog.Duration("interval", cfg.OutboxInterval))
	if err := relay.Run(ctx); err != nil {
		logger.Error("outbox relay exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("outbox relay stopped")
}
