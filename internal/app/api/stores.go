package api

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	ordermemory "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	ordercatalogdb "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/catalogdb"
	orderpostgres "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/postgres"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

// Store backends reported in OrderStores.Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// OrderStores bundles the storage ports one backend provides.
type OrderStores struct {
	Store       orderports.Store
	Catalog     orderports.CatalogReader
	Idempotency orderports.IdempotencyStore
	Outbox      orderports.OutboxSource
	Backend     string
}

// BuildOrderStores connects PostgreSQL when configured and falls back to the in-memory store.
// The returned cleanup closes any opened connection.
func BuildOrderStores(ctx context.Context, cfg Config, logger *slog.Logger) (OrderStores, func()) {
	db, cleanup := platformpostgres.ConnectOrFallback(ctx, cfg.PostgresDSN, platformpostgres.Options{Driver: cfg.PostgresDriver}, logger)
	if db == nil {
		store := ordermemory.NewStore()
		if cfg.SeedDemoCatalog {
			store.SeedProducts(ordermemory.DemoCatalog()...)
			logger.Info("in-memory catalog seeded with demo products")
		}
		return OrderStores{Store: store, Catalog: store, Idempotency: store, Outbox: store, Backend: BackendMemory}, cleanup
	}

	store := orderpostgres.NewStore(db, orderpostgres.WithIsolationLevel(cfg.TxIsolation))
	var catalog orderports.CatalogReader = store
	if sqlDB, err := db.DB(); err != nil {
		logger.Warn("catalog reader falls back to gorm", slog.String("error", err.Error()))
	} else {
		catalog = ordercatalogdb.NewReader(sqlDB, platformpostgres.DriverName(cfg.PostgresDriver))
	}
	if cfg.SeedDemoCatalog {
		if err := store.SeedProducts(ctx, ordermemory.DemoCatalog()...); err != nil {
			logger.Warn("failed to seed demo catalog", slog.String("error", err.Error()))
		}
	}
	logger.Info("order store configured with postgres")
	return OrderStores{Store: store, Catalog: catalog, Idempotency: store, Outbox: store, Backend: BackendPostgres}, cleanup
}

// ConnectTemporalClient dials Temporal with tracing and structured logging, unless disabled.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
