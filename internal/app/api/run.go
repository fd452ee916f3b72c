package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	storefrontserver "github.com/Apurer/go-gin-storefront/go"
	orderobs "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	platformmetrics "github.com/Apurer/go-gin-storefront/internal/platform/metrics"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

const serviceName = "storefront-api"

// Run boots the storefront HTTP API and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores := BuildOrderStores(ctx, cfg, logger)
	defer cleanupStores()
	orderService := NewOrderService(stores, cfg, instruments)

	workflows, closeWorkflows := SelectOrchestrator(cfg, stores, orderService, instruments, ConnectTemporalClient)
	defer closeWorkflows()

	engine := NewEngine(logger, platformmetrics.NewServerMetrics("api", nil), storefrontserver.ApiHandleFunctions{
		OrdersAPI:  storefrontserver.NewOrdersAPI(orderService, workflows),
		CatalogAPI: storefrontserver.NewCatalogAPI(orderService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("storefront API listening", slog.String("addr", srv.Addr), slog.String("store", stores.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("storefront API server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
		return err
	}
	logger.Info("storefront API stopped")
	return nil
}

// NewOrderService builds the order service with its observability decorator.
func NewOrderService(stores OrderStores, cfg Config, instruments *platformobservability.Instruments) orderports.Service {
	core := orderapp.NewService(
		stores.Store,
		stores.Catalog,
		orderapp.WithIdempotencyStore(stores.Idempotency),
		orderapp.WithRetryPolicy(cfg.Retry),
	)
	if instruments == nil {
		return orderobs.New(core)
	}
	return orderobs.New(
		core,
		orderobs.WithLogger(instruments.Logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
}

// NewEngine installs middleware before routes so every handler is traced, measured and logged.
func NewEngine(logger *slog.Logger, metrics *platformmetrics.ServerMetrics, handlers storefrontserver.ApiHandleFunctions) *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		storefrontserver.RequestID(),
		otelgin.Middleware(serviceName),
		metrics.Middleware(),
		storefrontserver.AccessLog(logger),
	)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	return storefrontserver.NewRouterWithGinEngine(engine, handlers)
}
