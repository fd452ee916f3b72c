package api

import (
	"log/slog"

	"go.temporal.io/sdk/client"

	orderworkflows "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/workflows"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

// TemporalDialer opens a Temporal client for the given configuration.
type TemporalDialer func(cfg Config, instruments *platformobservability.Instruments) (client.Client, error)

// SelectOrchestrator picks how the API places orders. Temporal is used only when the
// worker can see the same orders, which requires the postgres store; otherwise
// placement runs inline. The returned func releases the Temporal client, if any.
func SelectOrchestrator(cfg Config, stores OrderStores, service orderports.Service, instruments *platformobservability.Instruments, dial TemporalDialer) (orderports.WorkflowOrchestrator, func()) {
	logger := effectiveLogger(instruments)
	inline := orderworkflows.NewInlineOrderWorkflows(service)
	if stores.Backend != BackendPostgres {
		logger.Warn("Temporal workflows skipped, the order store is private to this process; placing orders inline",
			slog.String("store", stores.Backend))
		return inline, func() {}
	}
	temporalClient, err := dial(cfg, instruments)
	if err != nil {
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	return orderworkflows.NewTemporalOrderWorkflows(temporalClient), temporalClient.Close
}
