package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	ordermemory "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/workflows"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

func memoryStores() (OrderStores, *ordermemory.Store) {
	store := ordermemory.NewStore()
	store.SeedProducts(ordermemory.DemoCatalog()...)
	return OrderStores{Store: store, Catalog: store, Idempotency: store, Outbox: store, Backend: BackendMemory}, store
}

func testRetry() orderapp.RetryPolicy {
	return orderapp.RetryPolicy{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

func bufferedInstruments(buf *bytes.Buffer) *platformobservability.Instruments {
	return &platformobservability.Instruments{Logger: slog.New(slog.NewJSONHandler(buf, nil))}
}

func TestSelectOrchestrator_MemoryStoreStaysInline(t *testing.T) {
	stores, store := memoryStores()
	var logs bytes.Buffer
	instruments := bufferedInstruments(&logs)
	service := NewOrderService(stores, Config{Retry: testRetry()}, nil)

	dialed := false
	dial := func(Config, *platformobservability.Instruments) (client.Client, error) {
		dialed = true
		return mocks.NewClient(t), nil
	}
	workflows, release := SelectOrchestrator(Config{}, stores, service, instruments, dial)
	defer release()

	assert.False(t, dialed)
	assert.IsType(t, &orderworkflows.InlineOrderWorkflows{}, workflows)
	assert.Contains(t, logs.String(), "Temporal workflows skipped")
	assert.Contains(t, logs.String(), `"store":"memory"`)

	ctx := context.Background()
	placed, err := workflows.PlaceOrder(ctx, ordertypes.PlaceOrderInput{
		UserID:          11,
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		CustomerPhone:   "+44 20 0000",
		ShippingAddress: "12 Analytical Way",
		Items:           []domain.RawLineItem{{ProductID: "7", Quantity: "2", UnitPrice: "10.00"}},
		DeclaredTotal:   "20.00",
	})
	require.NoError(t, err)
	fetched, err := service.GetOrder(ctx, placed.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.Entity.ID, fetched.Entity.ID)
	product, _ := store.Product(7)
	assert.Equal(t, int64(3), product.StockQuantity)
}

func TestSelectOrchestrator_PostgresUsesTemporal(t *testing.T) {
	stores, _ := memoryStores()
	stores.Backend = BackendPostgres
	service := NewOrderService(stores, Config{Retry: testRetry()}, nil)

	c := mocks.NewClient(t)
	c.On("Close").Return().Once()
	dial := func(Config, *platformobservability.Instruments) (client.Client, error) {
		return c, nil
	}
	workflows, release := SelectOrchestrator(Config{TemporalNamespace: "default"}, stores, service, nil, dial)
	assert.IsType(t, &orderworkflows.TemporalOrderWorkflows{}, workflows)
	release()
}

func TestSelectOrchestrator_DialFailureFallsBackInline(t *testing.T) {
	stores, _ := memoryStores()
	stores.Backend = BackendPostgres
	var logs bytes.Buffer
	service := NewOrderService(stores, Config{Retry: testRetry()}, nil)

	dial := func(Config, *platformobservability.Instruments) (client.Client, error) {
		return nil, errors.New("connection refused")
	}
	workflows, release := SelectOrchestrator(Config{}, stores, service, bufferedInstruments(&logs), dial)
	defer release()

	assert.IsType(t, &orderworkflows.InlineOrderWorkflows{}, workflows)
	assert.Contains(t, logs.String(), "connection refused")
}
