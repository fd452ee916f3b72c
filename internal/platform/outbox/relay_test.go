package outbox_test

import (
	"context"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func placeOne(t *testing.T, store *memory.Store) *ordertypes.OrderProjection {
	t.Helper()
	store.SeedProducts(domain.Product{ID: 7, Name: "Desk Mat", Price: decimal.RequireFromString("10.00"), StockQuantity: 5, Available: true})
	svc := application.NewService(store, store)
	placed, err := svc.PlaceOrder(context.Background(), ordertypes.PlaceOrderInput{
		UserID:          11,
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		CustomerPhone:   "+44 20 0000",
		ShippingAddress: "12 Analytical Way",
		Items:           []domain.RawLineItem{{ProductID: "7", Quantity: "2", UnitPrice: "10.00"}},
		DeclaredTotal:   "20.00",
	})
	require.NoError(t, err)
	return placed
}

func TestRelay_PublishesOnceAndMarks(t *testing.T) {
	store := memory.NewStore()
	placed := placeOne(t, store)
	writer := &fakeWriter{}
	relay := outbox.NewRelay(store, writer, outbox.WithBatchSize(10))

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, []byte("1"), writer.messages[0].Key)
	assert.Equal(t, string(domain.EventOrderPlaced), headerValue(writer.messages[0], "event-type"))
	assert.Contains(t, string(writer.messages[0].Value), `"totalAmount":"20.00"`)
	assert.Equal(t, int64(1), placed.Entity.ID)

	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, writer.messages, 1)
}

func TestRelay_PublishFailureKeepsEventsPending(t *testing.T) {
	store := memory.NewStore()
	placeOne(t, store)
	writer := &fakeWriter{err: errors.New("broker down")}
	relay := outbox.NewRelay(store, writer)

	_, err := relay.RunOnce(context.Background())
	require.Error(t, err)

	pending, err := store.FetchPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRelay_RunStopsWithContext(t *testing.T) {
	store := memory.NewStore()
	placeOne(t, store)
	writer := &fakeWriter{}
	relay := outbox.NewRelay(store, writer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, relay.Run(ctx))
	assert.Len(t, writer.messages, 1)
}
