package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderPlacedEvent_PayloadCarriesCapturedPrices(t *testing.T) {
	order := &Order{
		ID:          42,
		UserID:      3,
		TotalAmount: decimal.RequireFromString("20.00"),
		Items:       []LineItem{{ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("10")}},
	}
	event, err := NewOrderPlacedEvent(order, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, EventOrderPlaced, event.Type)
	assert.Equal(t, int64(42), event.AggregateID)
	assert.NotEmpty(t, event.ID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "20.00", payload["totalAmount"])
	items := payload["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "10.00", items[0].(map[string]any)["unitPrice"])
}

func TestErrorJSONRoundTrip(t *testing.T) {
	original := PriceMismatch(7, decimal.RequireFromString("12.00"), decimal.RequireFromString("10.00"))
	body, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Error
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, KindPriceMismatch, decoded.Kind)
	assert.Equal(t, int64(7), decoded.ProductID)
	assert.True(t, decoded.Expected.Equal(decimal.NewFromInt(12)))
	assert.True(t, decoded.Received.Equal(decimal.NewFromInt(10)))
	assert.ErrorIs(t, &decoded, ErrPriceMismatch)
}
