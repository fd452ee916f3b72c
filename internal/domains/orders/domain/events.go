package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies an order event published through the outbox.
type EventType string

const (
	EventOrderPlaced        EventType = "orders.order.placed"
	EventOrderStatusChanged EventType = "orders.order.status_changed"
)

// Event is an order fact recorded in the same transaction as the change it describes.
type Event struct {
	ID          string
	Type        EventType
	AggregateID int64
	Payload     []byte
	OccurredAt  time.Time
}

type orderPlacedPayload struct {
	OrderID     int64           `json:"orderId"`
	UserID      int64           `json:"userId"`
	TotalAmount string          `json:"totalAmount"`
	Items       []eventLineItem `json:"items"`
}

type eventLineItem struct {
	ProductID int64  `json:"productId"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

type statusChangedPayload struct {
	OrderID int64  `json:"orderId"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	Actor   string `json:"actor"`
}

// NewOrderPlacedEvent describes a freshly committed order.
func NewOrderPlacedEvent(order *Order, at time.Time) (Event, error) {
	items := make([]eventLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, eventLineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: FormatAmount(item.UnitPrice),
		})
	}
	return newEvent(EventOrderPlaced, order.ID, at, orderPlacedPayload{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: FormatAmount(order.TotalAmount),
		Items:       items,
	})
}

// NewStatusChangedEvent describes an applied status transition.
func NewStatusChangedEvent(orderID int64, from, to Status, actor string, at time.Time) (Event, error) {
	return newEvent(EventOrderStatusChanged, orderID, at, statusChangedPayload{
		OrderID: orderID,
		From:    from,
		To:      to,
		Actor:   actor,
	})
}

func newEvent(eventType EventType, aggregateID int64, at time.Time, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     body,
		OccurredAt:  at,
	}, nil
}
