package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/shared/projection"
)

// PlaceOrderInput is a checkout request as received from the client.
// Line items and the declared total stay raw until validated.
type PlaceOrderInput struct {
	UserID          int64
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	Notes           string
	Items           []domain.RawLineItem
	DeclaredTotal   string
	IdempotencyKey  string
}

// ValidatedOrder is a cart that passed validation: prices are catalog prices
// and Total is the exact sum of their subtotals.
type ValidatedOrder struct {
	Contact         domain.Contact
	ShippingAddress string
	Notes           string
	Items           []domain.LineItem
	Total           decimal.Decimal
}

// Quote is the outcome of validating a cart without placing it.
type Quote struct {
	Items []domain.LineItem
	Total decimal.Decimal
}

// TransitionOrderInput requests a status change on behalf of Actor.
type TransitionOrderInput struct {
	OrderID int64
	Status  string
	Actor   string
}

// OrderFilter narrows order listings. From is inclusive, To is exclusive.
type OrderFilter struct {
	Status *domain.Status
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// Page bounds a listing.
type Page struct {
	Offset int
	Limit  int
}

// ListOrdersInput combines filter and paging for listOrders.
type ListOrdersInput struct {
	Filter OrderFilter
	Page   Page
}

// OrderProjection transports an order with its persistence metadata.
type OrderProjection = projection.Projection[*domain.Order]

// NewOrderProjection wraps an order with persistence timestamps.
func NewOrderProjection(order *domain.Order, createdAt, updatedAt time.Time) *OrderProjection {
	if order == nil {
		return nil
	}
	return projection.New(order, createdAt, updatedAt)
}

// OrderPage is one page of orders, newest first, plus the total matching count.
type OrderPage = projection.Page[*OrderProjection]
