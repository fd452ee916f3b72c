package mapper

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// Scalar keeps any JSON scalar as its literal text so that malformed numbers
// reach validation instead of failing at decode time. Strings are unquoted.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*s = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*s = Scalar(text)
	default:
		*s = Scalar(trimmed)
	}
	return nil
}

// LineItemRequest is one cart line as posted by the client.
type LineItemRequest struct {
	ProductID Scalar `json:"productId"`
	Quantity  Scalar `json:"quantity"`
	UnitPrice Scalar `json:"unitPrice"`
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	CustomerName    string            `json:"customerName"`
	CustomerEmail   string            `json:"customerEmail"`
	CustomerPhone   string            `json:"customerPhone"`
	ShippingAddress string            `json:"shippingAddress"`
	Notes           string            `json:"notes,omitempty"`
	Items           []LineItemRequest `json:"items"`
	TotalAmount     Scalar            `json:"totalAmount"`
}

// TransitionRequest asks for a new order status.
type TransitionRequest struct {
	Status string `json:"status"`
}

// LineItem is the HTTP representation of a priced order line.
type LineItem struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"productId"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
}

// Order is the HTTP representation of a placed order.
type Order struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"userId"`
	CustomerName    string     `json:"customerName"`
	CustomerEmail   string     `json:"customerEmail"`
	CustomerPhone   string     `json:"customerPhone"`
	ShippingAddress string     `json:"shippingAddress"`
	Notes           string     `json:"notes,omitempty"`
	TotalAmount     string     `json:"totalAmount"`
	Status          string     `json:"status"`
	Items           []LineItem `json:"items"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// OrderPage is one page of a listing.
type OrderPage struct {
	Orders  []Order `json:"orders"`
	Total   int64   `json:"total"`
	Offset  int     `json:"offset"`
	Limit   int     `json:"limit"`
	HasMore bool    `json:"hasMore"`
}

// Quote is the priced cart returned by the dry-run endpoint.
type Quote struct {
	Items       []LineItem `json:"items"`
	TotalAmount string     `json:"totalAmount"`
}

// CatalogEntry is the advisory product lookup result.
type CatalogEntry struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name,omitempty"`
	Price     string `json:"price,omitempty"`
	Stock     int64  `json:"stock"`
	Exists    bool   `json:"exists"`
}

// ToPlaceOrderInput maps the payload plus request headers into the application input.
func ToPlaceOrderInput(userID int64, idempotencyKey string, req PlaceOrderRequest) ordertypes.PlaceOrderInput {
	items := make([]domain.RawLineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.RawLineItem{
			ProductID: strings.TrimSpace(string(item.ProductID)),
			Quantity:  strings.TrimSpace(string(item.Quantity)),
			UnitPrice: strings.TrimSpace(string(item.UnitPrice)),
		})
	}
	return ordertypes.PlaceOrderInput{
		UserID:          userID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Items:           items,
		DeclaredTotal:   strings.TrimSpace(string(req.TotalAmount)),
		IdempotencyKey:  idempotencyKey,
	}
}

// FromProjection maps a stored order into its HTTP representation.
func FromProjection(p *ordertypes.OrderProjection) Order {
	if p == nil || p.Entity == nil {
		return Order{}
	}
	o := p.Entity
	return Order{
		ID:              o.ID,
		UserID:          o.UserID,
		CustomerName:    o.Contact.Name,
		CustomerEmail:   o.Contact.Email,
		CustomerPhone:   o.Contact.Phone,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		TotalAmount:     domain.FormatAmount(o.TotalAmount),
		Status:          string(o.Status),
		Items:           fromLineItems(o.Items),
		CreatedAt:       p.Metadata.CreatedAt,
		UpdatedAt:       p.Metadata.UpdatedAt,
	}
}

// FromPage maps a listing page.
func FromPage(page *ordertypes.OrderPage) OrderPage {
	if page == nil {
		return OrderPage{Orders: []Order{}}
	}
	orders := make([]Order, 0, len(page.Items))
	for _, p := range page.Items {
		orders = append(orders, FromProjection(p))
	}
	return OrderPage{Orders: orders, Total: page.Total, Offset: page.Offset, Limit: page.Limit, HasMore: page.HasMore()}
}

// FromQuote maps a validated cart.
func FromQuote(q *ordertypes.Quote) Quote {
	if q == nil {
		return Quote{Items: []LineItem{}}
	}
	return Quote{Items: fromLineItems(q.Items), TotalAmount: domain.FormatAmount(q.Total)}
}

// FromCatalogEntry maps a lookup result. Price is omitted for unknown products.
func FromCatalogEntry(entry domain.CatalogEntry) CatalogEntry {
	out := CatalogEntry{
		ProductID: entry.ProductID,
		Name:      entry.Name,
		Stock:     entry.Stock,
		Exists:    entry.Exists,
	}
	if entry.Exists {
		out.Price = domain.FormatAmount(entry.Price)
	}
	return out
}

func fromLineItems(items []domain.LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, LineItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: domain.FormatAmount(item.UnitPrice),
			Subtotal:  domain.FormatAmount(item.Subtotal()),
		})
	}
	return out
}
