package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind names a rejection category.
type Kind string

const (
	KindMissingField      Kind = "MissingField"
	KindInvalidLineItem   Kind = "InvalidLineItem"
	KindProductNotFound   Kind = "ProductNotFound"
	KindPriceMismatch     Kind = "PriceMismatch"
	KindTotalMismatch     Kind = "TotalMismatch"
	KindInsufficientStock Kind = "InsufficientStock"
	KindInvalidTransition Kind = "InvalidTransition"
)

var (
	ErrMissingField      = errors.New("required field missing")
	ErrInvalidLineItem   = errors.New("line item is malformed")
	ErrProductNotFound   = errors.New("product not found")
	ErrPriceMismatch     = errors.New("price does not match catalog")
	ErrTotalMismatch     = errors.New("declared total does not match line items")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

var kindSentinels = map[Kind]error{
	KindMissingField:      ErrMissingField,
	KindInvalidLineItem:   ErrInvalidLineItem,
	KindProductNotFound:   ErrProductNotFound,
	KindPriceMismatch:     ErrPriceMismatch,
	KindTotalMismatch:     ErrTotalMismatch,
	KindInsufficientStock: ErrInsufficientStock,
	KindInvalidTransition: ErrInvalidTransition,
}

// RawLineItem is a line item exactly as the client sent it.
type RawLineItem struct {
	ProductID string `json:"productId"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

// Error is a structured rejection. Only the fields relevant to Kind are set.
// It serializes to JSON so it survives workflow boundaries intact.
type Error struct {
	Kind      Kind             `json:"kind"`
	Field     string           `json:"field,omitempty"`
	Position  int              `json:"position,omitempty"`
	Item      *RawLineItem     `json:"item,omitempty"`
	ProductID int64            `json:"productId,omitempty"`
	Expected  *decimal.Decimal `json:"expected,omitempty"`
	Received  *decimal.Decimal `json:"received,omitempty"`
	Raw       string           `json:"raw,omitempty"`
	Requested int64            `json:"requested,omitempty"`
	Available int64            `json:"available,omitempty"`
	Shortfall int64            `json:"shortfall,omitempty"`
	OrderID   int64            `json:"orderId,omitempty"`
	From      Status           `json:"from,omitempty"`
	To        Status           `json:"to,omitempty"`
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
	case KindInvalidLineItem:
		return fmt.Sprintf("%s: item %d", ErrInvalidLineItem, e.Position)
	case KindProductNotFound:
		return fmt.Sprintf("%s: %d", ErrProductNotFound, e.ProductID)
	case KindPriceMismatch:
		return fmt.Sprintf("%s: product %d expected %s received %s", ErrPriceMismatch, e.ProductID, amount(e.Expected), amount(e.Received))
	case KindTotalMismatch:
		received := amount(e.Received)
		if e.Received == nil && e.Raw != "" {
			received = fmt.Sprintf("%q", e.Raw)
		}
		return fmt.Sprintf("%s: expected %s received %s", ErrTotalMismatch, amount(e.Expected), received)
	case KindInsufficientStock:
		return fmt.Sprintf("%s: product %d requested %d available %d", ErrInsufficientStock, e.ProductID, e.Requested, e.Available)
	case KindInvalidTransition:
		return fmt.Sprintf("%s: order %d %s -> %s", ErrInvalidTransition, e.OrderID, e.From, e.To)
	default:
		return string(e.Kind)
	}
}

// Unwrap exposes the kind sentinel so errors.Is matches on kind.
func (e *Error) Unwrap() error {
	return kindSentinels[e.Kind]
}

// AsError extracts a structured rejection from err.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func MissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field}
}

// InvalidLineItem reports a structurally malformed item at its 1-based position.
func InvalidLineItem(position int, item RawLineItem) *Error {
	return &Error{Kind: KindInvalidLineItem, Position: position, Item: &item}
}

func ProductNotFound(productID int64) *Error {
	return &Error{Kind: KindProductNotFound, ProductID: productID}
}

func PriceMismatch(productID int64, expected, received decimal.Decimal) *Error {
	return &Error{Kind: KindPriceMismatch, ProductID: productID, Expected: &expected, Received: &received}
}

func TotalMismatch(expected, received decimal.Decimal) *Error {
	return &Error{Kind: KindTotalMismatch, Expected: &expected, Received: &received}
}

// UnparsableTotal reports a declared total that is not a decimal amount.
func UnparsableTotal(expected decimal.Decimal, raw string) *Error {
	return &Error{Kind: KindTotalMismatch, Expected: &expected, Raw: raw}
}

func InsufficientStock(productID, requested, available int64) *Error {
	shortfall := requested - available
	if shortfall < 0 {
		shortfall = 0
	}
	return &Error{Kind: KindInsufficientStock, ProductID: productID, Requested: requested, Available: available, Shortfall: shortfall}
}

func InvalidTransition(orderID int64, from, to Status) *Error {
	return &Error{Kind: KindInvalidTransition, OrderID: orderID, From: from, To: to}
}

func amount(d *decimal.Decimal) string {
	if d == nil {
		return "?"
	}
	return FormatAmount(*d)
}
