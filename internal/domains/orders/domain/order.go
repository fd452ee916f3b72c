package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder        = errors.New("order must contain at least one line item")
	ErrTotalInconsistent = errors.New("order total must equal the sum of line item subtotals")
)

// Contact carries the customer's delivery contact details.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// LineItem is one product line of an order with the price captured at placement.
type LineItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Subtotal is the captured unit price times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Order models the purchase order aggregate.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	Contact         Contact         `json:"contact"`
	ShippingAddress string          `json:"shippingAddress"`
	Notes           string          `json:"notes,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	Items           []LineItem      `json:"items"`
}

// NewOrder builds a pending order whose total is derived from its items.
func NewOrder(userID int64, contact Contact, shippingAddress, notes string, items []LineItem, createdAt time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	order := &Order{
		UserID:          userID,
		Contact:         contact,
		ShippingAddress: shippingAddress,
		Notes:           notes,
		Status:          StatusPending,
		CreatedAt:       createdAt,
		Items:           append([]LineItem(nil), items...),
	}
	order.TotalAmount = SumItems(order.Items)
	return order, nil
}

// SumItems returns the exact sum of line subtotals.
func SumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Validate enforces the aggregate invariants.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	if !SumItems(o.Items).Equal(o.TotalAmount) {
		return ErrTotalInconsistent
	}
	return nil
}

// TransitionTo moves the order to next, returning the previous status.
func (o *Order) TransitionTo(next Status) (Status, error) {
	previous := o.Status
	if !CanTransition(previous, next) {
		return previous, InvalidTransition(o.ID, previous, next)
	}
	o.Status = next
	return previous, nil
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}
