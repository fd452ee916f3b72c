package application

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// Field names reported by MissingField rejections.
const (
	FieldUserID          = "userId"
	FieldCustomerName    = "customerName"
	FieldCustomerEmail   = "customerEmail"
	FieldCustomerPhone   = "customerPhone"
	FieldShippingAddress = "shippingAddress"
	FieldItems           = "items"
	FieldTotal           = "total"
	FieldActor           = "actor"
	FieldStatus          = "status"
)

// Validator checks a cart against live catalog state. The first failing step wins:
// required fields, item structure, product existence and price, then the declared total.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

type parsedItem struct {
	productID int64
	quantity  int64
	unitPrice decimal.Decimal
}

// Validate returns the cart priced from the catalog, or the first rejection found.
func (v *Validator) Validate(ctx context.Context, catalog ports.CatalogReader, input types.PlaceOrderInput) (*types.ValidatedOrder, error) {
	if err := requireFields(input); err != nil {
		return nil, err
	}
	parsed, err := parseItems(input.Items)
	if err != nil {
		return nil, err
	}

	entries := make(map[int64]domain.CatalogEntry, len(parsed))
	items := make([]domain.LineItem, 0, len(parsed))
	running := decimal.Zero
	for i, item := range parsed {
		entry, seen := entries[item.productID]
		if !seen {
			entry, err = catalog.GetProductPriceAndStock(ctx, item.productID)
			if err != nil {
				return nil, err
			}
			entries[item.productID] = entry
		}
		if !entry.Exists {
			return nil, domain.ProductNotFound(item.productID)
		}
		if !domain.WithinTolerance(entry.Price, item.unitPrice) {
			return nil, domain.PriceMismatch(item.productID, entry.Price, item.unitPrice)
		}
		line := domain.LineItem{
			ProductID: item.productID,
			Quantity:  item.quantity,
			UnitPrice: entry.Price,
		}
		running = running.Add(line.Subtotal())
		if !domain.WithinStorableRange(running) {
			return nil, domain.InvalidLineItem(i+1, input.Items[i])
		}
		items = append(items, line)
	}

	total := domain.SumItems(items)
	rawTotal := strings.TrimSpace(input.DeclaredTotal)
	declared, err := decimal.NewFromString(rawTotal)
	if err != nil {
		return nil, domain.UnparsableTotal(total, rawTotal)
	}
	if !domain.WithinTolerance(total, declared) {
		return nil, domain.TotalMismatch(total, declared)
	}

	return &types.ValidatedOrder{
		Contact: domain.Contact{
			Name:  strings.TrimSpace(input.CustomerName),
			Email: strings.TrimSpace(input.CustomerEmail),
			Phone: strings.TrimSpace(input.CustomerPhone),
		},
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		Notes:           strings.TrimSpace(input.Notes),
		Items:           items,
		Total:           total,
	}, nil
}

func requireFields(input types.PlaceOrderInput) error {
	if input.UserID <= 0 {
		return domain.MissingField(FieldUserID)
	}
	required := []struct {
		name  string
		value string
	}{
		{FieldCustomerName, input.CustomerName},
		{FieldCustomerEmail, input.CustomerEmail},
		{FieldCustomerPhone, input.CustomerPhone},
		{FieldShippingAddress, input.ShippingAddress},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return domain.MissingField(field.name)
		}
	}
	if len(input.Items) == 0 {
		return domain.MissingField(FieldItems)
	}
	if strings.TrimSpace(input.DeclaredTotal) == "" {
		return domain.MissingField(FieldTotal)
	}
	return nil
}

func parseItems(raw []domain.RawLineItem) ([]parsedItem, error) {
	parsed := make([]parsedItem, 0, len(raw))
	for i, item := range raw {
		productID, err := strconv.ParseInt(strings.TrimSpace(item.ProductID), 10, 64)
		if err != nil || productID <= 0 {
			return nil, domain.InvalidLineItem(i+1, item)
		}
		quantity, err := strconv.ParseInt(strings.TrimSpace(item.Quantity), 10, 64)
		if err != nil || quantity <= 0 || quantity > domain.MaxLineQuantity {
			return nil, domain.InvalidLineItem(i+1, item)
		}
		unitPrice, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil || !domain.WithinStorableRange(unitPrice) {
			return nil, domain.InvalidLineItem(i+1, item)
		}
		parsed = append(parsed, parsedItem{productID: productID, quantity: quantity, unitPrice: unitPrice})
	}
	return parsed, nil
}
