package ports

import (
	"context"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// Service exposes order use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*types.OrderProjection, error)
	QuoteOrder(ctx context.Context, input types.PlaceOrderInput) (*types.Quote, error)
	TransitionOrderStatus(ctx context.Context, input types.TransitionOrderInput) (*types.OrderProjection, error)
	ListOrders(ctx context.Context, input types.ListOrdersInput) (*types.OrderPage, error)
	GetOrder(ctx context.Context, orderID int64) (*types.OrderProjection, error)
	LookupProduct(ctx context.Context, productID int64) (domain.CatalogEntry, error)
}
