package ports

import (
	"context"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// CatalogReader fetches current price and stock for a product. Reads are side-effect free.
// Unknown or withdrawn products yield an entry with Exists set to false, not an error.
type CatalogReader interface {
	GetProductPriceAndStock(ctx context.Context, productID int64) (domain.CatalogEntry, error)
}
