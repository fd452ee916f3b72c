// Package catalogdb serves advisory catalog lookups straight from the products
// table. Reads are unlocked; the order writer re-reads products under lock.
package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.CatalogReader = (*Reader)(nil)

const productQuery = `
	SELECT id, name, price, stock_quantity, available
	FROM products
	WHERE id = ?`

type productRow struct {
	ID            int64           `db:"id"`
	Name          string          `db:"name"`
	Price         decimal.Decimal `db:"price"`
	StockQuantity int64           `db:"stock_quantity"`
	Available     bool            `db:"available"`
}

// Reader implements ports.CatalogReader over sqlx.
type Reader struct {
	db    *sqlx.DB
	query string
}

// NewReader wraps an open handle. driverName selects the bind variable style
// ("pgx" and "postgres" use $1, "sqlite" uses ?).
func NewReader(db *sql.DB, driverName string) *Reader {
	x := sqlx.NewDb(db, driverName)
	return &Reader{db: x, query: x.Rebind(productQuery)}
}

func (r *Reader) GetProductPriceAndStock(ctx context.Context, productID int64) (domain.CatalogEntry, error) {
	var row productRow
	if err := r.db.GetContext(ctx, &row, r.query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CatalogEntry{ProductID: productID}, nil
		}
		if ctx.Err() != nil {
			return domain.CatalogEntry{}, err
		}
		return domain.CatalogEntry{}, fmt.Errorf("%w: catalog lookup: %w", ports.ErrStoreUnavailable, err)
	}
	return domain.Product{
		ID:            row.ID,
		Name:          row.Name,
		Price:         row.Price,
		StockQuantity: row.StockQuantity,
		Available:     row.Available,
	}.Entry(), nil
}
