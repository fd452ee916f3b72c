package domain

import "github.com/shopspring/decimal"

// Product is a sellable catalog item.
type Product struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	StockQuantity int64
	Available     bool
}

// CatalogEntry is the Catalog Reader's view of a product at a point in time.
// Exists is false for unknown products and for products withdrawn from sale.
type CatalogEntry struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int64           `json:"stock"`
	Exists    bool            `json:"exists"`
}

// Entry projects the product into a catalog entry.
func (p Product) Entry() CatalogEntry {
	return CatalogEntry{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.StockQuantity,
		Exists:    p.Available,
	}
}
