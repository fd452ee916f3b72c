package memory

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// DemoCatalog is a small catalog for local runs without a database.
func DemoCatalog() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Mechanical Keyboard", Price: decimal.RequireFromString("89.90"), StockQuantity: 25, Available: true},
		{ID: 2, Name: "Wireless Mouse", Price: decimal.RequireFromString("24.50"), StockQuantity: 40, Available: true},
		{ID: 3, Name: "USB-C Hub", Price: decimal.RequireFromString("39.99"), StockQuantity: 10, Available: true},
		{ID: 7, Name: "Desk Mat", Price: decimal.RequireFromString("10.00"), StockQuantity: 5, Available: true},
		{ID: 9, Name: "Retired Webcam", Price: decimal.RequireFromString("49.00"), StockQuantity: 3, Available: false},
	}
}
