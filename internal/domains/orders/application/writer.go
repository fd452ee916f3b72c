package application

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// Writer persists a validated order and reserves its stock inside the caller's transaction.
type Writer struct {
	now func() time.Time
}

func NewWriter(now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{now: now}
}

// Write locks every ordered product in ascending id order, re-checks stock under the lock,
// inserts the order as pending with its items, decrements stock, and records an outbox event.
// Demand for one product that overflows int64 is never satisfiable.
// Any error leaves the transaction to be rolled back by the caller.
func (w *Writer) Write(ctx context.Context, tx ports.Tx, userID int64, validated *types.ValidatedOrder) (*domain.Order, error) {
	demand := map[int64]int64{}
	saturated := map[int64]bool{}
	prices := map[int64]domain.LineItem{}
	for _, item := range validated.Items {
		if item.Quantity <= 0 {
			return nil, ports.ErrInvalidDecrement
		}
		prices[item.ProductID] = item
		if demand[item.ProductID] > math.MaxInt64-item.Quantity {
			saturated[item.ProductID] = true
			demand[item.ProductID] = math.MaxInt64
			continue
		}
		demand[item.ProductID] += item.Quantity
	}
	productIDs := make([]int64, 0, len(demand))
	for id := range demand {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	locked := make(map[int64]domain.CatalogEntry, len(productIDs))
	for _, id := range productIDs {
		entry, err := tx.LockProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if !entry.Exists {
			return nil, domain.ProductNotFound(id)
		}
		captured := prices[id].UnitPrice
		if !domain.WithinTolerance(entry.Price, captured) {
			return nil, domain.PriceMismatch(id, entry.Price, captured)
		}
		if saturated[id] || entry.Stock < demand[id] {
			return nil, domain.InsufficientStock(id, demand[id], entry.Stock)
		}
		locked[id] = entry
	}

	now := w.now().UTC()
	order, err := domain.NewOrder(userID, validated.Contact, validated.ShippingAddress, validated.Notes, validated.Items, now)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return nil, err
	}
	for _, id := range productIDs {
		applied, err := tx.DecrementStock(ctx, id, demand[id])
		if err != nil {
			return nil, err
		}
		if !applied {
			return nil, domain.InsufficientStock(id, demand[id], locked[id].Stock)
		}
	}

	event, err := domain.NewOrderPlacedEvent(order, now)
	if err != nil {
		return nil, err
	}
	if err := tx.AppendEvent(ctx, event); err != nil {
		return nil, err
	}
	return order, nil
}
