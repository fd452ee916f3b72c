package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var (
	_ ports.Store            = (*Store)(nil)
	_ ports.CatalogReader    = (*Store)(nil)
	_ ports.IdempotencyStore = (*Store)(nil)
	_ ports.OutboxSource     = (*Store)(nil)
	_ ports.Tx               = (*tx)(nil)
)

// Store is an in-memory order store. Transactions are serialized and work on a
// private copy of the state that replaces the shared state only on success.
type Store struct {
	mu    sync.RWMutex
	state *state
}

type orderRow struct {
	order     *domain.Order
	updatedAt time.Time
}

type outboxRow struct {
	event       domain.Event
	publishedAt *time.Time
}

type idempotencyKey struct {
	userID int64
	key    string
}

type state struct {
	products    map[int64]domain.Product
	orders      map[int64]orderRow
	audit       []domain.AuditEntry
	outbox      []outboxRow
	idempotency map[idempotencyKey]ports.IdempotencyRecord
	nextOrderID int64
	nextItemID  int64
	nextAuditID int64
}

func NewStore() *Store {
	return &Store{state: &state{
		products:    map[int64]domain.Product{},
		orders:      map[int64]orderRow{},
		idempotency: map[idempotencyKey]ports.IdempotencyRecord{},
	}}
}

func (s *state) clone() *state {
	next := &state{
		products:    make(map[int64]domain.Product, len(s.products)),
		orders:      make(map[int64]orderRow, len(s.orders)),
		audit:       append([]domain.AuditEntry(nil), s.audit...),
		outbox:      append([]outboxRow(nil), s.outbox...),
		idempotency: make(map[idempotencyKey]ports.IdempotencyRecord, len(s.idempotency)),
		nextOrderID: s.nextOrderID,
		nextItemID:  s.nextItemID,
		nextAuditID: s.nextAuditID,
	}
	for id, p := range s.products {
		next.products[id] = p
	}
	for id, row := range s.orders {
		next.orders[id] = row
	}
	for key, rec := range s.idempotency {
		next.idempotency[key] = rec
	}
	return next
}

// SeedProducts inserts or replaces catalog products.
func (s *Store) SeedProducts(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.state.products[p.ID] = p
	}
}

// Product returns the stored product, for inspection in tests and tooling.
func (s *Store) Product(id int64) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.products[id]
	return p, ok
}

// AuditEntries returns a copy of the audit log.
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditEntry(nil), s.state.audit...)
}

// Reset drops all orders, audit entries, events, and idempotency keys. Products are kept.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.orders = map[int64]orderRow{}
	s.state.audit = nil
	s.state.outbox = nil
	s.state.idempotency = map[idempotencyKey]ports.IdempotencyRecord{}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.clone()
	if err := fn(ctx, &tx{state: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *Store) WithinReadTx(ctx context.Context, fn func(ctx context.Context, reader ports.OrderReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &tx{state: s.state})
}

// GetProductPriceAndStock serves advisory catalog reads outside transactions.
func (s *Store) GetProductPriceAndStock(ctx context.Context, productID int64) (domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&tx{state: s.state}).GetProductPriceAndStock(ctx, productID)
}

func (s *Store) Get(_ context.Context, userID int64, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.state.idempotency[idempotencyKey{userID: userID, key: key}]
	if !ok {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

func (s *Store) FetchPending(_ context.Context, limit int) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []domain.Event
	for _, row := range s.state.outbox {
		if row.publishedAt != nil {
			continue
		}
		pending = append(pending, row.event)
		if limit > 0 && len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkPublished(_ context.Context, eventIDs []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = struct{}{}
	}
	for i := range s.state.outbox {
		if _, ok := ids[s.state.outbox[i].event.ID]; ok && s.state.outbox[i].publishedAt == nil {
			published := at
			s.state.outbox[i].publishedAt = &published
		}
	}
	return nil
}

// tx operates on one state snapshot. It is not safe for concurrent use.
type tx struct {
	state *state
}

func (t *tx) GetProductPriceAndStock(_ context.Context, productID int64) (domain.CatalogEntry, error) {
	p, ok := t.state.products[productID]
	if !ok {
		return domain.CatalogEntry{ProductID: productID}, nil
	}
	return p.Entry(), nil
}

func (t *tx) LockProduct(ctx context.Context, productID int64) (domain.CatalogEntry, error) {
	return t.GetProductPriceAndStock(ctx, productID)
}

func (t *tx) InsertOrder(_ context.Context, order *domain.Order) error {
	t.state.nextOrderID++
	order.ID = t.state.nextOrderID
	for i := range order.Items {
		t.state.nextItemID++
		order.Items[i].ID = t.state.nextItemID
		order.Items[i].OrderID = order.ID
	}
	t.state.orders[order.ID] = orderRow{order: order.Clone(), updatedAt: order.CreatedAt}
	return nil
}

func (t *tx) DecrementStock(_ context.Context, productID, quantity int64) (bool, error) {
	if quantity <= 0 {
		return false, ports.ErrInvalidDecrement
	}
	p, ok := t.state.products[productID]
	if !ok || p.StockQuantity < quantity {
		return false, nil
	}
	p.StockQuantity -= quantity
	t.state.products[productID] = p
	return true, nil
}

func (t *tx) GetOrderForUpdate(ctx context.Context, orderID int64) (*types.OrderProjection, error) {
	return t.GetOrder(ctx, orderID)
}

func (t *tx) UpdateOrderStatus(_ context.Context, orderID int64, status domain.Status, at time.Time) error {
	row, ok := t.state.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}
	order := row.order.Clone()
	order.Status = status
	t.state.orders[orderID] = orderRow{order: order, updatedAt: at}
	return nil
}

func (t *tx) AppendAudit(_ context.Context, entry domain.AuditEntry) error {
	t.state.nextAuditID++
	entry.ID = t.state.nextAuditID
	t.state.audit = append(t.state.audit, entry)
	return nil
}

func (t *tx) AppendEvent(_ context.Context, event domain.Event) error {
	t.state.outbox = append(t.state.outbox, outboxRow{event: event})
	return nil
}

func (t *tx) ClaimIdempotencyKey(_ context.Context, record ports.IdempotencyRecord) error {
	k := idempotencyKey{userID: record.UserID, key: record.Key}
	if _, ok := t.state.idempotency[k]; ok {
		return ports.ErrIdempotencyKeyClaimed
	}
	t.state.idempotency[k] = record
	return nil
}

func (t *tx) GetOrder(_ context.Context, orderID int64) (*types.OrderProjection, error) {
	row, ok := t.state.orders[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return types.NewOrderProjection(row.order.Clone(), row.order.CreatedAt, row.updatedAt), nil
}

func (t *tx) ListOrders(_ context.Context, filter types.OrderFilter, page types.Page) ([]*types.OrderProjection, int64, error) {
	matches := make([]orderRow, 0, len(t.state.orders))
	for _, row := range t.state.orders {
		if matchesFilter(row.order, filter) {
			matches = append(matches, row)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i].order, matches[j].order
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	total := int64(len(matches))
	start := page.Offset
	if start > len(matches) {
		start = len(matches)
	}
	end := len(matches)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}
	result := make([]*types.OrderProjection, 0, end-start)
	for _, row := range matches[start:end] {
		result = append(result, types.NewOrderProjection(row.order.Clone(), row.order.CreatedAt, row.updatedAt))
	}
	return result, total, nil
}

func matchesFilter(order *domain.Order, filter types.OrderFilter) bool {
	if filter.Status != nil && order.Status != *filter.Status {
		return false
	}
	if filter.UserID != nil && order.UserID != *filter.UserID {
		return false
	}
	if filter.From != nil && order.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !order.CreatedAt.Before(*filter.To) {
		return false
	}
	return true
}
