package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var (
	_ ports.Store            = (*Store)(nil)
	_ ports.CatalogReader    = (*Store)(nil)
	_ ports.IdempotencyStore = (*Store)(nil)
	_ ports.OutboxSource     = (*Store)(nil)
	_ ports.Tx               = (*txStore)(nil)
)

// DefaultIsolationLevel is used for placement and transition transactions.
// Row locks taken by the writer provide the no-oversell guarantee at this level.
const DefaultIsolationLevel = sql.LevelReadCommitted

// Store persists orders in PostgreSQL using GORM. Schema comes from platform/migrations.
type Store struct {
	db        *gorm.DB
	writeOpts sql.TxOptions
	readOpts  sql.TxOptions
}

// Option customises the store.
type Option func(*Store)

// WithIsolationLevel sets the isolation level of read-write transactions.
func WithIsolationLevel(level sql.IsolationLevel) Option {
	return func(s *Store) {
		s.writeOpts.Isolation = level
	}
}

// WithReadTxOptions sets the options of query transactions.
func WithReadTxOptions(opts sql.TxOptions) Option {
	return func(s *Store) {
		s.readOpts = opts
	}
}

// NewStore wires a GORM-backed store. Caller manages DB lifecycle.
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:        db,
		writeOpts: sql.TxOptions{Isolation: DefaultIsolationLevel},
		readOpts:  sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	opts := s.writeOpts
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(ctx, &txStore{db: gtx})
	}, &opts)
	return classify(err)
}

func (s *Store) WithinReadTx(ctx context.Context, fn func(ctx context.Context, reader ports.OrderReader) error) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	opts := s.readOpts
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(ctx, &txStore{db: gtx})
	}, &opts)
	return classify(err)
}

// GetProductPriceAndStock reads outside any transaction.
func (s *Store) GetProductPriceAndStock(ctx context.Context, productID int64) (domain.CatalogEntry, error) {
	if err := s.ensureDB(); err != nil {
		return domain.CatalogEntry{}, err
	}
	entry, err := findProduct(s.db.WithContext(ctx), productID)
	return entry, classify(err)
}

// SeedProducts inserts products or overwrites existing ones with the same id.
func (s *Store) SeedProducts(ctx context.Context, products ...domain.Product) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}
	now := s.db.NowFunc()
	records := make([]productRecord, 0, len(products))
	for _, p := range products {
		records = append(records, productRecord{
			ID:            p.ID,
			Name:          p.Name,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
			Available:     p.Available,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price", "stock_quantity", "available", "updated_at"}),
		}).Create(&records).Error
}

// Product returns the stored product row.
func (s *Store) Product(ctx context.Context, productID int64) (domain.Product, error) {
	if err := s.ensureDB(); err != nil {
		return domain.Product{}, err
	}
	var record productRecord
	if err := s.db.WithContext(ctx).Take(&record, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, ports.ErrNotFound
		}
		return domain.Product{}, classify(err)
	}
	return record.toDomain(), nil
}

// AuditEntries returns the audit trail of one record, oldest first.
func (s *Store) AuditEntries(ctx context.Context, table string, recordID int64) ([]domain.AuditEntry, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []auditRecord
	if err := s.db.WithContext(ctx).
		Where("table_name = ? AND record_id = ?", table, recordID).
		Order("id").
		Find(&records).Error; err != nil {
		return nil, classify(err)
	}
	entries := make([]domain.AuditEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.toDomain())
	}
	return entries, nil
}

// Get loads the user's idempotency record for key, returning nil when absent.
func (s *Store) Get(ctx context.Context, userID int64, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := s.db.WithContext(ctx).Take(&record, "user_id = ? AND key = ?", userID, key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return toPortRecord(record), nil
}

// FetchPending returns unpublished outbox events, oldest first.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]domain.Event, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Where("published_at IS NULL").Order("created_at").Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []outboxRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, classify(err)
	}
	events := make([]domain.Event, 0, len(records))
	for _, r := range records {
		events = append(events, r.toDomain())
	}
	return events, nil
}

// MarkPublished stamps the given events as delivered.
func (s *Store) MarkPublished(ctx context.Context, eventIDs []string, at time.Time) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if len(eventIDs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Model(&outboxRecord{}).
		Where("id IN ? AND published_at IS NULL", eventIDs).
		Update("published_at", at).Error
	return classify(err)
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres order store not configured")
	}
	return nil
}

// txStore runs every statement on one open transaction.
type txStore struct {
	db *gorm.DB
}

func findProduct(db *gorm.DB, productID int64) (domain.CatalogEntry, error) {
	var record productRecord
	if err := db.Take(&record, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CatalogEntry{ProductID: productID}, nil
		}
		return domain.CatalogEntry{}, err
	}
	return record.toDomain().Entry(), nil
}

func (t *txStore) GetProductPriceAndStock(ctx context.Context, productID int64) (domain.CatalogEntry, error) {
	return findProduct(t.db.WithContext(ctx), productID)
}

func (t *txStore) LockProduct(ctx context.Context, productID int64) (domain.CatalogEntry, error) {
	return findProduct(t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), productID)
}

func (t *txStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	record := toOrderRecord(order)
	if err := t.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error; err != nil {
		return err
	}
	items := make([]orderItemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemRecord{
			OrderID:   record.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	if err := t.db.WithContext(ctx).Create(&items).Error; err != nil {
		return err
	}
	order.ID = record.ID
	for i := range order.Items {
		order.Items[i].ID = items[i].ID
		order.Items[i].OrderID = record.ID
	}
	return nil
}

func (t *txStore) DecrementStock(ctx context.Context, productID, quantity int64) (bool, error) {
	if quantity <= 0 {
		return false, ports.ErrInvalidDecrement
	}
	result := t.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"updated_at":     t.db.NowFunc(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (t *txStore) GetOrderForUpdate(ctx context.Context, orderID int64) (*types.OrderProjection, error) {
	var record orderRecord
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Omit(clause.Associations).
		Take(&record, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	if err := t.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&record.Items).Error; err != nil {
		return nil, err
	}
	return record.toProjection(), nil
}

func (t *txStore) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.Status, at time.Time) error {
	result := t.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"status": string(status), "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (t *txStore) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	record := toAuditRecord(entry)
	return t.db.WithContext(ctx).Create(&record).Error
}

func (t *txStore) AppendEvent(ctx context.Context, event domain.Event) error {
	record := toOutboxRecord(event)
	return t.db.WithContext(ctx).Create(&record).Error
}

func (t *txStore) ClaimIdempotencyKey(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyRecord{
		UserID:      record.UserID,
		Key:         record.Key,
		RequestHash: record.RequestHash,
		OrderID:     record.OrderID,
		CreatedAt:   record.CreatedAt,
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return ports.ErrIdempotencyKeyClaimed
		}
		return err
	}
	return nil
}

func (t *txStore) GetOrder(ctx context.Context, orderID int64) (*types.OrderProjection, error) {
	var record orderRecord
	err := t.db.WithContext(ctx).
		Preload("Items", orderByID).
		Take(&record, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

func (t *txStore) ListOrders(ctx context.Context, filter types.OrderFilter, page types.Page) ([]*types.OrderProjection, int64, error) {
	var total int64
	if err := applyFilter(t.db.WithContext(ctx).Model(&orderRecord{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := applyFilter(t.db.WithContext(ctx), filter).
		Preload("Items", orderByID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset)
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]*types.OrderProjection, 0, len(records))
	for _, r := range records {
		orders = append(orders, r.toProjection())
	}
	return orders, total, nil
}

func applyFilter(db *gorm.DB, filter types.OrderFilter) *gorm.DB {
	if filter.Status != nil {
		db = db.Where("status = ?", string(*filter.Status))
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		db = db.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		db = db.Where("created_at < ?", filter.To.UTC())
	}
	return db
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
