package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	orderspostgres "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/migrations"
)

func setupSQLite(t *testing.T) *orderspostgres.Store {
	t.Helper()
	store, _ := setupSQLiteDB(t)
	return store
}

// SQLite has no SELECT ... FOR UPDATE; a single connection serialises transactions instead.
func setupSQLiteDB(t *testing.T) (*orderspostgres.Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.Run(db))

	store := orderspostgres.NewStore(db,
		orderspostgres.WithIsolationLevel(sql.LevelDefault),
		orderspostgres.WithReadTxOptions(sql.TxOptions{}),
	)
	return store, db
}

func deskMat(stock int64) domain.Product {
	return domain.Product{ID: 7, Name: "Desk Mat", Price: decimal.RequireFromString("10.00"), StockQuantity: stock, Available: true}
}

func checkout(quantity, price, total string) types.PlaceOrderInput {
	return types.PlaceOrderInput{
		UserID:          11,
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		CustomerPhone:   "+44 20 0000",
		ShippingAddress: "12 Analytical Way",
		Items:           []domain.RawLineItem{{ProductID: "7", Quantity: quantity, UnitPrice: price}},
		DeclaredTotal:   total,
	}
}

func newService(store *orderspostgres.Store) *application.Service {
	return application.NewService(store, store,
		application.WithIdempotencyStore(store),
		application.WithRetryPolicy(application.RetryPolicy{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}),
	)
}

func TestStore_PlaceOrderPersistsOrderItemsAndStock(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, store.SeedProducts(ctx, deskMat(5)))
	svc := newService(store)

	placed, err := svc.PlaceOrder(ctx, checkout("2", "10.00", "20.00"))
	require.NoError(t, err)

	order := placed.Entity
	assert.NotZero(t, order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "20.00", domain.FormatAmount(order.TotalAmount))
	require.Len(t, order.Items, 1)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.Equal(t, "10.00", domain.FormatAmount(order.Items[0].UnitPrice))

	product, err := store.Product(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), product.StockQuantity)

	events, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOrderPlaced, events[0].Type)
	assert.Equal(t, order.ID, events[0].AggregateID)
}

func TestStore_RejectedOrderLeavesNoTrace(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	mat := deskMat(5)
	mat.Price = decimal.RequireFromString("12.00")
	require.NoError(t, store.SeedProducts(ctx, mat))
	svc := newService(store)

	_, err := svc.PlaceOrder(ctx, checkout("1", "10.00", "10.00"))
	derr, ok := domain.AsError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	assert.Equal(t, domain.KindPriceMismatch, derr.Kind)

	page, err := svc.ListOrders(ctx, types.ListOrdersInput{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	product, err := store.Product(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(5), product.StockQuantity)

	events, err := store.FetchPending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

type tableSnapshot struct {
	Orders int64
	Items  int64
	Outbox int64
	Audit  int64
	Stock  map[int64]int64
}

func snapshotTables(t *testing.T, db *gorm.DB) tableSnapshot {
	t.Helper()
	snap := tableSnapshot{Stock: map[int64]int64{}}
	counts := map[string]*int64{
		"orders":       &snap.Orders,
		"order_items":  &snap.Items,
		"order_outbox": &snap.Outbox,
		"audit_log":    &snap.Audit,
	}
	for table, dest := range counts {
		require.NoError(t, db.Table(table).Count(dest).Error, table)
	}
	var rows []struct {
		ID            int64
		StockQuantity int64
	}
	require.NoError(t, db.Table("products").Select("id, stock_quantity").Scan(&rows).Error)
	for _, row := range rows {
		snap.Stock[row.ID] = row.StockQuantity
	}
	return snap
}

func TestStore_ShortStockOnAnyLineLeavesNoTrace(t *testing.T) {
	const lines = 4
	for short := 1; short <= lines; short++ {
		t.Run(fmt.Sprintf("short_line_%d", short), func(t *testing.T) {
			store, db := setupSQLiteDB(t)
			ctx := context.Background()
			products := []domain.Product{deskMat(10)}
			items := make([]domain.RawLineItem, 0, lines)
			for i := 1; i <= lines; i++ {
				stock := int64(5)
				if i == short {
					stock = 1
				}
				id := int64(100 + i)
				products = append(products, domain.Product{ID: id, Name: fmt.Sprintf("Part %d", i), Price: decimal.RequireFromString("10.00"), StockQuantity: stock, Available: true})
				items = append(items, domain.RawLineItem{ProductID: strconv.FormatInt(id, 10), Quantity: "2", UnitPrice: "10.00"})
			}
			require.NoError(t, store.SeedProducts(ctx, products...))
			svc := newService(store)

			_, err := svc.PlaceOrder(ctx, checkout("1", "10.00", "10.00"))
			require.NoError(t, err)
			before := snapshotTables(t, db)

			cart := checkout("2", "10.00", "80.00")
			cart.Items = items
			_, err = svc.PlaceOrder(ctx, cart)
			derr, ok := domain.AsError(err)
			require.True(t, ok, "expected domain error, got %v", err)
			assert.Equal(t, domain.KindInsufficientStock, derr.Kind)
			assert.Equal(t, int64(100+short), derr.ProductID)
			assert.Equal(t, int64(1), derr.Shortfall)

			assert.Equal(t, before, snapshotTables(t, db))
		})
	}
}

func TestStore_OverflowingDemandIsRejected(t *testing.T) {
	store, db := setupSQLiteDB(t)
	ctx := context.Background()
	require.NoError(t, store.SeedProducts(ctx, deskMat(5)))
	before := snapshotTables(t, db)

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		_, err := tx.DecrementStock(ctx, 7, -2)
		return err
	})
	require.ErrorIs(t, err, ports.ErrInvalidDecrement)

	_, err = newService(store).PlaceOrder(ctx, checkout("9223372036854775807", "10.00", "92233720368547758070.00"))
	derr, ok := domain.AsError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	assert.Equal(t, domain.KindInvalidLineItem, derr.Kind)

	assert.Equal(t, before, snapshotTables(t, db))
}

func TestStore_LastUnitSoldOnce(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, store.SeedProducts(ctx, deskMat(1)))
	svc := newService(store)

	var placed, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := svc.PlaceOrder(ctx, checkout("1", "10.00", "10.00"))
			if err == nil {
				placed.Add(1)
				return nil
			}
			if derr, ok := domain.AsError(err); ok && derr.Kind == domain.KindInsufficientStock {
				rejected.Add(1)
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), placed.Load())
	assert.Equal(t, int32(1), rejected.Load())
	product, err := store.Product(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), product.StockQuantity)
}

func TestStore_DecrementStockIsConditional(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, store.SeedProducts(ctx, deskMat(2)))

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		ok, err := tx.DecrementStock(ctx, 7, 3)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = tx.DecrementStock(ctx, 7, 2)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.DecrementStock(ctx, 404, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	product, err := store.Product(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), product.StockQuantity)
}

func TestStore_CatalogReadsTreatUnavailableAsMissing(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	retired := deskMat(4)
	retired.ID = 9
	retired.Available = false
	require.NoError(t, store.SeedProducts(ctx, deskMat(5), retired))

	entry, err := store.GetProductPriceAndStock(ctx, 7)
	require.NoError(t, err)
	assert.True(t, entry.Exists)
	assert.Equal(t, int64(5), entry.Stock)
	assert.True(t, entry.Price.Equal(decimal.NewFromInt(10)))

	entry, err = store.GetProductPriceAndStock(ctx, 9)
	require.NoError(t, err)
	assert.False(t, entry.Exists)

	entry, err = store.GetProductPriceAndStock(ctx, 404)
	require.NoError(t, err)
	assert.False(t, entry.Exists)
	assert.Equal(t, int64(404), entry.ProductID)
}

func TestStore_SeedProductsUpserts(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, store.SeedProducts(ctx, deskMat(5)))

	restocked := deskMat(40)
	restocked.Price = decimal.RequireFromString("11.50")
	require.NoError(t, store.SeedProducts(ctx, restocked))

	product, err := store.Product(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(40), product.StockQuantity)
	assert.Equal(t, "11.50", domain.FormatAmount(product.Price))
}

func TestStore_TransitionWritesAuditAndEvent(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, store.SeedProducts(ctx, deskMat(5)))
	svc := newService(store)

	placed, err := svc.PlaceOrder(ctx, checkout("1", "10.00", "10.00"))
	require.NoError(t, err)
	orderID := placed.Entity.ID

	updated, err := svc.TransitionOrderStatus(ctx, types.TransitionOrderInput{OrderID: orderID, Status: "processing", Actor: "ops@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, updated.Entity.Status)
	assert.Len(t, updated.Entity.Items, 1)

	_, err = svc.TransitionOrderStatus(ctx, types.TransitionOrderInput{OrderID: orderID, Status: "pending", Actor: "ops@example.com"})
	derr, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidTransition, derr.Kind)

	entries, err := store.AuditEntries(ctx, domain.AuditTableOrders, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ops@example.com", entries[0].Actor)
	assert.Equal(t, "pending", entries[0].OldValue)
	assert.Equal(t, "processing", entries[0].NewValue)

	events, err := store.FetchPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventOrderStatusChanged, events[1].Type)
}

func TestStore_UpdateUnknownOrder(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.UpdateOrderStatus(ctx, 404, domain.StatusCancelled, time.Now().UTC())
	})
	require.ErrorIs(t, err, ports.ErrNotFound)

	err = store.WithinReadTx(ctx, func(ctx context.Context, reader ports.OrderReader) error {
		_, err := reader.GetOrder(ctx, 404)
		return err
	})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStore_ListOrdersFiltersAndPages(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, store.SeedProducts(ctx, deskMat(50)))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	svc := application.NewService(store, store,
		application.WithClock(func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Hour) }),
	)

	var ids []int64
	for i := 0; i < 5; i++ {
		placed, err := svc.PlaceOrder(ctx, checkout("1", "10.00", "10.00"))
		require.NoError(t, err)
		ids = append(ids, placed.Entity.ID)
	}
	_, err := svc.TransitionOrderStatus(ctx, types.TransitionOrderInput{OrderID: ids[0], Status: "cancelled", Actor: "ops"})
	require.NoError(t, err)

	page, err := svc.ListOrders(ctx, types.ListOrdersInput{Page: types.Page{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].Entity.ID)
	assert.Equal(t, ids[3], page.Items[1].Entity.ID)
	assert.Len(t, page.Items[0].Entity.Items, 1)

	page, err = svc.ListOrders(ctx, types.ListOrdersInput{Page: types.Page{Offset: 4, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].Entity.ID)

	cancelled := domain.StatusCancelled
	page, err = svc.ListOrders(ctx, types.ListOrdersInput{Filter: types.OrderFilter{Status: &cancelled}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].Entity.ID)

	from := base.Add(2 * time.Hour)
	to := base.Add(4 * time.Hour)
	page, err = svc.ListOrders(ctx, types.ListOrdersInput{Filter: types.OrderFilter{From: &from, To: &to}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	var user int64 = 99
	page, err = svc.ListOrders(ctx, types.ListOrdersInput{Filter: types.OrderFilter{UserID: &user}})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)
}

func TestStore_IdempotencyKeyClaimedOnce(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	record := ports.IdempotencyRecord{UserID: 11, Key: "k-1", RequestHash: "h", OrderID: 1, CreatedAt: time.Now().UTC()}

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.ClaimIdempotencyKey(ctx, record)
	}))
	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.ClaimIdempotencyKey(ctx, record)
	})
	require.ErrorIs(t, err, ports.ErrIdempotencyKeyClaimed)

	got, err := store.Get(ctx, 11, "k-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h", got.RequestHash)
	assert.Equal(t, int64(11), got.UserID)

	missing, err := store.Get(ctx, 11, "k-2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	other := record
	other.UserID = 12
	other.RequestHash = "h2"
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.ClaimIdempotencyKey(ctx, other)
	}))
	got, err = store.Get(ctx, 12, "k-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h2", got.RequestHash)
}

func TestStore_MarkPublished(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, store.SeedProducts(ctx, deskMat(5)))
	svc := newService(store)

	for i := 0; i < 3; i++ {
		_, err := svc.PlaceOrder(ctx, checkout("1", "10.00", "10.00"))
		require.NoError(t, err)
	}
	pending, err := store.FetchPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, store.MarkPublished(ctx, []string{pending[0].ID, pending[1].ID}, time.Now().UTC()))

	rest, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.NotEqual(t, pending[0].ID, rest[0].ID)
	assert.NotEqual(t, pending[1].ID, rest[0].ID)
}
