package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// Store opens units of work against order storage.
type Store interface {
	// WithinTx runs fn in one read-write transaction. fn's error rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadTx runs fn against a consistent read-only snapshot.
	WithinReadTx(ctx context.Context, fn func(ctx context.Context, reader OrderReader) error) error
}

// Tx is the set of operations available inside a read-write transaction.
type Tx interface {
	CatalogReader
	OrderReader
	AuditSink
	// LockProduct takes a row lock on the product and returns its state.
	LockProduct(ctx context.Context, productID int64) (domain.CatalogEntry, error)
	// InsertOrder persists the header and its items, assigning ids.
	InsertOrder(ctx context.Context, order *domain.Order) error
	// DecrementStock removes quantity units only if that many remain. It reports whether it applied.
	// A quantity of zero or less fails with ErrInvalidDecrement.
	DecrementStock(ctx context.Context, productID, quantity int64) (bool, error)
	// GetOrderForUpdate loads the order and locks its row.
	GetOrderForUpdate(ctx context.Context, orderID int64) (*types.OrderProjection, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status domain.Status, at time.Time) error
	AppendEvent(ctx context.Context, event domain.Event) error
	// ClaimIdempotencyKey records the key. It returns ErrIdempotencyKeyClaimed when the key exists.
	ClaimIdempotencyKey(ctx context.Context, record IdempotencyRecord) error
}

// OrderReader serves the query side.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID int64) (*types.OrderProjection, error)
	// ListOrders returns one page, newest first, and the count of all matches.
	ListOrders(ctx context.Context, filter types.OrderFilter, page types.Page) ([]*types.OrderProjection, int64, error)
}

// AuditSink appends audit entries in the caller's transaction.
type AuditSink interface {
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error
}
