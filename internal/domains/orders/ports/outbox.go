package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// OutboxSource exposes committed events awaiting publication.
type OutboxSource interface {
	FetchPending(ctx context.Context, limit int) ([]domain.Event, error)
	MarkPublished(ctx context.Context, eventIDs []string, at time.Time) error
}
