package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyKeyClaimed indicates another request already claimed the key.
	ErrIdempotencyKeyClaimed = errors.New("idempotency key already claimed")
)

// IdempotencyRecord ties a client-supplied key to the order it produced. Keys
// are unique per user.
type IdempotencyRecord struct {
	UserID      int64
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
}

// IdempotencyStore reads committed idempotency keys.
type IdempotencyStore interface {
	// Get returns the user's record for the key, or nil when unknown.
	Get(ctx context.Context, userID int64, key string) (*IdempotencyRecord, error)
}
