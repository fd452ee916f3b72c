package ports

import "errors"

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStoreUnavailable indicates storage could not be reached or aborted the transaction. Retryable.
	ErrStoreUnavailable = errors.New("order store unavailable")
	// ErrTxConflict indicates a serialization failure or deadlock. The whole transaction may be retried.
	ErrTxConflict = errors.New("transaction conflict")
	// ErrInvalidDecrement indicates a stock decrement of zero or fewer units.
	ErrInvalidDecrement = errors.New("stock decrement must be positive")
	// ErrValueOutOfRange indicates a value did not fit its storage column. Not retryable.
	ErrValueOutOfRange = errors.New("value out of storable range")
)
