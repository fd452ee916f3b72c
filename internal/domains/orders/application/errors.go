package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a validation rule.
	ErrInvalidInput = errors.New("invalid order input")
)

// Kinds reported for failures that are not cart rejections.
const (
	KindStoreUnavailable    = "StoreUnavailable"
	KindNotFound            = "NotFound"
	KindIdempotencyConflict = "IdempotencyConflict"
	KindInvalidInput        = "InvalidInput"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if rejection, ok := domain.AsError(err); ok {
		switch rejection.Kind {
		case domain.KindInsufficientStock, domain.KindInvalidTransition:
			return err
		default:
			if errors.Is(err, ErrInvalidInput) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	if errors.Is(err, ports.ErrValueOutOfRange) && !errors.Is(err, ErrInvalidInput) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// KindOf names the failure category of err, or "" when it has none.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	if rejection, ok := domain.AsError(err); ok {
		return string(rejection.Kind)
	}
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return KindIdempotencyConflict
	case errors.Is(err, ports.ErrStoreUnavailable), errors.Is(err, ports.ErrTxConflict):
		return KindStoreUnavailable
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return ""
	}
}
