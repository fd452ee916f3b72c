package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateTooManyConnections   = "53300"
	sqlStateNumericOutOfRange    = "22003"
)

// classify maps driver failures onto the port error vocabulary. Errors it does
// not recognise pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsError(err); ok {
		return err
	}
	for _, known := range []error{ports.ErrTxConflict, ports.ErrStoreUnavailable, ports.ErrNotFound, ports.ErrIdempotencyKeyClaimed, ports.ErrInvalidDecrement} {
		if errors.Is(err, known) {
			return err
		}
	}
	if code := sqlState(err); code != "" {
		switch {
		case code == sqlStateSerializationFailure, code == sqlStateDeadlockDetected:
			return fmt.Errorf("%w: %w", ports.ErrTxConflict, err)
		case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57P"), code == sqlStateTooManyConnections:
			return fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
		case code == sqlStateNumericOutOfRange:
			return fmt.Errorf("%w: %w", ports.ErrValueOutOfRange, err)
		}
		return err
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
	}
	return err
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || sqlState(err) == sqlStateUniqueViolation
}
