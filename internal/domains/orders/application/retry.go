package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// RetryPolicy bounds how transactions aborted by conflicts or outages are retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// run executes op until it succeeds, fails permanently, or attempts run out.
// A conflict that outlives the policy surfaces as ErrStoreUnavailable.
func (p RetryPolicy) run(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval
	expo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)

	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if errors.Is(err, ports.ErrTxConflict) && !errors.Is(err, ports.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
	}
	return err
}

func isRetryable(err error) bool {
	return errors.Is(err, ports.ErrTxConflict) || errors.Is(err, ports.ErrStoreUnavailable)
}
