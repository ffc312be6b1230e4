package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrProviderTimeout is returned when a provider call exceeds its deadline.
var ErrProviderTimeout = errors.New("provider call timed out")

// RetryPolicy bounds every outbound provider call.
type RetryPolicy struct {
	// Timeout applies to each attempt.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// BaseDelay is the initial backoff interval.
	BaseDelay time.Duration
}

// DefaultRetryPolicy allows one retry with a 60s per-call timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Timeout: 60 * time.Second, MaxRetries: 1, BaseDelay: 500 * time.Millisecond}
}

// call runs op under p. Timeouts and cancellation of ctx are not retried.
func call[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.MaxElapsedTime = 0
	retries := 0
	if p.MaxRetries > 0 {
		retries = p.MaxRetries
	}
	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)

	attempt := func() error {
		callCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		v, err := op(callCtx)
		if err == nil {
			result = v
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		if callCtx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("%w after %s: %w", ErrProviderTimeout, p.Timeout, err))
		}
		return err
	}

	if err := backoff.Retry(attempt, b); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
