package realtime

import (
	"context"
	"log"
	"time"

	"github.com/bookswapng/bookswap/errors"
)

// RetryConfig bounds the backoff applied to transient store failures at the
// propagation boundary. Validation, permission, transition, and stale-state
// errors are never retried.
type RetryConfig struct {
	MaxRetries int
	Delay      time.Duration
	Timeout    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Delay:      200 * time.Millisecond,
		Timeout:    5 * time.Second,
	}
}

func retryable(err error) bool {
	switch err.(type) {
	case *errors.ValidationError, *errors.PermissionError,
		*errors.InvalidTransitionError, *errors.StaleStateError,
		*errors.AttachmentTooLargeError:
		return false
	}
	return true
}

// Retry runs call with bounded backoff until it succeeds, returns a
// non-retryable error, or exhausts the budget.
func Retry(cfg RetryConfig, op string, call func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &errors.TimeoutError{Op: op, Err: ctx.Err()}
			case <-time.After(cfg.Delay):
			}
		}

		err := call(ctx)
		if err == nil {
			if attempt > 0 {
				log.Printf("%s succeeded after %d retries", op, attempt)
			}
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err

		if ctx.Err() != nil {
			return &errors.TimeoutError{Op: op, Err: ctx.Err()}
		}
		log.Printf("%s failed (attempt %d): %v", op, attempt+1, err)
	}
	return &errors.TransientStoreError{Op: op, Err: lastErr}
}
