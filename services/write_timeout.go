package services

import (
	"time"

	apiError "github.com/bookswapng/bookswap/errors"
)

const defaultWriteTimeout = 5 * time.Second

// awaitWrite bounds a store write: if the store does not acknowledge within
// timeout the caller gets a retryable TimeoutError. The write itself may
// still land; callers treat it as retry-with-care.
func awaitWrite(op string, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return &apiError.TimeoutError{Op: op}
	}
}
