package embedder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig configures exponential backoff for remote providers.
type RetryConfig struct {
	MaxRetries uint64        // Retries after the first attempt
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Cap on a single delay
}

// DefaultRetryConfig returns the backoff used by remote providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
	}
}

func (c RetryConfig) backoff() retry.Backoff {
	base := c.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.NewExponential(base)
	if c.MaxDelay > 0 {
		b = retry.WithCappedDuration(c.MaxDelay, b)
	}
	return retry.WithMaxRetries(c.MaxRetries, b)
}

// StatusError is a non-2xx answer from an embedding API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request is worth repeating.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// retryWithBackoff runs fn until it succeeds, returns a permanent error, or
// the retry budget is spent. Context cancellation is never retried.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, isRetryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := retry.Do(ctx, config.backoff(), func(ctx context.Context) error {
		var callErr error
		result, callErr = fn(ctx)
		if callErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isRetryable(callErr) {
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// isRetryableStatus retries transport failures and temporary HTTP statuses.
func isRetryableStatus(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
