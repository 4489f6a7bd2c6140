package core

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures retry behavior for non-streaming requests.
type RetryConfig struct {
	MaxRetries int           // Retry attempts after the first failure (default: 3, negative disables)
	BaseDelay  time.Duration // Initial delay before first retry (default: 1s)
	MaxDelay   time.Duration // Maximum delay cap (default: 30s)
	Jitter     float64       // Randomization factor 0.0-1.0 (default: 0.2)
}

// DefaultRetryConfig returns exponential backoff with jitter, max 3 retries and a 30s cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     0.2,
	}
}

// NoRetry disables request retries.
func NoRetry() RetryConfig {
	return RetryConfig{MaxRetries: -1}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		c.Jitter = 0.2
	}
	return c
}

func (c RetryConfig) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseDelay
	b.MaxInterval = c.MaxDelay
	b.RandomizationFactor = c.Jitter
	b.Multiplier = 2
	return b
}

// retry runs op until it succeeds, returns a non-retryable error, or the
// retry budget is spent.
func retry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	cfg = cfg.normalized()
	if cfg.MaxRetries < 0 {
		return op()
	}
	operation := func() (T, error) {
		v, err := op()
		if err != nil && !isRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(cfg.backOff()),
		backoff.WithMaxTries(uint(cfg.MaxRetries+1)),
	)
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrBadRequest) || errors.Is(err, ErrDecode) {
		return false
	}

	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer) {
		return true
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return isRetryableStatus(pe.Status)
	}

	return false
}

// isRetryableStatus checks if an HTTP status code indicates a retryable error.
func isRetryableStatus(status int) bool {
	if status == 429 {
		return true
	}
	return status >= 500 && status < 600
}
