package enrich

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy decides whether a failed fetch attempt is worth
// repeating and how long to wait before the next one.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// LinearRetryPolicy retries transient failures a bounded number of
// times with a fixed delay between attempts.
type LinearRetryPolicy struct {
	maxAttempts int
	delay       time.Duration
}

// NewLinearRetryPolicy builds a policy. Non-positive arguments fall
// back to three attempts and a one second delay.
func NewLinearRetryPolicy(maxAttempts int, delay time.Duration) *LinearRetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &LinearRetryPolicy{
		maxAttempts: maxAttempts,
		delay:       delay,
	}
}

// ShouldRetry decides whether the error is retryable. The attempt
// argument counts attempts already made.
func (p *LinearRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return !fe.Class.Terminal()
	}
	return true
}

// Backoff returns the wait duration before the next attempt. The delay
// is fixed; escalation across whole fetch-and-extract sequences is
// handled one level up by the worker.
func (p *LinearRetryPolicy) Backoff(int) time.Duration {
	return p.delay
}
