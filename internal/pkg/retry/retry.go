// Package retry provides generic retry with exponential backoff for
// transient failures, used by the RPC read path.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy tunes the backoff schedule.
type Policy struct {
	// Attempts is the total number of tries, including the first. Values
	// below 1 are treated as 1.
	Attempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// Multiplier scales the delay after each retry. Defaults to 2.
	Multiplier float64

	// Jitter adds rand(0, delay) on top of each wait to spread out
	// synchronized clients.
	Jitter bool
}

// DefaultPolicy suits public RPC endpoints: a few quick tries, capped well
// under a block interval.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   4,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// OnRetry is invoked before each wait. attempt counts retries from 1.
type OnRetry func(attempt int, err error, delay time.Duration)

// Do runs fn until it succeeds, the error is not retryable, the attempts are
// exhausted, or ctx is done.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, onRetry OnRetry, fn func() (T, error)) (T, error) {
	var zero T

	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 2 * time.Second
	}

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return zero, err
		}
		if attempt == p.Attempts {
			break
		}

		wait := delay
		if p.Jitter {
			wait += time.Duration(rand.Int63n(int64(delay)))
		}
		if onRetry != nil {
			onRetry(attempt, err, wait)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("retry abandoned: %w", ctx.Err())
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return zero, fmt.Errorf("giving up after %d attempts: %w", p.Attempts, lastErr)
}

// DoVoid is Do for functions with no result.
func DoVoid(ctx context.Context, p Policy, retryable func(error) bool, onRetry OnRetry, fn func() error) error {
	_, err := Do(ctx, p, retryable, onRetry, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
