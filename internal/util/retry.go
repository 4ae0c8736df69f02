// ABOUTME: Retry with exponential backoff for startup connections
// ABOUTME: Used to wait for a phrase store that is still coming up
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff returns base * 2^attempt, capped at maxDelay, with up to ±25% jitter.
// Attempts below 1 return 0.
func Backoff(base, maxDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base << uint(attempt)
	if d <= 0 || d > maxDelay {
		d = maxDelay
	}
	if d < 4 {
		return d
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
	return d + jitter
}

// Retry calls fn up to attempts times, sleeping with Backoff between tries.
// It stops early when fn succeeds, when retryable reports false, or when
// ctx is done. The last error from fn is returned.
func Retry(ctx context.Context, attempts int, base, maxDelay time.Duration, retryable func(error) bool, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if wait := Backoff(base, maxDelay, attempt); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}

		if err = fn(); err == nil || !retryable(err) {
			return err
		}
	}
	return err
}
