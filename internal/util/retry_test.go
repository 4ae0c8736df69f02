// ABOUTME: Tests for retry utilities including exponential backoff
// ABOUTME: Validates backoff bounds, jitter, and early exits from Retry
package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_NonPositiveAttempt(t *testing.T) {
	for _, attempt := range []int{0, -1, -100} {
		if got := Backoff(time.Second, time.Minute, attempt); got != 0 {
			t.Errorf("Backoff(attempt=%d) = %v, want 0", attempt, got)
		}
	}
}

func TestBackoff_ExponentialGrowth(t *testing.T) {
	base := 100 * time.Millisecond

	for attempt := 1; attempt <= 5; attempt++ {
		expected := base * time.Duration(1<<uint(attempt))
		got := Backoff(base, time.Minute, attempt)
		if got < expected*3/4 || got > expected*5/4 {
			t.Errorf("attempt %d: got %v, want within 25%% of %v", attempt, got, expected)
		}
	}
}

func TestBackoff_Capped(t *testing.T) {
	for _, attempt := range []int{10, 100} {
		got := Backoff(time.Second, 2*time.Second, attempt)
		if got < 1500*time.Millisecond || got > 2500*time.Millisecond {
			t.Errorf("attempt %d: got %v, want within 25%% of the 2s cap", attempt, got)
		}
	}
}

func TestBackoff_Jitter(t *testing.T) {
	first := Backoff(time.Second, time.Minute, 2)
	for i := 0; i < 100; i++ {
		if Backoff(time.Second, time.Minute, 2) != first {
			return
		}
	}
	t.Error("jitter should produce varying results, but 100 samples were identical")
}

var errTransient = errors.New("transient")

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, 5*time.Millisecond,
		func(error) bool { return true },
		func() error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, 5*time.Millisecond,
		func(err error) bool { return errors.Is(err, errTransient) },
		func() error {
			calls++
			return permanent
		})
	if !errors.Is(err, permanent) {
		t.Errorf("Retry() error = %v, want permanent", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, 5*time.Millisecond,
		func(error) bool { return true },
		func() error {
			calls++
			return errTransient
		})
	if !errors.Is(err, errTransient) || calls != 2 {
		t.Errorf("Retry() = %v after %d calls, want errTransient after 2", err, calls)
	}
}

func TestRetry_SingleAttemptDoesNotSleep(t *testing.T) {
	start := time.Now()
	_ = Retry(context.Background(), 0, time.Hour, time.Hour,
		func(error) bool { return true },
		func() error { return errTransient })
	if time.Since(start) > time.Second {
		t.Error("a single attempt should not wait")
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 3, time.Hour, time.Hour,
		func(error) bool { return true },
		func() error {
			calls++
			return errTransient
		})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 before noticing cancellation", calls)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("Retry() error = %v, want the last attempt's error", err)
	}
}
