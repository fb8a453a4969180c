package jitter

import (
	"testing"
	"time"
)

// TestDuration tests that jitter stays within the declared range
func TestDuration(t *testing.T) {
	base := time.Second

	for i := 0; i < 100; i++ {
		got := Duration(base, DefaultJitter)
		if got < base || got > base+base/2 {
			t.Fatalf("Duration out of range [1s, 1.5s]: %v", got)
		}
	}

	t.Run("ZeroFactor", func(t *testing.T) {
		if got := Duration(base, 0); got != base {
			t.Errorf("Expected %v with zero jitter, got %v", base, got)
		}
	})
}

// TestExponentialBackoff tests doubling and the max cap
func TestExponentialBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second

	t.Run("DoublesPerAttempt", func(t *testing.T) {
		for attempt, want := range []time.Duration{base, 2 * base, 4 * base} {
			got := ExponentialBackoff(base, max, attempt, 0)
			if got != want {
				t.Errorf("Attempt %d: expected %v, got %v", attempt, want, got)
			}
		}
	})

	t.Run("CappedAtMax", func(t *testing.T) {
		got := ExponentialBackoff(base, max, 10, 0)
		if got != max {
			t.Errorf("Expected cap %v, got %v", max, got)
		}
	})

	t.Run("JitterStaysInRange", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			got := ExponentialBackoff(base, max, 1, DefaultJitter)
			if got < 2*base || got > 3*base {
				t.Fatalf("Backoff out of range [200ms, 300ms]: %v", got)
			}
		}
	})
}
