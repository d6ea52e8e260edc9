package server

import (
	"testing"
	"time"
)

func TestRateLimiterBurstAndRefill(t *testing.T) {
	now := time.Unix(0, 0)
	rl := newRateLimiter(RateLimitConfig{Burst: 3, RefillInterval: 3 * time.Second})
	rl.lastCheck = now
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("line %d rejected within burst", i)
		}
	}
	if rl.allow() {
		t.Fatal("line beyond burst was allowed")
	}

	now = now.Add(time.Second)
	if !rl.allow() {
		t.Fatal("token not refilled after one second")
	}
	if rl.allow() {
		t.Fatal("refill exceeded the configured rate")
	}

	now = now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("line %d rejected after full refill", i)
		}
	}
	if rl.allow() {
		t.Fatal("bucket grew beyond its capacity")
	}
}

func TestRateLimiterSanitizesInput(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{})
	if rl.capacity != 1 {
		t.Errorf("capacity = %v, want 1", rl.capacity)
	}
	if rl.rate != 1 {
		t.Errorf("rate = %v, want 1 per second", rl.rate)
	}
}
