package fortigate

import (
	"context"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// fakeClock drives the limiter's window without real sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(cfg RateLimitConfig, clock *fakeClock) *rateLimiter {
	l := newRateLimiter(cfg)
	l.now = clock.Now
	return l
}

func TestRateLimiterRejectMode(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(RateLimitConfig{MaxCalls: 3, WindowSeconds: 60, Mode: LimitReject}, clock)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := l.Admit(ctx, "fw1"); err != nil {
			t.Fatalf("call %d should be admitted: %v", i, err)
		}
	}

	err := l.Admit(ctx, "fw1")
	if err == nil {
		t.Fatal("fourth call should be rejected")
	}
	if !IsKind(err, KindRateLimited) {
		t.Errorf("expected rate_limited kind, got %v", err)
	}
	apiErr, _ := AsAPIError(err)
	if !apiErr.Retryable {
		t.Error("local rejection must be marked retryable for the caller")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(RateLimitConfig{MaxCalls: 2, WindowSeconds: 10, Mode: LimitReject}, clock)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := l.Admit(ctx, "fw1"); err != nil {
			t.Fatalf("call %d should be admitted: %v", i, err)
		}
	}
	if err := l.Admit(ctx, "fw1"); err == nil {
		t.Fatal("budget should be exhausted")
	}

	// Window elapses; the budget renews.
	clock.Advance(10 * time.Second)
	if err := l.Admit(ctx, "fw1"); err != nil {
		t.Fatalf("call after window reset should be admitted: %v", err)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(RateLimitConfig{MaxCalls: 0, WindowSeconds: 1}, clock)

	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		if err := l.Admit(ctx, "fw1"); err != nil {
			t.Fatalf("disabled limiter must admit everything: %v", err)
		}
	}
}

func TestRateLimiterWaitModeHonorsContext(t *testing.T) {
	l := newRateLimiter(RateLimitConfig{MaxCalls: 1, WindowSeconds: 3600, Mode: LimitWait})

	if err := l.Admit(context.Background(), "fw1"); err != nil {
		t.Fatalf("first call should be admitted: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Admit(ctx, "fw1")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !IsKind(err, KindConnectivity) {
		t.Errorf("expected connectivity kind for cancellation, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait did not honor context, blocked %v", elapsed)
	}
}

func TestRateLimiterWaitModeAdmitsAfterReset(t *testing.T) {
	l := newRateLimiter(RateLimitConfig{MaxCalls: 1, WindowSeconds: 1, Mode: LimitWait})

	// Shrink the window so the test does not sleep a full second.
	l.window = 50 * time.Millisecond

	ctx := context.Background()
	if err := l.Admit(ctx, "fw1"); err != nil {
		t.Fatalf("first call should be admitted: %v", err)
	}
	if err := l.Admit(ctx, "fw1"); err != nil {
		t.Fatalf("wait mode should admit after the window resets: %v", err)
	}
}

func TestRateLimiterConcurrentBudget(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(RateLimitConfig{MaxCalls: 50, WindowSeconds: 60, Mode: LimitReject}, clock)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Admit(context.Background(), "fw1"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("admitted %d calls, want exactly 50", admitted)
	}
}

// TestRateLimiterNeverOversubscribes drives a limiter through arbitrary
// sequences of calls and clock advances and checks that no window ever
// admits more than the budget.
func TestRateLimiterNeverOversubscribes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxCalls := rapid.IntRange(1, 20).Draw(t, "maxCalls")
		windowSeconds := rapid.IntRange(1, 120).Draw(t, "windowSeconds")

		clock := newFakeClock()
		l := newTestLimiter(RateLimitConfig{
			MaxCalls:      maxCalls,
			WindowSeconds: windowSeconds,
			Mode:          LimitReject,
		}, clock)

		window := time.Duration(windowSeconds) * time.Second
		admittedInWindow := 0
		var windowStart time.Time

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "advance") {
				clock.Advance(time.Duration(rapid.Int64Range(0, int64(2*window)).Draw(t, "delta")))
			}

			err := l.Admit(context.Background(), "fw1")
			now := clock.Now()

			if windowStart.IsZero() || now.Sub(windowStart) >= window {
				if err == nil {
					windowStart = now
					admittedInWindow = 0
				}
			}

			if err == nil {
				admittedInWindow++
				if admittedInWindow > maxCalls {
					t.Fatalf("window admitted %d calls, budget is %d", admittedInWindow, maxCalls)
				}
			} else if !IsKind(err, KindRateLimited) {
				t.Fatalf("unexpected error kind: %v", err)
			}
		}
	})
}
