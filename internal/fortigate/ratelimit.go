package fortigate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LimitMode selects what happens when a device's call budget for the
// current window is exhausted.
type LimitMode string

const (
	// LimitReject denies the call immediately with a local rate-limited
	// error, without contacting the device. This is the default: latency
	// stays predictable.
	LimitReject LimitMode = "reject"

	// LimitWait blocks the caller until the window resets, then admits.
	LimitWait LimitMode = "wait"
)

// RateLimitConfig bounds the number of calls admitted per device over a
// rolling window.
type RateLimitConfig struct {
	MaxCalls      int       `yaml:"max_calls" json:"max_calls"`
	WindowSeconds int       `yaml:"window_seconds" json:"window_seconds"`
	Mode          LimitMode `yaml:"mode" json:"mode"`
}

// rateLimiter is the per-device admission gate. The window starts at the
// first admitted call and resets once window has elapsed since that start;
// check and increment happen as a single step under the mutex so
// concurrent callers cannot oversubscribe the budget.
type rateLimiter struct {
	mu          sync.Mutex
	maxCalls    int
	window      time.Duration
	mode        LimitMode
	windowStart time.Time
	count       int

	now func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	mode := cfg.Mode
	if mode != LimitWait {
		mode = LimitReject
	}
	return &rateLimiter{
		maxCalls: cfg.MaxCalls,
		window:   time.Duration(cfg.WindowSeconds) * time.Second,
		mode:     mode,
		now:      time.Now,
	}
}

// Admit gates one call for the device. It returns nil when the call is
// admitted, a rate-limited APIError when the budget is exhausted in reject
// mode, or blocks until the window resets in wait mode. A zero MaxCalls
// disables limiting.
func (l *rateLimiter) Admit(ctx context.Context, deviceID string) error {
	if l.maxCalls <= 0 {
		return nil
	}

	for {
		l.mu.Lock()
		now := l.now()
		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.count = 0
		}
		if l.count < l.maxCalls {
			l.count++
			l.mu.Unlock()
			return nil
		}
		wait := l.windowStart.Add(l.window).Sub(now)
		l.mu.Unlock()

		if l.mode == LimitReject {
			return newAPIError(KindRateLimited, 0, fmt.Sprintf(
				"rate limit exceeded for device %q: %d calls per %s",
				deviceID, l.maxCalls, l.window))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return classifyTransport(ctx.Err())
		case <-timer.C:
		}
	}
}
