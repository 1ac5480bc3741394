package grid

import (
	"sync"
	"time"
)

// throttle rate-limits calls to fn with combined leading and trailing
// edges: a call after a quiet period runs immediately; calls inside the
// interval schedule a single trailing run at the remaining delay,
// superseding any previously scheduled one.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	last     time.Time
	timer    *time.Timer
	stopped  bool
}

func newThrottle(interval time.Duration, fn func()) *throttle {
	return &throttle{interval: interval, fn: fn}
}

// Call requests an execution of fn, subject to throttling.
func (t *throttle) Call() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	now := time.Now()
	if t.interval <= 0 || now.Sub(t.last) >= t.interval {
		t.last = now
		t.mu.Unlock()
		t.fn()
		return
	}
	remaining := t.interval - now.Sub(t.last)
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(remaining, t.fire)
	t.mu.Unlock()
}

func (t *throttle) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.last = time.Now()
	t.timer = nil
	t.mu.Unlock()
	t.fn()
}

// Stop cancels any pending trailing execution and rejects further calls.
func (t *throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
