package playback

import (
	"context"
	"sync"
	"time"
)

// Timer calls a function at a fixed interval on its own goroutine until
// stopped, until the function returns false, or until the parent context
// ends. It is not reentrant: starting a running Timer does nothing.
type Timer struct {
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	gen     int
	running bool
}

// NewTimer creates a stopped Timer.
func NewTimer(interval time.Duration) *Timer {
	return &Timer{interval: interval}
}

// Start runs fn every interval. It reports whether a new run started.
func (t *Timer) Start(ctx context.Context, fn func() bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.gen++
	t.running = true
	go t.loop(ctx, t.gen, fn)
	return true
}

func (t *Timer) loop(ctx context.Context, gen int, fn func() bool) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	defer t.finish(gen)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil || !fn() {
				return
			}
		}
	}
}

func (t *Timer) finish(gen int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen == gen {
		t.running = false
		if t.cancel != nil {
			t.cancel()
			t.cancel = nil
		}
	}
}

// Stop clears the timer. It does not wait for an in-flight call to fn, so
// fn may itself call Stop.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.running = false
	t.gen++
}

// Running reports whether the timer is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
