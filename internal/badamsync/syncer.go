// Package badamsync implements the client side of the counter sync protocol:
// an optimistic in-memory count whose persistence is debounced, so rapid
// successive mutations within the window produce exactly one write carrying
// the final coalesced value.
package badamsync

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the delay between the last mutation and the write.
const DefaultDebounce = 10 * time.Second

// FlushFunc delivers the current whole value to the server.
type FlushFunc func(ctx context.Context, count int) error

// Syncer is a two-state machine per client session: Idle (last-synced value
// known) and Dirty (local mutations pending, timer armed). Mutations update
// the in-memory value immediately and re-arm a single debounce timer; the
// timer fire or an explicit Flush sends the current value. A failed send
// leaves the state dirty; the next mutation or flush retries.
type Syncer struct {
	flush FlushFunc
	delay time.Duration

	mu    sync.Mutex
	count int
	dirty bool
	timer *time.Timer
}

// New creates a Syncer delivering values through flush. A non-positive delay
// falls back to DefaultDebounce.
func New(flush FlushFunc, delay time.Duration) *Syncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Syncer{flush: flush, delay: delay}
}

// Load sets the authoritative server value as the idle baseline. Local state
// before the first Load must not be trusted.
func (s *Syncer) Load(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count < 0 {
		count = 0
	}
	s.count = count
	s.dirty = false
	s.stopTimerLocked()
}

// Increment bumps the optimistic value and returns it.
func (s *Syncer) Increment() int {
	return s.mutate(+1)
}

// Decrement lowers the optimistic value, clamping at zero, and returns it.
func (s *Syncer) Decrement() int {
	return s.mutate(-1)
}

func (s *Syncer) mutate(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.count + delta
	if next < 0 {
		next = 0
	}
	s.count = next
	s.dirty = true

	// One armed timer at a time; each mutation restarts the window.
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.delay, func() {
		_ = s.Flush(context.Background())
	})

	return next
}

// Value returns the current optimistic value.
func (s *Syncer) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dirty reports whether local mutations are pending persistence.
func (s *Syncer) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush cancels any pending timer and sends the current value immediately.
// Used on sign-out and teardown so no mutation is lost to debounce latency.
// On failure the state stays dirty and the error is returned.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	count := s.count
	s.mu.Unlock()

	if err := s.flush(ctx, count); err != nil {
		return err
	}

	s.mu.Lock()
	// A mutation may have landed while the send was in flight; only the
	// value that actually reached the server counts as synced.
	if s.count == count {
		s.dirty = false
	}
	s.mu.Unlock()
	return nil
}

func (s *Syncer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
