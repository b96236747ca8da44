// Package debounce coalesces bursts of calls into a single delayed
// invocation carrying the most recent arguments.
package debounce

import (
	"sync"
	"time"
)

// Debouncer wraps a function so that rapid repeated calls collapse into
// one call made after the delay has elapsed with no further activity.
// Only the last call's arguments are ever executed. Exactly one timer is
// live at a time per instance.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a debouncer invoking fn after delay of quiescence.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Call schedules fn with arg, cancelling any pending invocation.
// Fire-and-forget: no result is propagated to the caller.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fn(arg)
	})
}

// Stop cancels any pending invocation without executing it.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
