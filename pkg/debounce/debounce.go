// Package debounce coalesces bursts of calls into one trailing flush.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delivers the latest value once no new call has arrived for the window.
type Debouncer[T any] struct {
	mu      sync.Mutex
	window  time.Duration
	clock   Clock
	flush   func(T)
	timer   Timer
	latest  T
	pending bool
	gen     uint64
	closed  bool
}

func New[T any](window time.Duration, clock Clock, flush func(T)) *Debouncer[T] {
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer[T]{window: window, clock: clock, flush: flush}
}

// Call records value and restarts the window. Calls after Close are dropped.
func (d *Debouncer[T]) Call(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.latest = value
	d.pending = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a timer that lost the race with Stop still runs; gen tells it apart
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	value := d.latest
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.flush(value)
}

// Flush delivers a pending value immediately.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	value := d.latest
	d.pending = false
	d.mu.Unlock()

	d.flush(value)
}

// Pending reports whether a value is waiting for its window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Close drops any pending value and rejects further calls.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
