package cartkit

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single invocation that
// fires after a quiet period. Each Trigger resets the timer, so rapid
// sequential edits (repeated quantity clicks) produce one callback
// once the user pauses.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Trigger schedules fn to run after the quiet window, replacing any
// previously scheduled callback and resetting the timer.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		pending := d.pending
		d.pending = nil
		d.timer = nil
		d.mu.Unlock()

		if pending != nil {
			pending()
		}
	})
}

// Flush runs any pending callback immediately, bypassing the window.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if pending != nil {
		pending()
	}
}

// Stop cancels any pending callback without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
