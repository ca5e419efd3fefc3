package daemon

import (
	gosync "sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single callback after a
// quiet period. Schedule restarts the countdown; Stop cancels any pending
// fire. The callback runs on its own goroutine.
type Debouncer struct {
	mu    gosync.Mutex
	timer *time.Timer
	fn    func()
}

// NewDebouncer returns a debouncer that runs fn when the quiet period
// elapses.
func NewDebouncer(fn func()) *Debouncer {
	return &Debouncer{fn: fn}
}

// Schedule arms the debouncer to fire after delay, canceling any earlier
// pending fire.
func (d *Debouncer) Schedule(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, d.fn)
}

// Stop cancels a pending fire, if any. A callback already running is not
// interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
