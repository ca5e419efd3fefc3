package daemon

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		d.Schedule(60 * time.Millisecond)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("Callback ran %d times, want 1", got)
	}

	d.Schedule(20 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Errorf("Callback ran %d times after reschedule, want 2", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(func() { calls.Add(1) })

	d.Schedule(30 * time.Millisecond)
	d.Stop()
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("Callback ran %d times after Stop, want 0", got)
	}

	// Stop with nothing scheduled is a no-op.
	d.Stop()
}
