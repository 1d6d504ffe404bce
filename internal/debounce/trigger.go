package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultQuietPeriod is the window used for free-text edits.
const DefaultQuietPeriod = time.Second

// Trigger schedules at most one pending action at a time.
//
// Used by: session.Controller (sandbox edits)
// Connects to: guard.Guard (the action issues the request)
type Trigger struct {
	clock clockwork.Clock

	mu      sync.Mutex
	timer   clockwork.Timer
	gen     uint64 // bumped on every Schedule/Cancel so a stale timer cannot fire
	stopped bool
}

// New creates a trigger driven by clock. A nil clock means wall time.
func New(clock clockwork.Clock) *Trigger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Trigger{clock: clock}
}

// Schedule cancels any pending action and runs action after quiet elapses
// with no further Schedule calls. It returns false once the trigger is stopped.
func (t *Trigger) Schedule(action func(), quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return false
	}

	t.stopTimerLocked()
	t.gen++
	gen := t.gen

	t.timer = t.clock.AfterFunc(quiet, func() {
		t.fire(gen, action)
	})
	return true
}

// Cancel drops the pending action, if any. The trigger stays usable.
func (t *Trigger) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := t.timer != nil
	t.stopTimerLocked()
	t.gen++
	return pending
}

// Stop cancels the pending action and refuses all later Schedule calls.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimerLocked()
	t.gen++
	t.stopped = true
}

// fire runs action unless it was superseded or the trigger stopped between
// the timer expiring and this goroutine taking the lock.
func (t *Trigger) fire(gen uint64, action func()) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	// Outside the lock: the action usually schedules or cancels again.
	action()
}

func (t *Trigger) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
