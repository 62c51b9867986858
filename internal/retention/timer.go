package retention

import (
	"sync"
	"time"
)

// Timer is a single re-armable deadline. Arming it again replaces the
// previous deadline, so at most one callback is ever pending.
type Timer struct {
	mu sync.Mutex
	t  *time.Timer
	at time.Time
}

// Arm schedules fn to run at deadline. A deadline already in the past fires
// immediately.
func (t *Timer) Arm(deadline, now time.Time, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t != nil {
		t.t.Stop()
	}
	delay := deadline.Sub(now)
	if delay < 0 {
		delay = 0
	}
	t.at = deadline
	t.t = time.AfterFunc(delay, fn)
}

// Stop cancels the pending callback, if any
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.at = time.Time{}
}

// Deadline returns the armed deadline and whether one is pending
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.at, t.t != nil
}
