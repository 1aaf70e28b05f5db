package session

import (
	"sync"
	"time"
)

// activityThrottle is the minimum gap between forwarded activity pulses.
const activityThrottle = 30 * time.Second

// Tracker converts raw, high-frequency input signals into a throttled
// activity pulse on the Store. A burst of signals inside one throttle
// window forwards exactly one UpdateActivity call.
type Tracker struct {
	mu      sync.Mutex
	store   *Store
	now     func() time.Time
	last    time.Time
	enabled bool
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerClock overrides the time source, for tests.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(store *Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{store: store, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Enable arms the tracker. The next Signal forwards immediately.
func (t *Tracker) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
	t.last = time.Time{}
}

// Disable drops all signals until Enable is called again. Called on logout.
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

// Signal records one raw input event. It forwards to the Store at most once
// per throttle window; everything else is dropped.
func (t *Tracker) Signal() {
	t.mu.Lock()
	if !t.enabled {
		t.mu.Unlock()
		return
	}
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < activityThrottle {
		t.mu.Unlock()
		return
	}
	t.last = now
	t.mu.Unlock()

	t.store.UpdateActivity()
}
