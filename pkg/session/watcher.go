package session

import (
	"sync"
	"time"
)

// warningWindow is how long before expiry the watcher surfaces a warning.
const warningWindow = 2 * time.Minute

// State is the watcher's user-visible phase.
type State int

const (
	// StateIdle means the session is active with no warning shown.
	StateIdle State = iota
	// StateWarning means expiry is close enough to show a countdown.
	StateWarning
	// StateExpired means the idle threshold passed and the session was cleared.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	default:
		return "idle"
	}
}

// Watcher drives the idle-expiry state machine for a Store. Instead of
// polling, it arms a single timer for the next state boundary and recomputes
// the deadline whenever activity is recorded. It is inert for remember-me
// sessions, which never idle out on this timescale.
type Watcher struct {
	mu    sync.Mutex
	store *Store
	now   func() time.Time
	timer *time.Timer

	state   State
	running bool

	onWarning func(remaining time.Duration)
	onExpired func()
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherClock overrides the time source, for tests.
func WithWatcherClock(now func() time.Time) WatcherOption {
	return func(w *Watcher) { w.now = now }
}

func NewWatcher(store *Store, opts ...WatcherOption) *Watcher {
	w := &Watcher{store: store, now: time.Now, state: StateIdle}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnWarning registers the warning callback, invoked with the remaining time
// until expiry. Re-registering replaces the previous callback.
func (w *Watcher) OnWarning(fn func(remaining time.Duration)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onWarning = fn
}

// OnExpired registers the expiry callback, invoked after the session is
// cleared. Re-registering replaces the previous callback.
func (w *Watcher) OnExpired(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onExpired = fn
}

// Start hooks the watcher to the store's activity pulse and arms the first
// deadline. It does nothing for unauthenticated or remember-me sessions.
func (w *Watcher) Start() {
	if !w.store.Authenticated() || w.store.RememberMe() {
		return
	}

	w.mu.Lock()
	w.running = true
	w.state = StateIdle
	w.mu.Unlock()

	w.store.OnActivity(func(time.Time) {
		w.activityRecorded()
	})
	w.check()
}

// Stop disarms the watcher. Safe to call repeatedly.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// State returns the current phase.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// StayLoggedIn records fresh activity, which pushes the deadline out and
// drops any visible warning.
func (w *Watcher) StayLoggedIn() {
	w.store.UpdateActivity()
}

// LogoutNow clears the session immediately.
func (w *Watcher) LogoutNow() {
	w.Stop()
	w.store.Logout()
}

func (w *Watcher) activityRecorded() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.state = StateIdle
	w.mu.Unlock()
	w.check()
}

// check evaluates elapsed idle time, transitions state, fires callbacks and
// arms the timer for the next boundary.
func (w *Watcher) check() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}

	elapsed := w.now().Sub(w.store.LastActivity())
	remaining := IdleTimeout - elapsed

	var (
		warn    func(time.Duration)
		expired func()
		next    time.Duration
	)

	switch {
	case remaining <= 0:
		w.state = StateExpired
		w.running = false
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		expired = w.onExpired
	case remaining <= warningWindow:
		w.state = StateWarning
		warn = w.onWarning
		next = remaining
	default:
		w.state = StateIdle
		next = remaining - warningWindow
	}

	if next > 0 {
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timer = time.AfterFunc(next, w.check)
	}
	w.mu.Unlock()

	if warn != nil {
		warn(remaining)
	}
	if expired != nil {
		w.store.Logout()
		expired()
	}
}
