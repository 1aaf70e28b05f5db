package session

import (
	"testing"
	"time"
)

func newWatcherFixture(t *testing.T, rememberMe bool) (*Watcher, *Store, *time.Time) {
	t.Helper()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := new(time.Time)
	*now = start
	clock := func() time.Time { return *now }

	store := NewStore(NewMemoryStorage(), WithClock(clock))
	store.Login(testUser, "access123", "refresh123", rememberMe)

	w := NewWatcher(store, WithWatcherClock(clock))
	t.Cleanup(w.Stop)
	return w, store, now
}

func TestWatcher_WarningThenStayLoggedIn(t *testing.T) {
	w, store, now := newWatcherFixture(t, false)

	var warnedRemaining time.Duration
	w.OnWarning(func(remaining time.Duration) { warnedRemaining = remaining })
	expired := false
	w.OnExpired(func() { expired = true })

	w.Start()
	if w.State() != StateIdle {
		t.Fatalf("expected idle at start, got %s", w.State())
	}

	// 28 minutes idle: inside the 2-minute warning window.
	*now = now.Add(28 * time.Minute)
	w.check()
	if w.State() != StateWarning {
		t.Fatalf("expected warning at 28min, got %s", w.State())
	}
	if warnedRemaining != 2*time.Minute {
		t.Fatalf("expected ~120s remaining, got %v", warnedRemaining)
	}

	// "Stay logged in" pulses activity and drops the warning.
	w.StayLoggedIn()
	if w.State() != StateIdle {
		t.Fatalf("expected idle after stay-logged-in, got %s", w.State())
	}

	// 29 minutes after the pulse: still alive.
	lastPulse := *now
	*now = lastPulse.Add(29 * time.Minute)
	w.check()
	if !store.Authenticated() {
		t.Fatalf("no logout may occur inside the fresh 30-minute window")
	}
	if expired {
		t.Fatalf("expired callback fired early")
	}

	// The full threshold after the pulse: expired and logged out.
	*now = lastPulse.Add(IdleTimeout)
	w.check()
	if w.State() != StateExpired {
		t.Fatalf("expected expired, got %s", w.State())
	}
	if store.Authenticated() {
		t.Fatalf("expected forced logout")
	}
	if !expired {
		t.Fatalf("expected expired callback")
	}
}

func TestWatcher_InertForRememberedSessions(t *testing.T) {
	w, store, now := newWatcherFixture(t, true)

	warned := false
	w.OnWarning(func(time.Duration) { warned = true })

	w.Start()

	*now = now.Add(2 * time.Hour)
	w.check()

	if warned {
		t.Fatalf("remember-me sessions never warn")
	}
	if !store.Authenticated() {
		t.Fatalf("remember-me session must survive")
	}
	if w.State() != StateIdle {
		t.Fatalf("expected idle, got %s", w.State())
	}
}

func TestWatcher_LogoutNow(t *testing.T) {
	w, store, _ := newWatcherFixture(t, false)
	w.Start()

	w.LogoutNow()
	if store.Authenticated() {
		t.Fatalf("expected immediate logout")
	}

	// A stopped watcher ignores further checks.
	w.check()
	if w.State() == StateExpired {
		t.Fatalf("stopped watcher must not transition")
	}
}

func TestWatcher_ActivityRecomputesDeadline(t *testing.T) {
	w, _, now := newWatcherFixture(t, false)

	warnings := 0
	w.OnWarning(func(time.Duration) { warnings++ })
	w.Start()

	// Enter the warning window.
	*now = now.Add(28*time.Minute + 30*time.Second)
	w.check()
	if warnings != 1 {
		t.Fatalf("expected 1 warning, got %d", warnings)
	}

	// Activity (from the tracker, say) silently resets to idle.
	w.StayLoggedIn()
	*now = now.Add(10 * time.Minute)
	w.check()
	if w.State() != StateIdle {
		t.Fatalf("expected idle after activity, got %s", w.State())
	}
	if warnings != 1 {
		t.Fatalf("no extra warning expected, got %d", warnings)
	}
}
