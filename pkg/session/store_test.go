package session

import (
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var testUser = User{
	ID:    "user_1",
	Name:  "Ali",
	Email: "ali@example.com",
	Phone: "+923001234567",
	Role:  "buyer",
}

func TestStore_LoginLogout(t *testing.T) {
	store := NewStore(NewMemoryStorage())

	store.Login(testUser, "access123", "refresh123", false)
	if !store.Authenticated() {
		t.Fatalf("expected authenticated after login")
	}
	if store.AccessToken() != "access123" {
		t.Fatalf("unexpected access token")
	}

	store.Logout()
	if store.Authenticated() {
		t.Fatalf("expected logged out")
	}
	if store.User() != nil {
		t.Fatalf("expected nil user after logout")
	}

	// Idempotent.
	store.Logout()
	if store.Authenticated() {
		t.Fatalf("expected logged out after second logout")
	}
}

func TestStore_AuthenticatedNeedsBothUserAndToken(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage)
	store.Login(testUser, "access123", "", false)

	if !store.Authenticated() {
		t.Fatalf("expected authenticated")
	}

	// A stored session without a token must not rehydrate.
	storage.Set(keyToken, "")
	fresh := NewStore(storage)
	fresh.Initialize()
	if fresh.Authenticated() {
		t.Fatalf("expected logged out without token")
	}
}

func TestStore_Initialize_IdleSessionExpires(t *testing.T) {
	storage := NewMemoryStorage()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewStore(storage, WithClock(fixedClock(start)))
	store.Login(testUser, "access123", "refresh123", false)

	// 30 minutes of idleness is the cutoff for plain sessions.
	later := NewStore(storage, WithClock(fixedClock(start.Add(IdleTimeout))))
	later.Initialize()
	if later.Authenticated() {
		t.Fatalf("expected idle session to expire at threshold")
	}
	if _, ok := storage.Get(keyToken); ok {
		t.Fatalf("expected storage cleared on expiry")
	}
}

func TestStore_Initialize_IdleSessionSurvivesUnderThreshold(t *testing.T) {
	storage := NewMemoryStorage()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewStore(storage, WithClock(fixedClock(start)))
	store.Login(testUser, "access123", "refresh123", false)

	later := NewStore(storage, WithClock(fixedClock(start.Add(29*time.Minute))))
	later.Initialize()
	if !later.Authenticated() {
		t.Fatalf("expected session under threshold to rehydrate")
	}
}

func TestStore_Initialize_RememberedSessionSurvivesDays(t *testing.T) {
	storage := NewMemoryStorage()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewStore(storage, WithClock(fixedClock(start)))
	store.Login(testUser, "access123", "refresh123", true)

	later := NewStore(storage, WithClock(fixedClock(start.Add(6*24*time.Hour))))
	later.Initialize()
	if !later.Authenticated() {
		t.Fatalf("expected remembered session to survive 6 days")
	}

	user := later.User()
	if user == nil || user.ID != testUser.ID || user.Email != testUser.Email {
		t.Fatalf("expected original user back, got %+v", user)
	}
	if later.AccessToken() != "access123" || later.RefreshToken() != "refresh123" {
		t.Fatalf("expected original tokens back")
	}

	// Past the long threshold it still dies.
	tooLate := NewStore(storage, WithClock(fixedClock(start.Add(RememberTimeout))))
	tooLate.Initialize()
	if tooLate.Authenticated() {
		t.Fatalf("expected remembered session to expire after 7 days")
	}
}

func TestStore_UpdateActivityResetsIdleClock(t *testing.T) {
	storage := NewMemoryStorage()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start

	store := NewStore(storage, WithClock(func() time.Time { return now }))
	store.Login(testUser, "access123", "refresh123", false)

	// 29 minutes idle, then a pulse.
	now = start.Add(29 * time.Minute)
	store.UpdateActivity()

	// 29 more minutes after the pulse: still inside the window.
	restartAt := now.Add(29 * time.Minute)
	fresh := NewStore(storage, WithClock(fixedClock(restartAt)))
	fresh.Initialize()
	if !fresh.Authenticated() {
		t.Fatalf("expected activity pulse to reset the idle clock")
	}

	// A full 30 minutes after the pulse it expires.
	expiredAt := start.Add(29 * time.Minute).Add(IdleTimeout)
	gone := NewStore(storage, WithClock(fixedClock(expiredAt)))
	gone.Initialize()
	if gone.Authenticated() {
		t.Fatalf("expected expiry 30 minutes after last pulse")
	}
}

func TestStore_Initialize_MalformedDataCleared(t *testing.T) {
	cases := map[string]func(*MemoryStorage){
		"bad user json": func(s *MemoryStorage) {
			s.Set(keyUser, "{not json")
		},
		"bad activity timestamp": func(s *MemoryStorage) {
			s.Set(keyLastActivity, "yesterday")
		},
		"missing activity": func(s *MemoryStorage) {
			s.Delete(keyLastActivity)
		},
	}

	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			storage := NewMemoryStorage()
			store := NewStore(storage)
			store.Login(testUser, "access123", "refresh123", false)
			corrupt(storage)

			fresh := NewStore(storage)
			fresh.Initialize()
			if fresh.Authenticated() {
				t.Fatalf("expected malformed session to clear")
			}
			if fresh.Loading() {
				t.Fatalf("loading must end in all branches")
			}
			if _, ok := storage.Get(keyUser); ok {
				t.Fatalf("expected storage cleared")
			}
		})
	}
}

func TestStore_RoundTripThroughFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := NewStore(NewFileStorage(path), WithClock(fixedClock(at)))
	first.Login(testUser, "access123", "refresh123", true)

	// Fresh process: new storage over the same file.
	second := NewStore(NewFileStorage(path), WithClock(fixedClock(at.Add(time.Minute))))
	second.Initialize()

	if !second.Authenticated() {
		t.Fatalf("expected rehydrated session")
	}
	got := second.User()
	if got == nil || *got != testUser {
		t.Fatalf("user mismatch: %+v vs %+v", got, testUser)
	}
	if second.AccessToken() != first.AccessToken() {
		t.Fatalf("access token mismatch")
	}
	if second.RefreshToken() != first.RefreshToken() {
		t.Fatalf("refresh token mismatch")
	}
	if second.RememberMe() != first.RememberMe() {
		t.Fatalf("rememberMe mismatch")
	}
	if !second.LastActivity().Equal(first.LastActivity()) {
		t.Fatalf("lastActivity mismatch: %v vs %v", second.LastActivity(), first.LastActivity())
	}
}

func TestStore_SetTokens(t *testing.T) {
	store := NewStore(NewMemoryStorage())
	store.Login(testUser, "old-access", "old-refresh", false)

	store.SetTokens("new-access", "new-refresh")
	if store.AccessToken() != "new-access" || store.RefreshToken() != "new-refresh" {
		t.Fatalf("expected swapped tokens")
	}

	// Empty refresh keeps the old one.
	store.SetTokens("newer-access", "")
	if store.RefreshToken() != "new-refresh" {
		t.Fatalf("expected refresh token kept")
	}

	// No-op when logged out.
	store.Logout()
	store.SetTokens("x", "y")
	if store.Authenticated() {
		t.Fatalf("SetTokens must not resurrect a session")
	}
}
