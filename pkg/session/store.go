package session

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Expiry thresholds. An idle session lapses after IdleTimeout unless the
// user opted into "remember me", which stretches the window to RememberTimeout.
const (
	IdleTimeout     = 30 * time.Minute
	RememberTimeout = 7 * 24 * time.Hour
)

// User is the identity slice of a session as the client consumes it.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// Store is the single source of truth for client authentication state.
// It is an explicit object constructed once at process start and injected
// into consumers. All operations are safe for concurrent use and never
// return errors: corrupted persisted state degrades to a logged-out state.
type Store struct {
	mu      sync.Mutex
	storage Storage
	log     zerolog.Logger
	now     func() time.Time

	user         *User
	accessToken  string
	refreshToken string
	rememberMe   bool
	lastActivity time.Time
	loading      bool

	// onActivity fires after every activity timestamp update so an expiry
	// watcher can recompute its deadline. Single slot.
	onActivity func(time.Time)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) { s.log = l }
}

// NewStore builds a Store over the given durable storage. The store starts
// in the loading state until Initialize runs.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		log:     log.Logger,
		now:     time.Now,
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login persists the session and sets in-memory state in one step.
func (s *Store) Login(user User, accessToken, refreshToken string, rememberMe bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.user = &user
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.rememberMe = rememberMe
	s.lastActivity = now
	s.loading = false

	raw, err := json.Marshal(user)
	if err != nil {
		s.log.Error().Err(err).Msg("session: user marshal failed, session not persisted")
		return
	}
	s.storage.Set(keyUser, string(raw))
	s.storage.Set(keyToken, accessToken)
	if refreshToken != "" {
		s.storage.Set(keyRefreshToken, refreshToken)
	} else {
		s.storage.Delete(keyRefreshToken)
	}
	s.storage.Set(keyRememberMe, strconv.FormatBool(rememberMe))
	s.storage.Set(keyLastActivity, strconv.FormatInt(now.UnixMilli(), 10))
}

// Logout clears durable and in-memory state. Idempotent.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.loading = false
}

// Initialize rehydrates the session from durable storage at process start.
// A session idle past its threshold, or malformed stored data, is cleared.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	rawUser, okUser := s.storage.Get(keyUser)
	token, okToken := s.storage.Get(keyToken)
	if !okUser || !okToken || token == "" {
		s.clearLocked()
		return
	}

	var user User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.log.Warn().Err(err).Msg("session: stored user malformed, clearing session")
		s.clearLocked()
		return
	}

	rawActivity, ok := s.storage.Get(keyLastActivity)
	if !ok {
		s.clearLocked()
		return
	}
	ms, err := strconv.ParseInt(rawActivity, 10, 64)
	if err != nil {
		s.log.Warn().Err(err).Msg("session: stored activity timestamp malformed, clearing session")
		s.clearLocked()
		return
	}
	lastActivity := time.UnixMilli(ms)

	rememberRaw, _ := s.storage.Get(keyRememberMe)
	rememberMe := rememberRaw == "true"

	threshold := IdleTimeout
	if rememberMe {
		threshold = RememberTimeout
	}
	if s.now().Sub(lastActivity) >= threshold {
		s.log.Info().Str("user_id", user.ID).Msg("session: stored session expired")
		s.clearLocked()
		return
	}

	refreshToken, _ := s.storage.Get(keyRefreshToken)

	s.user = &user
	s.accessToken = token
	s.refreshToken = refreshToken
	s.rememberMe = rememberMe
	s.lastActivity = lastActivity
}

// UpdateActivity overwrites the activity timestamp with the current time.
// The Tracker throttles how often this is invoked.
func (s *Store) UpdateActivity() {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	now := s.now()
	s.lastActivity = now
	s.storage.Set(keyLastActivity, strconv.FormatInt(now.UnixMilli(), 10))
	hook := s.onActivity
	s.mu.Unlock()

	if hook != nil {
		hook(now)
	}
}

// SetTokens swaps the token material after a refresh, keeping the rest of
// the session intact. An empty refreshToken leaves the stored one alone.
func (s *Store) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	s.accessToken = accessToken
	s.storage.Set(keyToken, accessToken)
	if refreshToken != "" {
		s.refreshToken = refreshToken
		s.storage.Set(keyRefreshToken, refreshToken)
	}
}

// OnActivity registers the single activity hook. Re-registering replaces it.
func (s *Store) OnActivity(fn func(time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onActivity = fn
}

// Authenticated reports whether a user and access token are both present.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.accessToken != ""
}

// Loading reports whether Initialize has not yet completed.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// User returns a copy of the current user, or nil when logged out.
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

func (s *Store) RememberMe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rememberMe
}

func (s *Store) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// clearLocked resets state and storage; callers hold s.mu.
func (s *Store) clearLocked() {
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.rememberMe = false
	s.lastActivity = time.Time{}

	s.storage.Delete(keyUser)
	s.storage.Delete(keyToken)
	s.storage.Delete(keyRefreshToken)
	s.storage.Delete(keyRememberMe)
	s.storage.Delete(keyLastActivity)
}
