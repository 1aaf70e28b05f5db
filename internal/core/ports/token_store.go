package ports

import (
	"context"
	"time"
)

// RefreshSession is what a stored refresh token resolves to.
type RefreshSession struct {
	UserID     string
	RememberMe bool
}

// RefreshTokenStore is the allow-list of live refresh tokens. A token missing
// from the store (expired, rotated, or revoked) is simply invalid.
type RefreshTokenStore interface {
	Save(ctx context.Context, token string, session RefreshSession, ttl time.Duration) error
	// Find returns the session for a token, or nil when unknown.
	Find(ctx context.Context, token string) (*RefreshSession, error)
	Delete(ctx context.Context, token string) error
}
