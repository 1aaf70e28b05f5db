package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phonely/marketplace/internal/core/ports"
)

// RefreshTokenStore is the Redis-backed allow-list of live refresh tokens.
// Key format: refresh:<token> → JSON session; the TTL carries the expiry
// policy, so expired tokens simply vanish.
type RefreshTokenStore struct {
	client *redis.Client
}

func NewRefreshTokenStore(client *redis.Client) *RefreshTokenStore {
	return &RefreshTokenStore{client: client}
}

type refreshRecord struct {
	UserID     string `json:"user_id"`
	RememberMe bool   `json:"remember_me"`
}

func (s *RefreshTokenStore) Save(ctx context.Context, token string, session ports.RefreshSession, ttl time.Duration) error {
	raw, err := json.Marshal(refreshRecord{UserID: session.UserID, RememberMe: session.RememberMe})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("refresh token save: %w", err)
	}
	return nil
}

// Find returns nil, nil for unknown tokens: absence is the normal way a token
// expires, not an infrastructure error.
func (s *RefreshTokenStore) Find(ctx context.Context, token string) (*ports.RefreshSession, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh token lookup: %w", err)
	}

	var rec refreshRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Corrupted record: treat as absent rather than failing login flows.
		_ = s.client.Del(ctx, s.key(token)).Err()
		return nil, nil
	}
	return &ports.RefreshSession{UserID: rec.UserID, RememberMe: rec.RememberMe}, nil
}

func (s *RefreshTokenStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *RefreshTokenStore) key(token string) string {
	return "refresh:" + token
}
