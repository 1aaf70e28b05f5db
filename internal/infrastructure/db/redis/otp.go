package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phonely/marketplace/internal/core/domain"
)

const (
	otpTTL         = 5 * time.Minute
	otpResendAfter = 60 * time.Second
	otpMaxAttempts = 3
)

// OTPStore keeps one-time SMS codes in Redis.
// Key layout:
//
//	otp:<phone>          → code        (expires with otpTTL)
//	otp:<phone>:cooldown → "1"         (expires with otpResendAfter)
//	otp:<phone>:attempts → fail count  (expires with otpTTL)
type OTPStore struct {
	client *redis.Client
}

// NewOTPStore creates an OTPStore wrapping the given Redis client.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

// Save stores a fresh code. Issuing again inside the resend cooldown returns
// domain.ErrOTPThrottled; issuing after the cooldown replaces the old code.
func (s *OTPStore) Save(ctx context.Context, phone, code string) error {
	ok, err := s.client.SetNX(ctx, s.key(phone, "cooldown"), "1", otpResendAfter).Result()
	if err != nil {
		return fmt.Errorf("otp cooldown: %w", err)
	}
	if !ok {
		return domain.ErrOTPThrottled
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(phone, ""), code, otpTTL)
	pipe.Del(ctx, s.key(phone, "attempts"))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("otp save: %w", err)
	}
	return nil
}

// Verify consumes the code. A wrong code burns one attempt; after the budget
// is spent the code is deleted and the admin must request a fresh one.
func (s *OTPStore) Verify(ctx context.Context, phone, code string) error {
	stored, err := s.client.Get(ctx, s.key(phone, "")).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ErrOTPExpired
	}
	if err != nil {
		return fmt.Errorf("otp lookup: %w", err)
	}

	if stored != code {
		attempts, err := s.client.Incr(ctx, s.key(phone, "attempts")).Result()
		if err == nil {
			_ = s.client.Expire(ctx, s.key(phone, "attempts"), otpTTL).Err()
			if attempts >= otpMaxAttempts {
				_ = s.client.Del(ctx, s.key(phone, "")).Err()
			}
		}
		return domain.ErrOTPInvalid
	}

	// Success consumes the code: one shot only.
	_ = s.client.Del(ctx, s.key(phone, ""), s.key(phone, "attempts")).Err()
	return nil
}

func (s *OTPStore) key(phone, suffix string) string {
	if suffix == "" {
		return "otp:" + phone
	}
	return "otp:" + phone + ":" + suffix
}
