package ports

import (
	"context"

	"github.com/phonely/marketplace/internal/core/domain"
)

// TokenPair is the session material handed to a client after authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by Login. Exactly one of Tokens or OTPRequired is
// meaningful: admin accounts never receive tokens directly, they get an
// out-of-band SMS challenge and must complete VerifyOTP first.
type LoginResult struct {
	User        *domain.User
	Tokens      *TokenPair
	OTPRequired bool
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
}

// AuthService defines registration, login and the token lifecycle.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error)
	VerifyOTP(ctx context.Context, phone, code string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}
