package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

const (
	defaultAccessTTL = 15 * time.Minute
	// Refresh token lifetime mirrors the client idle policy: a short window
	// for plain logins, a long one when the user asked to be remembered.
	idleRefreshTTL     = 30 * time.Minute
	rememberRefreshTTL = 7 * 24 * time.Hour
)

// AuthService implements registration, login, the admin OTP challenge and the
// refresh token lifecycle.
type AuthService struct {
	users     ports.UserRepository
	tokens    ports.RefreshTokenStore
	otps      ports.OTPStore
	sms       ports.SMSSender
	jwtSecret string
	accessTTL time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.RefreshTokenStore,
	otps ports.OTPStore,
	sms ports.SMSSender,
	jwtSecret string,
	accessTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		otps:      otps,
		sms:       sms,
		jwtSecret: jwtSecret,
		accessTTL: accessTTL,
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if input.Name == "" || input.Email == "" || input.Phone == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Login authenticates by email and password. Admin accounts do not receive
// tokens here: they are challenged with a one-time SMS code and must complete
// VerifyOTP to obtain a session.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if user.Role == domain.RoleAdmin {
		if err := s.issueOTP(ctx, user); err != nil {
			return nil, err
		}
		return &ports.LoginResult{User: user, OTPRequired: true}, nil
	}

	tokens, err := s.issueTokens(ctx, user, rememberMe)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Bool("remember_me", rememberMe).Msg("login")
	return &ports.LoginResult{User: user, Tokens: tokens}, nil
}

// VerifyOTP completes an admin login by consuming the SMS code.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (*ports.LoginResult, error) {
	if phone == "" || code == "" {
		return nil, domain.ErrOTPInvalid
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if err := s.otps.Verify(ctx, phone, code); err != nil {
		s.log.Warn().Str("user_id", user.ID).Err(err).Msg("otp verification failed")
		return nil, err
	}

	// Admin sessions are never remembered: short refresh window only.
	tokens, err := s.issueTokens(ctx, user, false)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("otp verified, admin session issued")
	return &ports.LoginResult{User: user, Tokens: tokens}, nil
}

// Refresh rotates a refresh token into a fresh token pair. Unknown or expired
// tokens yield domain.ErrInvalidToken; the client must log in again.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidToken
	}

	sess, err := s.tokens.Find(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	// Rotation: the old token is dead the moment a new pair is issued.
	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		s.log.Warn().Err(err).Msg("failed to revoke rotated refresh token")
	}

	return s.issueTokens(ctx, user, sess.RememberMe)
}

// Logout revokes the refresh token. Idempotent: revoking an unknown token is
// not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, rememberMe bool) (*ports.TokenPair, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Name,
		"role": user.Role,
		"exp":  time.Now().Add(s.accessTTL).Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	refresh := uuid.NewString()
	ttl := idleRefreshTTL
	if rememberMe {
		ttl = rememberRefreshTTL
	}
	if err := s.tokens.Save(ctx, refresh, ports.RefreshSession{UserID: user.ID, RememberMe: rememberMe}, ttl); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) issueOTP(ctx context.Context, user *domain.User) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.otps.Save(ctx, user.Phone, code); err != nil {
		return err
	}

	body := fmt.Sprintf("Your Phonely verification code is %s. It expires in 5 minutes.", code)
	if err := s.sms.Send(ctx, user.Phone, body); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("admin otp issued")
	return nil
}

// generateOTP returns a 6-digit zero-padded code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
