package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

type stubAuthService struct {
	registerFn  func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	loginFn     func(ctx context.Context, email, password string, rememberMe bool) (*ports.LoginResult, error)
	verifyOTPFn func(ctx context.Context, phone, code string) (*ports.LoginResult, error)
	refreshFn   func(ctx context.Context, refreshToken string) (*ports.TokenPair, error)
	logoutFn    func(ctx context.Context, refreshToken string) error
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password, rememberMe)
}

func (s *stubAuthService) VerifyOTP(ctx context.Context, phone, code string) (*ports.LoginResult, error) {
	return s.verifyOTPFn(ctx, phone, code)
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.logoutFn(ctx, refreshToken)
}

type stubUserFinder struct {
	user *domain.User
}

func (s *stubUserFinder) Create(context.Context, *domain.User) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubUserFinder) FindByEmail(context.Context, string) (*domain.User, error) {
	return s.user, nil
}

func (s *stubUserFinder) FindByPhone(context.Context, string) (*domain.User, error) {
	return s.user, nil
}

func (s *stubUserFinder) FindByID(context.Context, string) (*domain.User, error) {
	if s.user == nil {
		return nil, domain.ErrUserNotFound
	}
	return s.user, nil
}

func newAuthTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, input ports.RegisterInput) (*domain.User, error) {
			if input.Name != "Ali" || input.Role != "seller" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &domain.User{ID: "user_1", Name: input.Name, Email: input.Email, Role: input.Role}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubUserFinder{})

	c, rec := newAuthTestContext(t, http.MethodPost, "/api/v1/auth/register",
		`{"name":"Ali","email":"ali@example.com","phone":"+923001234567","password":"s3cretpass","role":"seller"}`)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["status"] != "success" {
		t.Fatalf("expected success envelope, got %v", resp["status"])
	}
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data in envelope")
	}
	user, ok := data["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in data")
	}
	if user["id"] != "user_1" || user["role"] != "seller" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must never serialize")
	}
}

func TestAuthHandler_Register_ValidationRejects(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, &stubUserFinder{})

	// Admin role is not self-registrable; short passwords fail too.
	cases := []string{
		`{"name":"X","email":"x@example.com","phone":"+92","password":"s3cretpass","role":"admin"}`,
		`{"name":"X","email":"x@example.com","phone":"+92","password":"short","role":"buyer"}`,
		`not-json`,
	}
	for i, body := range cases {
		c, _ := newAuthTestContext(t, http.MethodPost, "/api/v1/auth/register", body)
		err := handler.Register(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %v", i, err)
		}
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub, &stubUserFinder{})

	c, _ := newAuthTestContext(t, http.MethodPost, "/api/v1/auth/register",
		`{"name":"Ali","email":"ali@example.com","phone":"+923001234567","password":"s3cretpass","role":"buyer"}`)

	// The central error handler maps this to 409; the handler passes it up.
	if err := handler.Register(c); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists to propagate, got %v", err)
	}
}

func TestAuthHandler_Login_Tokens(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string, rememberMe bool) (*ports.LoginResult, error) {
			if email != "ali@example.com" || !rememberMe {
				t.Fatalf("unexpected args: %s %v", email, rememberMe)
			}
			return &ports.LoginResult{
				User:   &domain.User{ID: "user_1", Role: "buyer"},
				Tokens: &ports.TokenPair{AccessToken: "access123", RefreshToken: "refresh123"},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubUserFinder{})

	c, rec := newAuthTestContext(t, http.MethodPost, "/api/v1/auth/login",
		`{"email":"ali@example.com","password":"s3cretpass","rememberMe":true}`)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data struct {
			Token        string `json:"token"`
			RefreshToken string `json:"refreshToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Data.Token != "access123" || resp.Data.RefreshToken != "refresh123" {
		t.Fatalf("unexpected tokens: %+v", resp.Data)
	}
}

func TestAuthHandler_Login_AdminOTPChallenge(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, bool) (*ports.LoginResult, error) {
			return &ports.LoginResult{OTPRequired: true}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubUserFinder{})

	c, rec := newAuthTestContext(t, http.MethodPost, "/api/v1/auth/login",
		`{"email":"admin@example.com","password":"adminpass1"}`)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Data struct {
			OTPRequired bool   `json:"otpRequired"`
			Token       string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Data.OTPRequired {
		t.Fatalf("expected otpRequired true")
	}
	if resp.Data.Token != "" {
		t.Fatalf("otp challenge must not carry tokens")
	}
}

func TestAuthHandler_VerifyOTP(t *testing.T) {
	stub := &stubAuthService{
		verifyOTPFn: func(_ context.Context, phone, code string) (*ports.LoginResult, error) {
			if phone != "+923007777777" || code != "123456" {
				t.Fatalf("unexpected args: %s %s", phone, code)
			}
			return &ports.LoginResult{
				User:   &domain.User{ID: "admin_1", Role: "admin"},
				Tokens: &ports.TokenPair{AccessToken: "admintoken", RefreshToken: "adminrefresh"},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubUserFinder{})

	c, rec := newAuthTestContext(t, http.MethodPost, "/api/v1/auth/verify-otp",
		`{"phone":"+923007777777","code":"123456"}`)

	if err := handler.VerifyOTP(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, refreshToken string) (*ports.TokenPair, error) {
			if refreshToken != "old-refresh" {
				t.Fatalf("unexpected token: %s", refreshToken)
			}
			return &ports.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubUserFinder{})

	c, rec := newAuthTestContext(t, http.MethodPost, "/api/v1/auth/refresh",
		`{"refreshToken":"old-refresh"}`)

	if err := handler.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, &stubUserFinder{
		user: &domain.User{ID: "user_1", Name: "Ali", Role: "buyer"},
	})

	c, rec := newAuthTestContext(t, http.MethodGet, "/api/v1/auth/me", "")
	c.Set("user_id", "user_1")
	c.Set("role", "buyer")

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data struct {
			User *domain.User `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Data.User == nil || resp.Data.User.ID != "user_1" {
		t.Fatalf("unexpected user: %+v", resp.Data.User)
	}
}
