package domain

import (
	"errors"
	"time"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidToken = errors.New("invalid or expired token")
var ErrOTPInvalid = errors.New("invalid verification code")
var ErrOTPExpired = errors.New("verification code expired")
var ErrOTPThrottled = errors.New("verification code requested too recently")

// User models a registered account: buyers, sellers and moderators.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidRole reports whether role is accepted at registration time.
// Admin accounts are provisioned out of band, never self-registered.
func ValidRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller
}
