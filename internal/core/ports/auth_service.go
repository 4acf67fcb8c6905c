package ports

import (
	"context"
	"time"

	"github.com/hms/hospital-system/internal/core/domain"
)

// RegisterInput carries everything the public registration endpoint accepts.
// Role is advisory: anything other than PATIENT (or empty) is rejected.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Username    string
	Password    string
	Role        string
	PhoneNumber string
	DateOfBirth *time.Time
	Gender      string
	Address     string
}

// LoginInput carries login credentials. Username takes precedence over Email
// as the identifier when both are present.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Identifier resolves the login identifier: username if provided, else email.
func (in LoginInput) Identifier() string {
	if in.Username != "" {
		return in.Username
	}
	return in.Email
}

// AuthResult is the outcome of a successful registration or login.
type AuthResult struct {
	Token       string          `json:"token"`
	TokenType   string          `json:"tokenType"`
	User        *domain.Profile `json:"user"`
	Message     string          `json:"message"`
	RedirectURL string          `json:"redirectUrl"`
	UserID      string          `json:"userId"`
	Username    string          `json:"username,omitempty"`
	Email       string          `json:"email"`
	Role        domain.Role     `json:"role"`
}

// AuthService orchestrates public registration and login.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
}

// PasswordResetService issues and consumes single-use password reset tokens.
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
