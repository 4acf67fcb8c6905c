package domain

import "errors"

// Closed error taxonomy for the auth core. Services return these sentinels
// (optionally wrapped with fmt.Errorf("%w: ...")) so callers can branch with
// errors.Is instead of matching message strings.
var (
	// ErrValidation covers missing fields, malformed emails, weak passwords,
	// and registration requests that name a non-PATIENT role.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateResource is returned when an email or username is already
	// registered (case-insensitive).
	ErrDuplicateResource = errors.New("resource already exists")

	// ErrInvalidCredentials is the single error for every login failure
	// cause. An unknown identifier and a wrong password are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username/email or password")

	// ErrAccountDisabled is returned when credentials check out but the
	// account is disabled, locked, or expired.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrInvalidToken is returned for malformed or tampered bearer tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for reset tokens past their expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrAccessDenied is returned when an authenticated principal lacks the
	// role required for a path.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound is returned when a looked-up account or reset token does
	// not exist.
	ErrNotFound = errors.New("not found")
)
