package ports

import "github.com/hms/hospital-system/internal/core/domain"

// TokenService signs and verifies bearer tokens. The subject is the
// account's effective username; the role is deliberately not embedded so
// role and enabled-flag changes take effect on the very next request.
type TokenService interface {
	// Issue signs a token for the user with the configured lifetime.
	Issue(user *domain.User) (string, error)

	// SubjectOf extracts the subject after verifying the signature. Returns
	// domain.ErrInvalidToken for malformed or tampered tokens. Expiry is not
	// checked here.
	SubjectOf(token string) (string, error)

	// IsValid reports whether the token's signature verifies, its subject
	// matches the user, and its expiry is strictly in the future. It never
	// panics or returns an error: any decode failure is false.
	IsValid(token string, user *domain.User) bool
}

// PasswordHasher produces salted one-way password hashes. Hashing the same
// input twice yields different outputs; Verify runs in time independent of
// where a mismatch occurs.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}
