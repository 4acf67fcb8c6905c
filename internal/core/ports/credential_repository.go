package ports

import (
	"context"
	"time"

	"github.com/hms/hospital-system/internal/core/domain"
)

// CredentialRepository is the persistence contract for accounts and their
// credential material. Implementations must treat email and username lookups
// as case-insensitive and guarantee atomic single-document writes.
type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByUsernameOrEmail resolves a login identifier that may be either a
	// username or an email address.
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error)

	FindByResetToken(ctx context.Context, token string) (*domain.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// CreateWithProfile persists the account and its patient profile in a
	// single transaction: both records exist afterwards or neither does.
	CreateWithProfile(ctx context.Context, user *domain.User, profile *domain.PatientProfile) (*domain.User, error)

	// UpdateLastLogin stamps the last successful login. Callers treat a
	// failure here as non-fatal.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// SetResetToken stores a fresh reset token and expiry, overwriting (and
	// thereby invalidating) any previous token on the account.
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error

	// ClearResetToken clears the reset token only if it still equals the
	// given value. Returns domain.ErrNotFound when the token was already
	// consumed or replaced.
	ClearResetToken(ctx context.Context, userID, token string) error

	// ConsumeResetToken atomically clears the reset token (if it still
	// equals the given value) and stores the new password hash in the same
	// write. Returns domain.ErrNotFound when another request consumed the
	// token first.
	ConsumeResetToken(ctx context.Context, userID, token, newPasswordHash string) error
}
