package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/ports"
)

const defaultResetTokenTTL = time.Hour

// ResetThrottle abstracts the duplicate-request suppressor (Redis). Allow
// reports whether a reset email may be sent to the address right now and
// marks the address as recently served. Release frees the slot again when
// the send failed, so a retry is not suppressed for an email that never
// went out.
type ResetThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
	Release(ctx context.Context, email string) error
}

// PasswordResetService issues and consumes single-use password reset tokens.
// An account has at most one live token: issuing a new one overwrites, and
// thereby invalidates, any previous one.
type PasswordResetService struct {
	repo     ports.CredentialRepository
	hasher   ports.PasswordHasher
	notifier ports.Notifier
	throttle ResetThrottle
	log      zerolog.Logger
	tokenTTL time.Duration
	now      func() time.Time
}

// NewPasswordResetService builds the service. throttle may be nil, in which
// case every request produces an email. A non-positive tokenTTL falls back
// to one hour.
func NewPasswordResetService(
	repo ports.CredentialRepository,
	hasher ports.PasswordHasher,
	notifier ports.Notifier,
	throttle ResetThrottle,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *PasswordResetService {
	if tokenTTL <= 0 {
		tokenTTL = defaultResetTokenTTL
	}
	return &PasswordResetService{
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
		throttle: throttle,
		log:      log,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

var _ ports.PasswordResetService = (*PasswordResetService)(nil)

// RequestReset generates a fresh token for the account, persists it with a
// one-hour expiry, and emails a reset link. Unknown emails surface as
// domain.ErrNotFound — the HTTP layer converts that into the same generic
// acknowledgement as success so existence is not observable externally.
// A notification failure is reported but never rolls back the stored token.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no account for email", domain.ErrNotFound)
		}
		return fmt.Errorf("find account: %w", err)
	}

	claimed := false
	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("reset throttle check failed, proceeding")
		} else if !allowed {
			s.log.Debug().Str("email", email).Msg("duplicate reset request suppressed")
			return nil
		} else {
			claimed = true
		}
	}
	// A failure after the slot is claimed must free it again, or retries
	// would be suppressed for an email that was never delivered.
	release := func() {
		if !claimed {
			return
		}
		if err := s.throttle.Release(ctx, email); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("failed to release reset throttle slot")
		}
	}

	token := uuid.NewString()
	expiry := s.now().UTC().Add(s.tokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		release()
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.notifier.SendResetLink(ctx, user.Email, token); err != nil {
		// The token is already persisted and stays valid; the caller just
		// learns that delivery failed.
		release()
		return fmt.Errorf("send reset link: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset link sent")
	return nil
}

// ResetPassword consumes a reset token. The consume step is an atomic
// clear-if-token-still-equals write, so two concurrent requests presenting
// the same token cannot both succeed: the loser sees domain.ErrNotFound.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return fmt.Errorf("%w: reset token is required", domain.ErrValidation)
	}

	user, err := s.repo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", domain.ErrNotFound)
		}
		return fmt.Errorf("find reset token: %w", err)
	}

	if user.ResetTokenExpiry == nil || !s.now().Before(*user.ResetTokenExpiry) {
		// Single use also applies to expired tokens: burn it on the way out.
		if err := s.repo.ClearResetToken(ctx, user.ID, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to clear expired reset token")
		}
		return domain.ErrTokenExpired
	}

	if err := validatePasswordPolicy(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.ConsumeResetToken(ctx, user.ID, token, hash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", domain.ErrNotFound)
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	// The password is changed; a failed confirmation email must not undo it.
	if err := s.notifier.SendPasswordChanged(ctx, user.Email); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to send password changed notification")
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}
