package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/ports"
)

// AuthService implements public registration and login against the
// credential store, hasher, token signer, and routing resolver.
type AuthService struct {
	repo     ports.CredentialRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
	routing  ports.RoutingResolver
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	repo ports.CredentialRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	routing ports.RoutingResolver,
	notifier ports.Notifier,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		routing:  routing,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

var _ ports.AuthService = (*AuthService)(nil)

// Register creates a PATIENT account together with its patient profile in a
// single transaction. A request naming any other role fails closed rather
// than being silently downgraded.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	if role := strings.ToUpper(strings.TrimSpace(in.Role)); role != "" && role != string(domain.RolePatient) {
		s.log.Warn().Str("email", in.Email).Str("role", role).Msg("blocked staff self-registration attempt")
		return nil, fmt.Errorf("%w: self-registration is only allowed for patients; staff accounts must be created by administrators", domain.ErrValidation)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if exists, err := s.repo.ExistsByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if exists {
		return nil, fmt.Errorf("%w: email already exists", domain.ErrDuplicateResource)
	}
	if username != "" {
		if exists, err := s.repo.ExistsByUsername(ctx, username); err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		} else if exists {
			return nil, fmt.Errorf("%w: username already exists", domain.ErrDuplicateResource)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Email:             email,
		Username:          username,
		PasswordHash:      hash,
		Role:              domain.RolePatient,
		Enabled:           true,
		AccountNonLocked:  true,
		AccountNonExpired: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	contact := in.PhoneNumber
	if contact == "" {
		contact = "N/A"
	}
	profile := &domain.PatientProfile{
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		ContactNumber: contact,
		DateOfBirth:   in.DateOfBirth,
		Gender:        in.Gender,
		Address:       in.Address,
		CreatedAt:     now,
	}

	created, err := s.repo.CreateWithProfile(ctx, user, profile)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	token, err := s.tokens.Issue(created)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	// Welcome mail is not critical; a delivery failure never fails the
	// registration.
	if err := s.notifier.SendWelcome(ctx, created.Email, created.FirstName); err != nil {
		s.log.Warn().Err(err).Str("user_id", created.ID).Msg("failed to send welcome email")
	}

	s.log.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("patient account registered")
	return s.result(created, token, "Patient account created successfully"), nil
}

// Login authenticates by username or email. Every credential failure —
// unknown identifier or wrong password — surfaces as the same
// ErrInvalidCredentials so account existence cannot be probed.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	identifier := strings.TrimSpace(in.Identifier())
	if identifier == "" {
		return nil, fmt.Errorf("%w: username or email is required", domain.ErrValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}

	user, err := s.repo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, domain.ErrAccountDisabled
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	// Best effort: a failed timestamp write must never fail the login.
	loginAt := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	} else {
		user.LastLoginAt = &loginAt
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login successful")
	return s.result(user, token, "Login successful"), nil
}

func (s *AuthService) result(user *domain.User, token, message string) *ports.AuthResult {
	return &ports.AuthResult{
		Token:       token,
		TokenType:   "Bearer",
		User:        user.Profile(),
		Message:     message,
		RedirectURL: s.routing.RedirectPathFor(user.Role),
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
	}
}

func validateRegisterInput(in ports.RegisterInput) error {
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return fmt.Errorf("%w: first name is required", domain.ErrValidation)
	case strings.TrimSpace(in.LastName) == "":
		return fmt.Errorf("%w: last name is required", domain.ErrValidation)
	case strings.TrimSpace(in.Email) == "":
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if !validEmail(strings.TrimSpace(in.Email)) {
		return fmt.Errorf("%w: invalid email format", domain.ErrValidation)
	}
	return validatePasswordPolicy(in.Password)
}
