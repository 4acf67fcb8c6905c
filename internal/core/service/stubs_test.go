package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hms/hospital-system/internal/core/domain"
)

// stubCredentialRepo is an in-memory CredentialRepository honouring the same
// contracts as the Mongo adapter: case-insensitive lookups, atomic
// user+profile creation, and compare-and-clear reset-token semantics.
type stubCredentialRepo struct {
	users    map[string]*domain.User
	profiles map[string]*domain.PatientProfile
	seq      int

	failLastLogin  bool
	failSetReset   bool
	failCreateWith bool
}

func newStubCredentialRepo() *stubCredentialRepo {
	return &stubCredentialRepo{
		users:    make(map[string]*domain.User),
		profiles: make(map[string]*domain.PatientProfile),
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubCredentialRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubCredentialRepo) FindByUsernameOrEmail(_ context.Context, identifier string) (*domain.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, identifier) || (u.Username != "" && strings.EqualFold(u.Username, identifier)) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubCredentialRepo) FindByResetToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ResetToken != "" && u.ResetToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubCredentialRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *stubCredentialRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username != "" && strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCredentialRepo) CreateWithProfile(_ context.Context, user *domain.User, profile *domain.PatientProfile) (*domain.User, error) {
	if r.failCreateWith {
		return nil, errors.New("stub: create failed")
	}
	r.seq++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("user-%d", r.seq)
	if c.Username == "" {
		c.Username = c.Email
	}
	r.users[c.ID] = c

	p := *profile
	p.ID = fmt.Sprintf("profile-%d", r.seq)
	p.UserID = c.ID
	r.profiles[c.ID] = &p

	return cloneUser(c), nil
}

func (r *stubCredentialRepo) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	if r.failLastLogin {
		return errors.New("stub: last login write failed")
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *stubCredentialRepo) SetResetToken(_ context.Context, userID, token string, expiry time.Time) error {
	if r.failSetReset {
		return errors.New("stub: reset token write failed")
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *stubCredentialRepo) ClearResetToken(_ context.Context, userID, token string) error {
	u, ok := r.users[userID]
	if !ok || u.ResetToken != token {
		return domain.ErrNotFound
	}
	u.ResetToken = ""
	u.ResetTokenExpiry = nil
	return nil
}

func (r *stubCredentialRepo) ConsumeResetToken(_ context.Context, userID, token, newPasswordHash string) error {
	u, ok := r.users[userID]
	if !ok || u.ResetToken != token {
		return domain.ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	u.ResetToken = ""
	u.ResetTokenExpiry = nil
	return nil
}

// seed inserts a user directly, bypassing registration.
func (r *stubCredentialRepo) seed(u *domain.User) *domain.User {
	r.seq++
	c := cloneUser(u)
	if c.ID == "" {
		c.ID = fmt.Sprintf("user-%d", r.seq)
	}
	r.users[c.ID] = c
	return c
}

// stubNotifier records notifications and can be made to fail.
type stubNotifier struct {
	resetLinks     []string // "email:token"
	changedEmails  []string
	welcomeEmails  []string
	failResetLink  bool
	failPwdChanged bool
	failWelcome    bool
}

func (n *stubNotifier) SendWelcome(_ context.Context, email, _ string) error {
	if n.failWelcome {
		return errors.New("stub: smtp unavailable")
	}
	n.welcomeEmails = append(n.welcomeEmails, email)
	return nil
}

func (n *stubNotifier) SendResetLink(_ context.Context, email, token string) error {
	if n.failResetLink {
		return errors.New("stub: smtp unavailable")
	}
	n.resetLinks = append(n.resetLinks, email+":"+token)
	return nil
}

func (n *stubNotifier) SendPasswordChanged(_ context.Context, email string) error {
	if n.failPwdChanged {
		return errors.New("stub: smtp unavailable")
	}
	n.changedEmails = append(n.changedEmails, email)
	return nil
}

// stubThrottle tracks one slot like the Redis implementation: Allow claims
// it, Release frees it. The configured decision and error override the
// slot state when set.
type stubThrottle struct {
	allow    bool
	err      error
	calls    int
	releases int
	held     bool
}

func (t *stubThrottle) Allow(context.Context, string) (bool, error) {
	t.calls++
	if t.err != nil {
		return false, t.err
	}
	if !t.allow || t.held {
		return false, nil
	}
	t.held = true
	return true, nil
}

func (t *stubThrottle) Release(context.Context, string) error {
	t.releases++
	t.held = false
	return nil
}
