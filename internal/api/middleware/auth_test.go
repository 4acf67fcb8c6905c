package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/service"
)

// stubRepo resolves a single user by email or username.
type stubRepo struct {
	user *domain.User
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.FindByUsernameOrEmail(context.Background(), email)
}

func (r *stubRepo) FindByUsernameOrEmail(_ context.Context, identifier string) (*domain.User, error) {
	if r.user != nil && (strings.EqualFold(r.user.Email, identifier) || strings.EqualFold(r.user.Username, identifier)) {
		u := *r.user
		return &u, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) FindByResetToken(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (r *stubRepo) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }
func (r *stubRepo) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }

func (r *stubRepo) CreateWithProfile(_ context.Context, u *domain.User, _ *domain.PatientProfile) (*domain.User, error) {
	return u, nil
}

func (r *stubRepo) UpdateLastLogin(context.Context, string, time.Time) error { return nil }
func (r *stubRepo) SetResetToken(context.Context, string, string, time.Time) error {
	return nil
}
func (r *stubRepo) ClearResetToken(context.Context, string, string) error { return nil }
func (r *stubRepo) ConsumeResetToken(context.Context, string, string, string) error {
	return nil
}

func activeUser() *domain.User {
	return &domain.User{
		ID:                "user-1",
		Email:             "alice@example.com",
		Username:          "alice",
		Role:              domain.RoleDoctor,
		Enabled:           true,
		AccountNonLocked:  true,
		AccountNonExpired: true,
	}
}

func bindRequest(t *testing.T, repo *stubRepo, authHeader string) (echo.Context, *httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctor/appointments", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	tokens := service.NewJWTTokenService("secret", time.Hour)
	mw := TokenBinding(tokens, repo, nil, zerolog.Nop())

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("token binding must never fail the request: %v", err)
	}
	return c, rec, called
}

func TestTokenBinding_BindsPrincipal(t *testing.T) {
	repo := &stubRepo{user: activeUser()}
	token, err := service.NewJWTTokenService("secret", time.Hour).Issue(repo.user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	c, _, called := bindRequest(t, repo, "Bearer "+token)
	if !called {
		t.Fatalf("next not called")
	}
	user := CurrentUser(c)
	if user == nil || user.ID != "user-1" {
		t.Fatalf("principal not bound: %+v", user)
	}
	if CurrentRole(c) != domain.RoleDoctor {
		t.Fatalf("role not bound from store, got %q", CurrentRole(c))
	}
}

func TestTokenBinding_MissingHeaderStaysAnonymous(t *testing.T) {
	c, _, called := bindRequest(t, &stubRepo{user: activeUser()}, "")
	if !called {
		t.Fatalf("anonymous request must still reach the next handler")
	}
	if CurrentUser(c) != nil {
		t.Fatalf("no principal expected")
	}
}

func TestTokenBinding_MalformedHeaderStaysAnonymous(t *testing.T) {
	c, _, called := bindRequest(t, &stubRepo{user: activeUser()}, "Token abc")
	if !called || CurrentUser(c) != nil {
		t.Fatalf("malformed header must pass through unbound")
	}
}

func TestTokenBinding_GarbageTokenStaysAnonymous(t *testing.T) {
	c, _, called := bindRequest(t, &stubRepo{user: activeUser()}, "Bearer not-a-token")
	if !called || CurrentUser(c) != nil {
		t.Fatalf("invalid token must pass through unbound")
	}
}

func TestTokenBinding_UnknownSubjectStaysAnonymous(t *testing.T) {
	ghost := activeUser()
	token, err := service.NewJWTTokenService("secret", time.Hour).Issue(ghost)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	// The store no longer knows the subject (account deleted).
	c, _, called := bindRequest(t, &stubRepo{}, "Bearer "+token)
	if !called || CurrentUser(c) != nil {
		t.Fatalf("token for a deleted account must pass through unbound")
	}
}

func TestTokenBinding_WrongSecretStaysAnonymous(t *testing.T) {
	repo := &stubRepo{user: activeUser()}
	token, err := service.NewJWTTokenService("other-secret", time.Hour).Issue(repo.user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	c, _, called := bindRequest(t, repo, "Bearer "+token)
	if !called || CurrentUser(c) != nil {
		t.Fatalf("token signed with another key must pass through unbound")
	}
}

func TestTokenBinding_DisabledAccountStaysAnonymous(t *testing.T) {
	user := activeUser()
	user.Enabled = false
	repo := &stubRepo{user: user}
	token, err := service.NewJWTTokenService("secret", time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	c, _, called := bindRequest(t, repo, "Bearer "+token)
	if !called || CurrentUser(c) != nil {
		t.Fatalf("disabled account must not be bound")
	}
}

func TestTokenBinding_SkipsPublicPrefixes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.Header.Set("Authorization", "Bearer expired-stale-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	tokens := service.NewJWTTokenService("secret", time.Hour)
	mw := TokenBinding(tokens, &stubRepo{}, []string{"/api/v1/auth/"}, zerolog.Nop())

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("public path must bypass token inspection")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
