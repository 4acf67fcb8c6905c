package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/ports"
)

func newTestAuthService(repo *stubCredentialRepo) *AuthService {
	return newTestAuthServiceWithNotifier(repo, &stubNotifier{})
}

func newTestAuthServiceWithNotifier(repo *stubCredentialRepo, notifier *stubNotifier) *AuthService {
	return NewAuthService(
		repo,
		NewBcryptHasher(4), // minimum cost keeps the test suite fast
		NewJWTTokenService("test-secret", time.Hour),
		NewRoutingResolver(),
		notifier,
		zerolog.Nop(),
	)
}

func validRegisterInput() ports.RegisterInput {
	return ports.RegisterInput{
		FirstName: "Alice",
		LastName:  "Nguyen",
		Email:     "alice@example.com",
		Password:  "Abcdef12",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	res, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", res.TokenType)
	}
	if res.User.Role != domain.RolePatient {
		t.Fatalf("expected PATIENT role, got %s", res.User.Role)
	}
	if res.RedirectURL != "/patient/dashboard" {
		t.Fatalf("unexpected redirect: %s", res.RedirectURL)
	}

	stored := repo.users[res.UserID]
	if stored == nil {
		t.Fatalf("user not persisted")
	}
	// No username was chosen, so the store falls back to the email.
	if stored.Username != "alice@example.com" {
		t.Fatalf("expected email as default username, got %q", stored.Username)
	}
	if stored.PasswordHash == "Abcdef12" {
		t.Fatalf("password stored in plaintext")
	}
	if repo.profiles[res.UserID] == nil {
		t.Fatalf("patient profile not created with the account")
	}
}

func TestAuthService_Register_ForcedRole(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	in := validRegisterInput()
	in.Role = "ADMIN"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for ADMIN self-registration, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("no account should have been created")
	}

	// Explicit PATIENT (any case) is fine.
	in.Role = "patient"
	res, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("patient role rejected: %v", err)
	}
	if res.User.Role != domain.RolePatient {
		t.Fatalf("expected PATIENT, got %s", res.User.Role)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(newStubCredentialRepo())

	cases := map[string]ports.RegisterInput{
		"missing first name": {LastName: "N", Email: "a@x.com", Password: "Abcdef12"},
		"missing last name":  {FirstName: "A", Email: "a@x.com", Password: "Abcdef12"},
		"missing email":      {FirstName: "A", LastName: "N", Password: "Abcdef12"},
		"missing password":   {FirstName: "A", LastName: "N", Email: "a@x.com"},
		"bad email":          {FirstName: "A", LastName: "N", Email: "not-an-email", Password: "Abcdef12"},
		"short password":     {FirstName: "A", LastName: "N", Email: "a@x.com", Password: "Ab1"},
		// 7 characters but 8 bytes: length is counted in runes.
		"short multibyte":    {FirstName: "A", LastName: "N", Email: "a@x.com", Password: "Pässwd1"},
		"no uppercase":       {FirstName: "A", LastName: "N", Email: "a@x.com", Password: "abcdef12"},
		"no lowercase":       {FirstName: "A", LastName: "N", Email: "a@x.com", Password: "ABCDEF12"},
		"no digit":           {FirstName: "A", LastName: "N", Email: "a@x.com", Password: "Abcdefgh"},
	}
	for name, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	in := validRegisterInput()
	in.Username = "alice"
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	// Same email, different case.
	dup := validRegisterInput()
	dup.Email = "ALICE@Example.com"
	if _, err := svc.Register(context.Background(), dup); !errors.Is(err, domain.ErrDuplicateResource) {
		t.Fatalf("expected ErrDuplicateResource for email, got %v", err)
	}

	// Same username, different email.
	dup = validRegisterInput()
	dup.Email = "alice2@example.com"
	dup.Username = "ALICE"
	if _, err := svc.Register(context.Background(), dup); !errors.Is(err, domain.ErrDuplicateResource) {
		t.Fatalf("expected ErrDuplicateResource for username, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	reg, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), ports.LoginInput{Email: "alice@example.com", Password: "Abcdef12"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token")
	}
	if res.User.LastLoginAt == nil {
		t.Fatalf("expected lastLoginAt to be stamped")
	}
	if repo.users[reg.UserID].LastLoginAt == nil {
		t.Fatalf("lastLoginAt not persisted")
	}
}

func TestAuthService_Login_ByUsername(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	in := validRegisterInput()
	in.Username = "alice"
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Login(context.Background(), ports.LoginInput{Username: "Alice", Password: "Abcdef12"}); err != nil {
		t.Fatalf("login by username failed: %v", err)
	}
}

func TestAuthService_Login_FailuresIndistinguishable(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, wrongPwd := svc.Login(context.Background(), ports.LoginInput{Email: "alice@example.com", Password: "wrong"})
	_, unknownID := svc.Login(context.Background(), ports.LoginInput{Email: "ghost@example.com", Password: "Abcdef12"})

	if !errors.Is(wrongPwd, domain.ErrInvalidCredentials) || !errors.Is(unknownID, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPwd, unknownID)
	}
	if wrongPwd.Error() != unknownID.Error() {
		t.Fatalf("login failures must be indistinguishable: %q vs %q", wrongPwd.Error(), unknownID.Error())
	}
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	hash, _ := NewBcryptHasher(4).Hash("Abcdef12")
	repo.seed(&domain.User{
		Email:             "locked@example.com",
		PasswordHash:      hash,
		Role:              domain.RoleDoctor,
		Enabled:           false,
		AccountNonLocked:  true,
		AccountNonExpired: true,
	})

	_, err := svc.Login(context.Background(), ports.LoginInput{Email: "locked@example.com", Password: "Abcdef12"})
	if !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuthService_Login_DisabledNeedsCorrectPassword(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	hash, _ := NewBcryptHasher(4).Hash("Abcdef12")
	repo.seed(&domain.User{
		Email:             "locked@example.com",
		PasswordHash:      hash,
		Role:              domain.RolePatient,
		Enabled:           false,
		AccountNonLocked:  true,
		AccountNonExpired: true,
	})

	// A wrong password on a disabled account must not reveal the disabled
	// state — credentials are checked first.
	_, err := svc.Login(context.Background(), ports.LoginInput{Email: "locked@example.com", Password: "wrong"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_LastLoginWriteFailureSwallowed(t *testing.T) {
	repo := newStubCredentialRepo()
	svc := newTestAuthService(repo)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	repo.failLastLogin = true

	res, err := svc.Login(context.Background(), ports.LoginInput{Email: "alice@example.com", Password: "Abcdef12"})
	if err != nil {
		t.Fatalf("login must succeed despite last-login write failure: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token")
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	svc := newTestAuthService(newStubCredentialRepo())

	if _, err := svc.Login(context.Background(), ports.LoginInput{Password: "Abcdef12"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing identifier, got %v", err)
	}
	if _, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing password, got %v", err)
	}
}

func TestAuthService_Register_WelcomeEmail(t *testing.T) {
	repo := newStubCredentialRepo()
	notifier := &stubNotifier{}
	svc := newTestAuthServiceWithNotifier(repo, notifier)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(notifier.welcomeEmails) != 1 || notifier.welcomeEmails[0] != "alice@example.com" {
		t.Fatalf("welcome email not sent: %v", notifier.welcomeEmails)
	}

	// A failed welcome email never fails the registration.
	notifier.failWelcome = true
	in := validRegisterInput()
	in.Email = "bob@example.com"
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("registration must survive a welcome email failure: %v", err)
	}
}
