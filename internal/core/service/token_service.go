package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/ports"
)

const defaultTokenTTL = 24 * time.Hour

// JWTTokenService signs HS256 bearer tokens with a process-wide secret.
//
// Claims are sub (effective username), iat, and exp. The role is not a
// claim: the authorization middleware re-resolves it from the credential
// store on every request, so role or enabled-flag changes bite immediately
// without a revocation list.
type JWTTokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTTokenService creates a token service. A non-positive ttl falls back
// to 24 hours.
func NewJWTTokenService(secret string, ttl time.Duration) *JWTTokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTTokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

var _ ports.TokenService = (*JWTTokenService)(nil)

// Issue signs a token for the user, expiring ttl from now.
func (s *JWTTokenService) Issue(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.EffectiveUsername(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// SubjectOf verifies the signature and returns the subject. Expiry is not
// checked here; IsValid and the middleware own that decision.
func (s *JWTTokenService) SubjectOf(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

// IsValid reports whether the token is signed by us, belongs to the user,
// and has not expired. Decode failures of any kind return false.
func (s *JWTTokenService) IsValid(token string, user *domain.User) (valid bool) {
	defer func() {
		if recover() != nil {
			valid = false
		}
	}()

	if user == nil {
		return false
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return false
	}
	if claims.Subject != user.EffectiveUsername() {
		return false
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(s.now()) {
		return false
	}
	return true
}

func (s *JWTTokenService) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return s.secret, nil
}
