package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/api/metrics"
	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/ports"
)

const (
	userContextKey = "user"
	roleContextKey = "role"
)

// CurrentUser returns the authenticated principal bound by TokenBinding,
// or nil when the request is anonymous.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(userContextKey).(*domain.User)
	return u
}

// CurrentRole returns the bound principal's role, or "" for anonymous requests.
func CurrentRole(c echo.Context) domain.Role {
	r, _ := c.Get(roleContextKey).(domain.Role)
	return r
}

// TokenBinding extracts a bearer token, resolves its subject against the
// credential store, and binds the principal into the request context.
//
// It never rejects a request itself: a missing, malformed, or invalid token
// simply leaves the request anonymous, and the access control middleware
// decides whether an anonymous request may proceed. The role is always taken
// from the store, never from token claims, so a role change takes effect on
// the next request rather than at token expiry.
func TokenBinding(tokens ports.TokenService, repo ports.CredentialRepository, publicPrefixes []string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, p := range publicPrefixes {
				if strings.HasPrefix(path, p) {
					return next(c)
				}
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return next(c)
			}
			raw := strings.TrimSpace(parts[1])

			subject, err := tokens.SubjectOf(raw)
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
				log.Debug().Err(err).Str("path", path).Msg("unparsable bearer token")
				return next(c)
			}

			user, err := repo.FindByUsernameOrEmail(c.Request().Context(), subject)
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues("unknown_subject").Inc()
				log.Debug().Err(err).Str("subject", subject).Msg("token subject not found")
				return next(c)
			}

			if !tokens.IsValid(raw, user) || !user.IsActive() {
				metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
				return next(c)
			}

			metrics.TokenValidationsTotal.WithLabelValues("bound").Inc()
			c.Set(userContextKey, user)
			c.Set(roleContextKey, user.Role)
			return next(c)
		}
	}
}
