package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/core/domain"
)

// Rule describes one access control entry. Rules are evaluated in order and
// the first match wins, so narrower rules must precede broader ones.
type Rule struct {
	// Method restricts the rule to one HTTP method; "" matches any method.
	Method string
	// Path is matched exactly unless Prefix is set.
	Path   string
	Prefix bool
	// Public allows the request through without authentication.
	Public bool
	// Roles lists the roles allowed through. Empty (with Public false) means
	// any authenticated user.
	Roles []domain.Role
}

func (r Rule) matches(method, path string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	if r.Prefix {
		return strings.HasPrefix(path, r.Path)
	}
	return path == r.Path
}

// ACL enforces an ordered access control list over the whole route tree.
// Requests that match no rule fall through to the default: authentication
// required, any role allowed.
func ACL(rules []Rule, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			method := c.Request().Method
			path := c.Request().URL.Path

			matched := Rule{}
			for _, r := range rules {
				if r.matches(method, path) {
					matched = r
					break
				}
			}

			if matched.Public {
				return next(c)
			}

			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			if len(matched.Roles) > 0 {
				allowed := false
				for _, role := range matched.Roles {
					if user.Role == role {
						allowed = true
						break
					}
				}
				if !allowed {
					log.Warn().
						Str("user_id", user.ID).
						Str("role", string(user.Role)).
						Str("path", path).
						Msg("access denied")
					return domain.ErrAccessDenied
				}
			}

			return next(c)
		}
	}
}

// DefaultRules returns the access control list for both API mounts. Admins
// pass every role-scoped area; reference data listings are open so the
// appointment booking UI works before sign-in. The doctor list alone is
// restricted to GET: its collection path doubles as a staff-management
// endpoint for writes.
func DefaultRules() []Rule {
	var rules []Rule
	for _, mount := range []string{"/api/v1", "/api"} {
		rules = append(rules,
			Rule{Path: mount + "/auth/", Prefix: true, Public: true},
			Rule{Path: mount + "/departments", Public: true},
			Rule{Path: mount + "/doctors/specializations", Public: true},
			Rule{Method: http.MethodGet, Path: mount + "/doctors", Public: true},
			Rule{Path: mount + "/admin/", Prefix: true, Roles: []domain.Role{domain.RoleAdmin}},
			Rule{Path: mount + "/doctor/", Prefix: true, Roles: []domain.Role{domain.RoleDoctor, domain.RoleAdmin}},
			Rule{Path: mount + "/nurse/", Prefix: true, Roles: []domain.Role{domain.RoleNurse, domain.RoleAdmin}},
			Rule{Path: mount + "/patient/", Prefix: true, Roles: []domain.Role{domain.RolePatient, domain.RoleAdmin}},
			Rule{Path: mount + "/receptionist/", Prefix: true, Roles: []domain.Role{domain.RoleReceptionist, domain.RoleAdmin}},
			Rule{Path: mount + "/pharmacist/", Prefix: true, Roles: []domain.Role{domain.RolePharmacist, domain.RoleAdmin}},
		)
	}
	rules = append(rules,
		Rule{Path: "/health", Prefix: true, Public: true},
		Rule{Path: "/metrics", Public: true},
		Rule{Path: "/swagger", Prefix: true, Public: true},
		Rule{Path: "/favicon.ico", Public: true},
	)
	return rules
}
