package ports

import "github.com/hms/hospital-system/internal/core/domain"

// RoutingResolver maps roles to front-end landing paths and advisory path
// prefixes. This is UX routing only — the authorization middleware is the
// enforcement point.
type RoutingResolver interface {
	// RedirectPathFor returns the dashboard path for the role, defaulting to
	// the patient dashboard for roles without an entry.
	RedirectPathFor(role domain.Role) string

	// PathsAllowedFor returns the front-end path prefixes the role may
	// navigate to.
	PathsAllowedFor(role domain.Role) []string

	// IsAllowed reports whether any allowed prefix is a prefix of path.
	IsAllowed(role domain.Role, path string) bool
}
