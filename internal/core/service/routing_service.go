package service

import (
	"strings"

	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/ports"
)

const defaultDashboard = "/patient/dashboard"

// roleDashboards maps each role to its landing page. Roles without an entry
// (PHARMACIST) fall back to the patient dashboard.
var roleDashboards = map[domain.Role]string{
	domain.RoleAdmin:        "/admin/dashboard",
	domain.RoleDoctor:       "/doctor/dashboard",
	domain.RolePatient:      "/patient/dashboard",
	domain.RoleNurse:        "/nurse/dashboard",
	domain.RoleReceptionist: "/receptionist/dashboard",
}

// roleAccessPrefixes lists the front-end sections each role may navigate to.
var roleAccessPrefixes = map[domain.Role][]string{
	domain.RoleAdmin:        {"/admin", "/doctor", "/patient", "/nurse", "/receptionist", "/pharmacy", "/lab"},
	domain.RoleDoctor:       {"/doctor", "/patient"},
	domain.RolePatient:      {"/patient"},
	domain.RoleNurse:        {"/nurse", "/patient"},
	domain.RoleReceptionist: {"/receptionist", "/patient"},
}

// StaticRoutingResolver implements ports.RoutingResolver over the fixed
// tables above. Purely advisory — the authorization middleware enforces.
type StaticRoutingResolver struct{}

func NewRoutingResolver() *StaticRoutingResolver {
	return &StaticRoutingResolver{}
}

var _ ports.RoutingResolver = (*StaticRoutingResolver)(nil)

func (r *StaticRoutingResolver) RedirectPathFor(role domain.Role) string {
	if path, ok := roleDashboards[role]; ok {
		return path
	}
	return defaultDashboard
}

func (r *StaticRoutingResolver) PathsAllowedFor(role domain.Role) []string {
	prefixes := roleAccessPrefixes[role]
	out := make([]string, len(prefixes))
	copy(out, prefixes)
	return out
}

func (r *StaticRoutingResolver) IsAllowed(role domain.Role, path string) bool {
	for _, prefix := range roleAccessPrefixes[role] {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
