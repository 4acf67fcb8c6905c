package domain

import (
	"strings"
	"time"
)

// Role is the closed set of account roles in the hospital back-office.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleDoctor       Role = "DOCTOR"
	RoleNurse        Role = "NURSE"
	RolePatient      Role = "PATIENT"
	RoleReceptionist Role = "RECEPTIONIST"
	RolePharmacist   Role = "PHARMACIST"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RolePatient, RoleReceptionist, RolePharmacist}

// ParseRole normalises a raw string into a Role. The boolean reports whether
// the input named a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// User models an authenticated account (the principal). Accounts are never
// physically deleted; deactivation is a flag flip owned by admin tooling.
type User struct {
	ID                string     `json:"id"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Email             string     `json:"email"`
	Username          string     `json:"username,omitempty"`
	PasswordHash      string     `json:"-"`
	Role              Role       `json:"role"`
	Enabled           bool       `json:"enabled"`
	AccountNonLocked  bool       `json:"-"`
	AccountNonExpired bool       `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
	ResetToken        string     `json:"-"`
	ResetTokenExpiry  *time.Time `json:"-"`
}

// EffectiveUsername returns the username, falling back to the email address
// for accounts created without one. This is the bearer-token subject.
func (u *User) EffectiveUsername() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// IsActive reports whether the account may authenticate: enabled, not
// locked, and not expired.
func (u *User) IsActive() bool {
	return u.Enabled && u.AccountNonLocked && u.AccountNonExpired
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Profile is the client-safe projection of a User returned by the auth
// endpoints. It never carries credential material.
type Profile struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Username    string     `json:"username,omitempty"`
	Role        Role       `json:"role"`
	Enabled     bool       `json:"enabled"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Profile builds the client-safe view of the user.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Username:    u.Username,
		Role:        u.Role,
		Enabled:     u.Enabled,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
