package service

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/hms/hospital-system/internal/core/domain"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validatePasswordPolicy enforces the account password policy: at least 8
// characters with an uppercase letter, a lowercase letter, and a digit.
// Registration and password reset share this check.
func validatePasswordPolicy(password string) error {
	// Length is counted in characters, not bytes, so multibyte passwords
	// are measured the way users perceive them.
	if utf8.RuneCountInString(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters with uppercase, lowercase, and number", domain.ErrValidation)
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("%w: password must be at least 8 characters with uppercase, lowercase, and number", domain.ErrValidation)
	}
	return nil
}
