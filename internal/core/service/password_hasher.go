package service

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hospital-system/internal/core/ports"
)

// BcryptHasher implements ports.PasswordHasher with bcrypt. Bcrypt salts
// every hash internally, so hashing the same password twice produces
// different outputs, and CompareHashAndPassword is constant-time.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost; values outside the
// bcrypt range fall back to the library default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

var _ ports.PasswordHasher = (*BcryptHasher)(nil)

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
