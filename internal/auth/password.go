package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a password does not match its hash
var ErrPasswordMismatch = errors.New("password mismatch")

// Hasher hashes and verifies passwords with bcrypt
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher. A cost of 0 uses bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare checks password against hash
func (h *Hasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
