package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher is the C2 component: one-way hashing and constant-time
// verification of user passwords with a per-hash salt embedded in the
// returned string, via bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher at the given bcrypt cost. A cost <= 0
// falls back to bcrypt.DefaultCost+1 (11), the same cost the config
// default uses, which lands in the 50-150ms band on commodity hardware.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost + 1
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches hash. bcrypt's comparison is
// constant-time with respect to the hash bytes.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
