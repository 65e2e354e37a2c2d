package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes; newer x/crypto versions reject
// such input instead, so it is cut here explicitly.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

// NewPasswordHasher returns a hasher with the given bcrypt cost. Costs outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plain.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(truncate(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. A malformed digest is a
// mismatch, not an error.
func (h *PasswordHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), truncate(plain)) == nil
}

// DummyVerify costs the same as a failed Verify. Login calls it when the
// email is unknown.
func (h *PasswordHasher) DummyVerify(plain string) {
	h.dummyOnce.Do(func() {
		digest, err := bcrypt.GenerateFromPassword([]byte("filevault-dummy-password"), h.cost)
		if err == nil {
			h.dummy = string(digest)
		}
	})
	h.Verify(plain, h.dummy)
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
