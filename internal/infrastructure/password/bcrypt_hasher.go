package password

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"shopify-auth-layer/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher implements domain.PasswordHasher with bcrypt over the SHA-256
// hex digest of the password, so passwords of any length are accepted and
// every byte counts.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher. A cost of 0 uses bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(raw), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(raw)) == nil
}

// prehash keeps the bcrypt input at 64 bytes, under its 72 byte limit
func prehash(raw string) []byte {
	sum := sha256.Sum256([]byte(raw))
	return []byte(hex.EncodeToString(sum[:]))
}

var _ domain.PasswordHasher = (*BcryptHasher)(nil)
