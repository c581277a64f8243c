package filelink

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinBcryptCost is the lowest cost accepted for link passwords.
	MinBcryptCost = 12

	// DefaultBcryptCost is the hashing cost used for link passwords.
	DefaultBcryptCost = MinBcryptCost

	// MaxPasswordBytes is the longest password bcrypt will hash.
	MaxPasswordBytes = 72
)

// Hasher hashes and verifies link passwords.
type Hasher interface {
	Hash(password string) ([]byte, error)
	Verify(hash []byte, password string) bool
}

// BcryptHasher is the bcrypt Hasher.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost, which must lie in
// [MinBcryptCost, bcrypt.MaxCost].
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < MinBcryptCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, MinBcryptCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash generates a salted bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) ([]byte, error) {
	if len(password) > MaxPasswordBytes {
		return nil, bcrypt.ErrPasswordTooLong
	}
	return bcrypt.GenerateFromPassword([]byte(password), h.cost)
}

// Verify checks password against hash in constant time. A malformed hash
// never verifies.
func (h *BcryptHasher) Verify(hash []byte, password string) bool {
	// bcrypt ignores bytes past the limit, which would let a longer
	// password match a stored prefix.
	if len(password) > MaxPasswordBytes {
		return false
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	return err == nil
}
