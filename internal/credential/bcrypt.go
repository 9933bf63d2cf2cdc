// Package credential hashes and verifies account passwords.
package credential

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash for passwords bcrypt would silently truncate
var ErrPasswordTooLong = errors.New("password must not exceed 72 bytes")

// BcryptVerifier hashes and verifies passwords with bcrypt
type BcryptVerifier struct {
	cost      int
	dummyHash []byte
}

// NewBcryptVerifier creates a verifier with the given work factor
func NewBcryptVerifier(cost int) (*BcryptVerifier, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare bcrypt verifier: %w", err)
	}

	return &BcryptVerifier{
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// Hash returns the bcrypt digest of password
func (v *BcryptVerifier) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. An empty hash still costs one
// comparison so callers cannot tell unknown users apart by latency.
func (v *BcryptVerifier) Verify(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
