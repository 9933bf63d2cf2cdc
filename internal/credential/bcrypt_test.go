package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptVerifier_HashAndVerify(t *testing.T) {
	v, err := NewBcryptVerifier(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := v.Hash("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)

	assert.True(t, v.Verify(hash, "p1"))
	assert.False(t, v.Verify(hash, "p2"))
	assert.False(t, v.Verify("", "p1"))
	assert.False(t, v.Verify("not-a-bcrypt-hash", "p1"))
}

func TestBcryptVerifier_SaltsEachHash(t *testing.T) {
	v, err := NewBcryptVerifier(bcrypt.MinCost)
	require.NoError(t, err)

	first, err := v.Hash("same")
	require.NoError(t, err)
	second, err := v.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptVerifier_RejectsLongPasswords(t *testing.T) {
	v, err := NewBcryptVerifier(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = v.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcryptVerifier_InvalidCost(t *testing.T) {
	_, err := NewBcryptVerifier(bcrypt.MaxCost + 1)
	assert.Error(t, err)

	_, err = NewBcryptVerifier(0)
	assert.Error(t, err)
}
