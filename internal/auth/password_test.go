package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, hasher.Verify("s3cret-password", hash))
	assert.False(t, hasher.Verify("wrong-password", hash))
	assert.False(t, hasher.Verify("s3cret-password", "not-a-hash"))
}

func TestBcryptHasherSaltsEachHash(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	first, err := hasher.Hash("same")
	require.NoError(t, err)
	second, err := hasher.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}

func TestBcryptHasherRejectsLongPasswords(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	_, err := hasher.Hash(strings.Repeat("x", 73))
	assert.Error(t, err)
}
