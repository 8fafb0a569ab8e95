package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	p1, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, p1, passwordLength)

	p2, err := GeneratePassword()
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := verifyPassword(hash, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword(hash, "hunter3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	h1, err := HashPassword("same-password")
	require.NoError(t, err)
	h2, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPasswordInvalidEncoding(t *testing.T) {
	_, err := verifyPassword("not-a-hash", "x")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = verifyPassword("$bcrypt$whatever$x$y$z", "x")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
