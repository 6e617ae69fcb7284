package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := HashPassword("s3cret")
	assert.NotEqual(t, "s3cret", h)
	assert.True(t, CheckPassword("s3cret", h))
	assert.False(t, CheckPassword("other", h))
}

func TestArgon2RoundTrip(t *testing.T) {
	h, err := HashPasswordArgon2("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordArgon2("s3cret", h))
	assert.False(t, CheckPasswordArgon2("other", h))
	assert.False(t, CheckPasswordArgon2("s3cret", "not-encoded"))
}

func TestNewIDUnique(t *testing.T) {
	assert.Len(t, NewID(), 36)
	assert.NotEqual(t, NewID(), NewID())
}
