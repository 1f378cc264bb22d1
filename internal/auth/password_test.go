package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashVerify(t *testing.T) {
	hasher := NewPasswordHasherWithParams(1, 8*1024, 1)

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=8192,t=1,p=1$")

	ok, err := hasher.Verify("s3cret", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordVerifyRejectsMalformedHash(t *testing.T) {
	hasher := NewPasswordHasher()

	for _, hash := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=16$m=1,t=1,p=1$c2FsdA$aGFzaA",
	} {
		_, err := hasher.Verify("x", hash)
		assert.ErrorIs(t, err, ErrMalformedHash, hash)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := NewPasswordHasherWithParams(1, 8*1024, 1)
	hash, err := weak.Hash("s3cret")
	require.NoError(t, err)

	assert.False(t, weak.NeedsRehash(hash))
	assert.True(t, NewPasswordHasherWithParams(2, 8*1024, 1).NeedsRehash(hash))
	assert.False(t, weak.NeedsRehash("plaintext"))
}
