package auth

import (
	"testing"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!")
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "Secret123!")

	assert.NoError(t, CheckPassword(hash, "Secret123!"))
	assert.ErrorIs(t, CheckPassword(hash, "Secret123?"), common.ErrorUnauthorized)

	err = CheckPassword([]byte("not a hash"), "Secret123!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
}

func TestCodes(t *testing.T) {
	code, hash, err := NewCode()
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9]{6}$`, code)
	assert.Len(t, hash, 64)
	assert.Equal(t, HashCode(code), hash)

	assert.True(t, CodeMatches(hash, code))
	assert.False(t, CodeMatches(hash, code+"0"))

	// sha256("123456")
	assert.Equal(t, "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92", HashCode("123456"))
}
