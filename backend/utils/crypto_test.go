package utils

import (
	"strings"
	"testing"

	"kotoba/backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func TestTokenCipherRoundTrip(t *testing.T) {
	tc, err := NewTokenCipher(testEncryptionKey)
	require.NoError(t, err)

	for _, token := range []string{"a", "wk-api-token-1234", "トークン", strings.Repeat("x", 500)} {
		enc, err := tc.Encrypt(token)
		require.NoError(t, err)
		assert.Len(t, strings.Split(enc, "."), 3)
		assert.NotContains(t, enc, token)

		dec, err := tc.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, token, dec)
	}
}

func TestTokenCipherNonceIsFresh(t *testing.T) {
	tc, err := NewTokenCipher(testEncryptionKey)
	require.NoError(t, err)

	a, _ := tc.Encrypt("same")
	b, _ := tc.Encrypt("same")
	assert.NotEqual(t, a, b)
}

func TestTokenCipherRejectsShortKey(t *testing.T) {
	_, err := NewTokenCipher("short")
	assert.ErrorIs(t, err, config.ErrWeakEncryptionKey)
}

func TestTokenCipherDetectsTampering(t *testing.T) {
	tc, err := NewTokenCipher(testEncryptionKey)
	require.NoError(t, err)

	enc, err := tc.Encrypt("secret-token")
	require.NoError(t, err)
	parts := strings.Split(enc, ".")

	other, err := tc.Encrypt("another-token")
	require.NoError(t, err)
	parts[2] = strings.Split(other, ".")[2]

	_, err = tc.Decrypt(strings.Join(parts, "."))
	assert.Error(t, err)
}

func TestTokenCipherWrongKey(t *testing.T) {
	a, _ := NewTokenCipher(testEncryptionKey)
	b, _ := NewTokenCipher(testEncryptionKey + "-rotated")

	enc, err := a.Encrypt("secret-token")
	require.NoError(t, err)
	_, err = b.Decrypt(enc)
	assert.Error(t, err)
}

func TestTokenCipherMalformed(t *testing.T) {
	tc, _ := NewTokenCipher(testEncryptionKey)
	for _, enc := range []string{"", "abc", "a.b", "!!.??.**", "AAAA.AAAA.AAAA"} {
		_, err := tc.Decrypt(enc)
		assert.ErrorIs(t, err, ErrMalformedCiphertext, enc)
	}
}
