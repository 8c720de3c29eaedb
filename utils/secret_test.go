package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestParseSecretKey(t *testing.T) {
	key, err := ParseSecretKey(testKeyHex)
	require.NoError(t, err)
	require.NotNil(t, key)

	_, err = ParseSecretKey("not-hex")
	assert.Error(t, err)

	_, err = ParseSecretKey("abcd")
	assert.Error(t, err, "short keys must be rejected")
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := ParseSecretKey(testKeyHex)
	require.NoError(t, err)

	for _, password := range []string{"", "golf123", strings.Repeat("x", 300)} {
		sealed, err := SealSecret(key, password)
		require.NoError(t, err)
		assert.NotEqual(t, password, sealed)

		opened, err := OpenSecret(key, sealed)
		require.NoError(t, err)
		assert.Equal(t, password, opened)
	}
}

func TestOpenRejectsTamperedAndForeignInput(t *testing.T) {
	key, err := ParseSecretKey(testKeyHex)
	require.NoError(t, err)

	_, err = OpenSecret(key, "%%%not-base64%%%")
	assert.ErrorIs(t, err, ErrSealedSecretInvalid)

	_, err = OpenSecret(key, "c2hvcnQ=") // too short for a nonce
	assert.ErrorIs(t, err, ErrSealedSecretInvalid)

	otherKey, err := ParseSecretKey("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	sealed, err := SealSecret(otherKey, "golf123")
	require.NoError(t, err)

	_, err = OpenSecret(key, sealed)
	assert.ErrorIs(t, err, ErrSealedSecretInvalid)
}
