package secrets

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewCipherKeyLength(t *testing.T) {
	_, err := NewCipher("short", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")

	_, err = NewCipher(testKey, zap.NewNop())
	assert.NoError(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey, zap.NewNop())
	require.NoError(t, err)

	ciphertext, err := c.Encrypt("n8n-api-key-xyz")
	require.NoError(t, err)
	assert.NotEqual(t, "n8n-api-key-xyz", ciphertext)

	plaintext, err := c.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "n8n-api-key-xyz", plaintext)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	c, err := NewCipher(testKey, zap.NewNop())
	require.NoError(t, err)

	a, err := c.Encrypt("same-value")
	require.NoError(t, err)
	b, err := c.Encrypt("same-value")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptLegacyBase64(t *testing.T) {
	c, err := NewCipher(testKey, zap.NewNop())
	require.NoError(t, err)

	legacy := base64.StdEncoding.EncodeToString([]byte("plain-old-key"))
	plaintext, err := c.Decrypt(legacy)
	require.NoError(t, err)
	assert.Equal(t, "plain-old-key", plaintext)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	c, err := NewCipher(testKey, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Decrypt("not valid base64 !!!")
	assert.Error(t, err)

	// Valid base64 of bytes that are neither a sealed box nor UTF-8.
	junk := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd, 0x80, 0x81})
	_, err = c.Decrypt(junk)
	assert.Error(t, err)
}

func TestDecryptWrongKeyFallsThrough(t *testing.T) {
	a, err := NewCipher(testKey, zap.NewNop())
	require.NoError(t, err)
	b, err := NewCipher(strings.Repeat("k", 32), zap.NewNop())
	require.NoError(t, err)

	ciphertext, err := a.Encrypt("secret")
	require.NoError(t, err)

	// A different key cannot open the box. The raw bytes may or may not
	// happen to be valid UTF-8; either way the original plaintext must
	// not come back.
	plaintext, err := b.Decrypt(ciphertext)
	if err == nil {
		assert.NotEqual(t, "secret", plaintext)
	}
}
