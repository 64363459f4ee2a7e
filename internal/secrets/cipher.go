package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Cipher encrypts automation API keys at rest with AES-256-GCM. Values
// written before encryption was provisioned were stored as plain
// base64; Decrypt still accepts those, with a logged warning, so a key
// rollout does not take down monitoring. New writes are always
// encrypted.
type Cipher struct {
	aead   cipher.AEAD
	logger *zap.Logger
}

func NewCipher(key string, logger *zap.Logger) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be exactly 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead, logger: logger}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("stored value is not base64: %w", err)
	}

	if len(raw) > c.aead.NonceSize() {
		nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
		if plaintext, err := c.aead.Open(nil, nonce, sealed, nil); err == nil {
			return string(plaintext), nil
		}
	}

	// Legacy path: the value predates encryption and is plain base64.
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("stored value is neither encrypted nor legacy base64")
	}
	c.logger.Warn("Decrypt fell back to legacy base64 credential; re-save the instance to encrypt it")
	return string(raw), nil
}
