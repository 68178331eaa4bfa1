package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"kotoba/backend/config"
)

var ErrMalformedCiphertext = errors.New("invalid encrypted token format")

// TokenCipher seals third-party API tokens with AES-256-GCM. The key is the
// SHA-256 of the configured secret; the encoded form is
// base64(iv) "." base64(tag) "." base64(ciphertext).
type TokenCipher struct {
	aead cipher.AEAD
}

func NewTokenCipher(rawKey string) (*TokenCipher, error) {
	if len(rawKey) < config.MinEncryptionKeyLength {
		return nil, config.ErrWeakEncryptionKey
	}
	key := sha256.Sum256([]byte(rawKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &TokenCipher{aead: aead}, nil
}

func (tc *TokenCipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, tc.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	sealed := tc.aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(sealed) - tc.aead.Overhead()
	ciphertext, tag := sealed[:split], sealed[split:]

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ciphertext),
	}, "."), nil
}

func (tc *TokenCipher) Decrypt(enc string) (string, error) {
	parts := strings.Split(enc, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", ErrMalformedCiphertext
	}

	var decoded [3][]byte
	for i, p := range parts {
		b, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			return "", ErrMalformedCiphertext
		}
		decoded[i] = b
	}
	iv, tag, ciphertext := decoded[0], decoded[1], decoded[2]
	if len(iv) != tc.aead.NonceSize() || len(tag) != tc.aead.Overhead() {
		return "", ErrMalformedCiphertext
	}

	plaintext, err := tc.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decrypt token: %w", err)
	}
	return string(plaintext), nil
}
