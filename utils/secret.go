package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// Season passwords are stored sealed, not hashed: the admin may reveal the
// shared secret to new players, so the server has to be able to read it back.

const nonceSize = 24

var ErrSealedSecretInvalid = errors.New("sealed secret is invalid or was sealed with a different key")

// ParseSecretKey decodes a 64-character hex string into a secretbox key.
func ParseSecretKey(hexKey string) (*[32]byte, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secret key is not valid hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("secret key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// SealSecret encrypts a plaintext with a random nonce and returns
// base64(nonce || box).
func SealSecret(key *[32]byte, plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenSecret reverses SealSecret.
func OpenSecret(key *[32]byte, sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrSealedSecretInvalid
	}
	if len(raw) < nonceSize {
		return "", ErrSealedSecretInvalid
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, key)
	if !ok {
		return "", ErrSealedSecretInvalid
	}
	return string(plaintext), nil
}
