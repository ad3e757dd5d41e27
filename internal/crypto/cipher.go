package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const nonceLen = 12 // 96-bit nonce for GCM

// ErrCiphertext is returned when sealed data is truncated, tampered with or
// was sealed under a different key or name.
var ErrCiphertext = errors.New("invalid ciphertext")

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aead, nil
}

// Seal encrypts plaintext with AES-256-GCM, binding it to aad.
// The result is nonce || ciphertext+tag, base64 encoded.
func Seal(key, plaintext, aad []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	out := make([]byte, nonceLen, nonceLen+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	out = aead.Seal(out, out[:nonceLen], plaintext, aad)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. aad must match the value used when sealing.
func Open(key []byte, sealed string, aad []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	if len(data) < nonceLen+1 {
		return nil, fmt.Errorf("%w: too short", ErrCiphertext)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, data[:nonceLen], data[nonceLen:], aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	return plaintext, nil
}
