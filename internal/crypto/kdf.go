package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB
	argonThreads = 1
	keyLen       = 32 // 256-bit
	saltLen      = 32
)

// DeriveRootKey derives the 256-bit at-rest key for cached session state from
// the master password and the state salt using Argon2id.
func DeriveRootKey(masterPassword, salt []byte) []byte {
	return argon2.IDKey(masterPassword, salt, argonTime, argonMemory, argonThreads, keyLen)
}

// GenerateSalt returns 32 bytes of cryptographically secure random data.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
