package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveEntryKey derives a per-entry subkey from the root key. The entry name
// is the HKDF info, so two cache keys never share an encryption key.
func DeriveEntryKey(rootKey, salt []byte, name string) ([]byte, error) {
	r := hkdf.New(sha256.New, rootKey, salt, []byte("bwcreds/cache/"+name))
	subkey := make([]byte, keyLen)
	if _, err := io.ReadFull(r, subkey); err != nil {
		return nil, fmt.Errorf("deriving key for %s: %w", name, err)
	}
	return subkey, nil
}
