package store

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/lovincyrus/bwcreds/internal/crypto"
)

const saltKey = "salt"

// SetMeta upserts a key-value pair in meta.
func (d *DB) SetMeta(key, value string) error {
	_, err := d.conn.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetMeta retrieves a value by key. Returns empty string if not found.
func (d *DB) GetMeta(key string) (string, error) {
	var value string
	err := d.conn.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Salt returns the state salt, generating and storing one on first use.
func (d *DB) Salt() ([]byte, error) {
	enc, err := d.GetMeta(saltKey)
	if err != nil {
		return nil, err
	}
	if enc != "" {
		salt, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("decode salt: %w", err)
		}
		return salt, nil
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if err := d.SetMeta(saltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}
