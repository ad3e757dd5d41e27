package store

import (
	"database/sql"
	"errors"
	"time"
)

// Entry is a row in cache_entries. Value is sealed ciphertext.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// PutEntry upserts a cache entry.
func (d *DB) PutEntry(e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	_, err := d.conn.Exec(
		`INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		e.Key, e.Value, e.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetEntry returns the entry for key, or nil if there is none.
func (d *DB) GetEntry(key string) (*Entry, error) {
	var e Entry
	var updatedAt string
	err := d.conn.QueryRow(
		"SELECT key, value, updated_at FROM cache_entries WHERE key = ?", key,
	).Scan(&e.Key, &e.Value, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

// DeleteEntry removes an entry. Returns the number of rows deleted.
func (d *DB) DeleteEntry(key string) (int64, error) {
	result, err := d.conn.Exec("DELETE FROM cache_entries WHERE key = ?", key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
