// Package store is the local sqlite state file: sealed cache entries, the
// access log and a small key-value meta table.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "modernc.org/sqlite"
)

// schemaVersion is bumped whenever createSchema changes incompatibly.
const schemaVersion = 1

const schemaVersionKey = "schema_version"

const createSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS access_log (
	id         TEXT PRIMARY KEY,
	item       TEXT NOT NULL,
	action     TEXT NOT NULL,
	outcome    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_access_log_created ON access_log(created_at);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// DB is the state database. Writers in other processes are serialized by
// sqlite's busy timeout only.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the state database at path and restricts the file
// to the current user.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	d := &DB{conn: conn}
	if err := d.init(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := os.Chmod(path, 0600); err != nil && !os.IsNotExist(err) {
		conn.Close()
		return nil, fmt.Errorf("restricting %s: %w", path, err)
	}
	return d, nil
}

func (d *DB) init() error {
	for _, p := range pragmas {
		if _, err := d.conn.Exec(p); err != nil {
			return fmt.Errorf("setting %s: %w", p, err)
		}
	}
	if _, err := d.conn.Exec(createSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	raw, err := d.GetMeta(schemaVersionKey)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if raw == "" {
		return d.SetMeta(schemaVersionKey, strconv.Itoa(schemaVersion))
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("schema version %q: %w", raw, err)
	}
	if v > schemaVersion {
		return fmt.Errorf("state database schema v%d is newer than supported v%d", v, schemaVersion)
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}
