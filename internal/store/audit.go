package store

import (
	"time"

	"github.com/google/uuid"
)

// auditTimeFormat is fixed-width so created_at sorts lexically.
const auditTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// AuditEntry represents a row in access_log.
type AuditEntry struct {
	ID        string
	Item      string
	Action    string
	Outcome   string
	CreatedAt time.Time
}

// LogAccess writes an audit entry.
func (d *DB) LogAccess(entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := d.conn.Exec(
		`INSERT INTO access_log (id, item, action, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Item, entry.Action, entry.Outcome,
		entry.CreatedAt.UTC().Format(auditTimeFormat),
	)
	return err
}

// GetAuditLog retrieves recent audit entries, newest first.
func (d *DB) GetAuditLog(limit int) ([]AuditEntry, error) {
	rows, err := d.conn.Query(
		"SELECT id, item, action, outcome, created_at FROM access_log ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Item, &e.Action, &e.Outcome, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(auditTimeFormat, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneAuditLog keeps the newest keep entries and returns how many were
// removed.
func (d *DB) PruneAuditLog(keep int) (int64, error) {
	res, err := d.conn.Exec(
		`DELETE FROM access_log WHERE id NOT IN (
			SELECT id FROM access_log ORDER BY created_at DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
