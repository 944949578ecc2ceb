package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Operations recorded in the journal.
const (
	OpAdd     = "add"
	OpDelete  = "delete"
	OpEdit    = "edit"
	OpClear   = "clear"
	OpRestore = "restore"
	OpBackup  = "backup"
	OpExport  = "export"
	OpReload  = "reload"
)

// Outcomes recorded in the journal.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Entry is one journaled operation.
type Entry struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	RecordID  *int      `json:"record_id,omitempty"`
	Field     string    `json:"field,omitempty"`
	Value     string    `json:"value,omitempty"`
	Outcome   string    `json:"outcome"`
	Affected  int       `json:"affected"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder is the journal as seen by the record service.
type Recorder interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	ForRecord(ctx context.Context, id int) ([]Entry, error)
}

// Verify *DB satisfies Recorder at compile time.
var _ Recorder = (*DB)(nil)

// Append stores e, assigning an id and timestamp when they are unset.
func (db *DB) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var recordID sql.NullInt64
	if e.RecordID != nil {
		recordID = sql.NullInt64{Int64: int64(*e.RecordID), Valid: true}
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO entries (id, op, record_id, field, value, outcome, affected, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Op, recordID, e.Field, e.Value, e.Outcome, e.Affected, e.Checksum, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, op, record_id, field, value, outcome, affected, checksum, created_at
		FROM entries
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	return scanEntries(rows)
}

// ForRecord returns every entry touching record id, oldest first.
func (db *DB) ForRecord(ctx context.Context, id int) ([]Entry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, op, record_id, field, value, outcome, affected, checksum, created_at
		FROM entries
		WHERE record_id = ?
		ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("journal: for record: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			recordID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Op, &recordID, &e.Field, &e.Value, &e.Outcome, &e.Affected, &e.Checksum, &e.CreatedAt); err != nil {
			return nil, err
		}
		if recordID.Valid {
			id := int(recordID.Int64)
			e.RecordID = &id
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
