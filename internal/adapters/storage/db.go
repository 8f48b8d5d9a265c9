package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// TimeLayout is the storage format of instants. Values are always stored in
// UTC so the fixed-width text sorts chronologically.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored instant.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// BoolToInt maps a Go bool to a SQLite integer.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// event.schedule_id is the only link between the two records; a
	// schedule's event list is derived from it.
	schema := `
	CREATE TABLE IF NOT EXISTS customer (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		mobile TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedule (
		id TEXT PRIMARY KEY,
		event_date_time TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schedule_event_date_time ON schedule(event_date_time);

	CREATE TABLE IF NOT EXISTS event (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		schedule_id TEXT UNIQUE,
		length TEXT NOT NULL,
		address TEXT NOT NULL,
		theme TEXT NOT NULL,
		birthday_person TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		value_cents INTEGER NOT NULL CHECK (value_cents >= 0),
		is_budget INTEGER NOT NULL DEFAULT 1,
		finished INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT,
		CHECK (NOT (is_budget = 1 AND finished = 1)),
		FOREIGN KEY (customer_id) REFERENCES customer(id),
		FOREIGN KEY (schedule_id) REFERENCES schedule(id)
	);

	CREATE INDEX IF NOT EXISTS idx_event_customer_id ON event(customer_id);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		last_error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_email TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_audit_event_timestamp ON audit_event(timestamp);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// WithTx runs fn inside a transaction, committing on nil and rolling back otherwise.
// PRE: db is a valid connection
// POST: fn's writes are applied atomically or not at all
func WithTx(ctx context.Context, db SQLDB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
