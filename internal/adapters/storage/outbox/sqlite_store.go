package outbox

import (
	"context"
	"database/sql"

	"partyplanner/internal/adapters/storage"
	domain "partyplanner/internal/domain/outbox"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectEntry = `SELECT id, kind, payload, status, attempts, max_attempts, last_attempted_at, created_at, last_error FROM outbox`

// Save persists an outbox entry (insert or update).
// PRE: entry has been validated
// POST: Entry is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	lastAttemptedAt := ""
	if !e.LastAttemptedAt.IsZero() {
		lastAttemptedAt = storage.FormatTime(e.LastAttemptedAt)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (id, kind, payload, status, attempts, max_attempts, last_attempted_at, created_at, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, last_error=excluded.last_error`,
		e.ID, string(e.Kind), e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		lastAttemptedAt, storage.FormatTime(e.CreatedAt), e.LastError)
	return err
}

// ListPending returns pending and retrying entries.
// PRE: limit > 0
// POST: Returns up to limit entries ordered by created_at
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.query(ctx, selectEntry+` WHERE status IN (?, ?) ORDER BY created_at, id LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, limit)
}

// ListFailed returns entries that gave up.
// PRE: limit > 0
// POST: Returns up to limit entries ordered by last_attempted_at desc
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.query(ctx, selectEntry+` WHERE status = ? ORDER BY last_attempted_at DESC, id LIMIT ?`,
		domain.StatusFailed, limit)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (domain.Entry, error) {
	var e domain.Entry
	var kind, createdAt, lastAttemptedAt string
	err := rows.Scan(&e.ID, &kind, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.LastError)
	if err != nil {
		return domain.Entry{}, err
	}
	e.Kind = domain.Kind(kind)
	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Entry{}, err
	}
	if lastAttemptedAt != "" {
		if e.LastAttemptedAt, err = storage.ParseTime(lastAttemptedAt); err != nil {
			return domain.Entry{}, err
		}
	}
	return e, nil
}
