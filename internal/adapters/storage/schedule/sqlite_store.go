package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"partyplanner/internal/adapters/storage"
	domain "partyplanner/internal/domain/schedule"
)

// SQLiteStore implements Store using SQLite.
// A schedule's EventIDs are read back from event.schedule_id.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new schedule store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// GetByID retrieves a Schedule and the IDs of its events.
// PRE: id is non-empty
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Schedule, error) {
	var at string
	err := s.db.QueryRowContext(ctx, "SELECT event_date_time FROM schedule WHERE id = ?", id).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, fmt.Errorf("schedule %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return domain.Schedule{}, err
	}
	t, err := storage.ParseTime(at)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("schedule %s: %w", id, err)
	}

	sched := domain.Schedule{ID: id, EventDateTime: t}
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM event WHERE schedule_id = ? ORDER BY id", id)
	if err != nil {
		return domain.Schedule{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID string
		if err := rows.Scan(&eventID); err != nil {
			return domain.Schedule{}, err
		}
		sched.EventIDs = append(sched.EventIDs, eventID)
	}
	return sched, rows.Err()
}

// Create inserts the schedule and links its event in one transaction.
// PRE: entity has been validated (exactly one event ID)
// POST: schedule row exists and the event points at it, or nothing changed
func (s *SQLiteStore) Create(ctx context.Context, sched domain.Schedule) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schedule (id, event_date_time, created_at) VALUES (?, ?, ?)",
			sched.ID, storage.FormatTime(sched.EventDateTime), storage.FormatTime(s.now()),
		); err != nil {
			return err
		}
		for _, eventID := range sched.EventIDs {
			res, err := tx.ExecContext(ctx,
				"UPDATE event SET schedule_id = ? WHERE id = ? AND schedule_id IS NULL", sched.ID, eventID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("event %s: %w", eventID, ErrEventUnavailable)
			}
		}
		return nil
	})
}

// List retrieves every Schedule ordered by instant, with event IDs.
// PRE: none
// POST: Returns all entities
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.event_date_time, COALESCE(e.id, '') FROM schedule s
		LEFT JOIN event e ON e.schedule_id = s.id
		ORDER BY s.event_date_time, s.id, e.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Schedule
	for rows.Next() {
		var id, at, eventID string
		if err := rows.Scan(&id, &at, &eventID); err != nil {
			return nil, err
		}
		if n := len(results); n == 0 || results[n-1].ID != id {
			t, err := storage.ParseTime(at)
			if err != nil {
				return nil, fmt.Errorf("schedule %s: %w", id, err)
			}
			results = append(results, domain.Schedule{ID: id, EventDateTime: t})
		}
		if eventID != "" {
			last := &results[len(results)-1]
			last.EventIDs = append(last.EventIDs, eventID)
		}
	}
	return results, rows.Err()
}
