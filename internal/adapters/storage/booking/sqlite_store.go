package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"partyplanner/internal/adapters/storage"
	eventStore "partyplanner/internal/adapters/storage/event"
	domain "partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/schedule"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new booking store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectBooking = "SELECT " + eventStore.SelectColumns + `, s.event_date_time
	FROM event e
	JOIN customer c ON c.id = e.customer_id
	JOIN schedule s ON s.id = e.schedule_id`

// ListAll retrieves every scheduled booking ordered by instant.
// PRE: none
// POST: Returns all pairs; unscheduled events are excluded
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return s.query(ctx, selectBooking+" ORDER BY s.event_date_time, e.id")
}

// ListByCustomerID retrieves a customer's bookings ordered by instant.
// Unscheduled events are included with an empty Schedule.
// PRE: customerID is non-empty
// POST: Returns matching pairs
func (s *SQLiteStore) ListByCustomerID(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return s.query(ctx, "SELECT "+eventStore.SelectColumns+`, COALESCE(s.event_date_time, '')
		FROM event e
		JOIN customer c ON c.id = e.customer_id
		LEFT JOIN schedule s ON s.id = e.schedule_id
		WHERE e.customer_id = ?
		ORDER BY s.event_date_time, e.id`, customerID)
}

// ListBetween retrieves bookings scheduled in [from, to).
// PRE: from <= to
// POST: Returns matching pairs ordered by instant
func (s *SQLiteStore) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	return s.query(ctx, selectBooking+" WHERE s.event_date_time >= ? AND s.event_date_time < ? ORDER BY s.event_date_time, e.id",
		storage.FormatTime(from), storage.FormatTime(to))
}

// Delete removes the event and its schedule in one transaction.
// Whatever part already went missing is reported as not deleted.
// PRE: scheduleID and eventID are non-empty
// POST: both rows gone; ErrNotLinked or storage.ErrNotFound leave everything untouched
func (s *SQLiteStore) Delete(ctx context.Context, scheduleID, eventID string) (domain.DeleteResult, error) {
	var res domain.DeleteResult
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res = domain.DeleteResult{}

		var linked sql.NullString
		err := tx.QueryRowContext(ctx, "SELECT schedule_id FROM event WHERE id = ?", eventID).Scan(&linked)
		eventExists := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if eventExists && linked.String != scheduleID {
			return fmt.Errorf("event %s, schedule %s: %w", eventID, scheduleID, ErrNotLinked)
		}

		if eventExists {
			if _, err := tx.ExecContext(ctx, "DELETE FROM event WHERE id = ?", eventID); err != nil {
				return err
			}
			res.EventDeleted = true
		}
		out, err := tx.ExecContext(ctx, "DELETE FROM schedule WHERE id = ?", scheduleID)
		if err != nil {
			return err
		}
		if n, _ := out.RowsAffected(); n > 0 {
			res.ScheduleDeleted = true
		}
		if !res.EventDeleted && !res.ScheduleDeleted {
			return fmt.Errorf("booking %s/%s: %w", scheduleID, eventID, storage.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return res, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Booking
	for rows.Next() {
		var at string
		e, err := eventStore.ScanEvent(rows, &at)
		if err != nil {
			return nil, err
		}
		b := domain.Booking{Event: e}
		if e.ScheduleID != "" && at != "" {
			t, err := storage.ParseTime(at)
			if err != nil {
				return nil, fmt.Errorf("schedule %s: %w", e.ScheduleID, err)
			}
			b.Schedule = schedule.Schedule{ID: e.ScheduleID, EventDateTime: t, EventIDs: []string{e.ID}}
		}
		results = append(results, b)
	}
	return results, rows.Err()
}
