package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"partyplanner/internal/adapters/storage"
	domain "partyplanner/internal/domain/event"
)

// SQLiteStore implements Store using SQLite.
// The lifecycle state is stored as the is_budget/finished column pair.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// SelectColumns is the column list ScanEvent expects, joined with customer as c.
const SelectColumns = `e.id, e.length, e.address, e.theme, e.birthday_person, e.description, e.value_cents,
	e.is_budget, e.finished, e.customer_id, COALESCE(e.schedule_id, ''),
	c.name, c.phone, c.mobile, c.email`

const selectEvent = "SELECT " + SelectColumns + " FROM event e JOIN customer c ON c.id = e.customer_id"

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanEvent reads one row selected with SelectColumns. Columns selected after
// SelectColumns are scanned into extra.
func ScanEvent(row Scanner, extra ...any) (domain.Event, error) {
	var (
		e                  domain.Event
		length             string
		isBudget, finished bool
	)
	dest := []any{&e.ID, &length, &e.Address, &e.Theme, &e.BirthdayPerson, &e.Description, &e.ValueCents,
		&isBudget, &finished, &e.CustomerID, &e.ScheduleID,
		&e.Customer.Name, &e.Customer.Phone, &e.Customer.Mobile, &e.Customer.Email}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return domain.Event{}, err
	}
	e.Length = domain.Length(length)
	e.Customer.ID = e.CustomerID
	state, err := domain.StateFromFlags(isBudget, finished)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s: %w", e.ID, err)
	}
	e.State = state
	return e, nil
}

// GetByID retrieves an Event with its customer snapshot.
// PRE: id is non-empty
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	e, err := ScanEvent(s.db.QueryRowContext(ctx, selectEvent+" WHERE e.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	return e, err
}

// Create inserts a new Event. The schedule link is set later by the schedule store.
// PRE: entity has been validated; the customer exists
// POST: Entity is persisted without a schedule
func (s *SQLiteStore) Create(ctx context.Context, e domain.Event) error {
	isBudget, finished := e.State.Flags()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event (id, customer_id, length, address, theme, birthday_person, description, value_cents, is_budget, finished, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CustomerID, string(e.Length), e.Address, e.Theme, e.BirthdayPerson, e.Description, e.ValueCents,
		storage.BoolToInt(isBudget), storage.BoolToInt(finished), storage.FormatTime(s.now()),
	)
	return err
}

// Update overwrites the editable fields and lifecycle flags.
// Customer and schedule links are never changed here.
// PRE: entity exists and has been validated
// POST: Entity fields updated, updated_at set
func (s *SQLiteStore) Update(ctx context.Context, e domain.Event) error {
	isBudget, finished := e.State.Flags()
	res, err := s.db.ExecContext(ctx,
		`UPDATE event SET length = ?, address = ?, theme = ?, birthday_person = ?, description = ?, value_cents = ?,
		is_budget = ?, finished = ?, updated_at = ? WHERE id = ?`,
		string(e.Length), e.Address, e.Theme, e.BirthdayPerson, e.Description, e.ValueCents,
		storage.BoolToInt(isBudget), storage.BoolToInt(finished), storage.FormatTime(s.now()), e.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", e.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteUnscheduled removes an Event that has no schedule.
// PRE: id is non-empty
// POST: the event is gone, or ErrHasSchedule / storage.ErrNotFound
func (s *SQLiteStore) DeleteUnscheduled(ctx context.Context, id string) error {
	var scheduleID sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT schedule_id FROM event WHERE id = ?", id).Scan(&scheduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if scheduleID.Valid {
		return fmt.Errorf("event %s: %w", id, ErrHasSchedule)
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM event WHERE id = ? AND schedule_id IS NULL", id)
	return err
}

// ListByCustomerID retrieves a customer's events, newest first.
// PRE: customerID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListByCustomerID(ctx context.Context, customerID string) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvent+" WHERE e.customer_id = ? ORDER BY e.created_at DESC, e.id", customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		e, err := ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}
