package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"partyplanner/internal/adapters/storage"
	domain "partyplanner/internal/domain/customer"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new customer store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

const selectCustomer = "SELECT id, name, phone, mobile, email FROM customer"

// GetByID retrieves a Customer by its ID.
// PRE: id is non-empty
// POST: Returns the entity or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, selectCustomer+" WHERE id = ?", id)
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Mobile, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, fmt.Errorf("customer %s: %w", id, storage.ErrNotFound)
	}
	return c, err
}

// Save persists a Customer (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, c domain.Customer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customer (id, name, phone, mobile, email, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, phone=excluded.phone, mobile=excluded.mobile, email=excluded.email`,
		c.ID, c.Name, c.Phone, c.Mobile, c.Email, storage.FormatTime(s.now()),
	)
	return err
}

// List retrieves customers ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Customer, error) {
	query := selectCustomer
	var args []any
	if q := strings.TrimSpace(filter.Search); q != "" {
		query += " WHERE name LIKE ? COLLATE NOCASE"
		args = append(args, q+"%")
	}
	query += " ORDER BY name COLLATE NOCASE, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Mobile, &c.Email); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
