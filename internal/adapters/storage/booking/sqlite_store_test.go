package booking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"partyplanner/internal/adapters/storage"
	customerStore "partyplanner/internal/adapters/storage/customer"
	eventStore "partyplanner/internal/adapters/storage/event"
	scheduleStore "partyplanner/internal/adapters/storage/schedule"
	domain "partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/customer"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

type fixture struct {
	db        *sql.DB
	events    *eventStore.SQLiteStore
	schedules *scheduleStore.SQLiteStore
	bookings  *SQLiteStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	customers := customerStore.NewSQLiteStore(db)
	for _, c := range []customer.Customer{
		{ID: "c1", Name: "Maria", Mobile: "1"},
		{ID: "c2", Name: "Joao", Mobile: "2"},
	} {
		if err := customers.Save(context.Background(), c); err != nil {
			t.Fatalf("seed customer: %v", err)
		}
	}
	return fixture{
		db:        db,
		events:    eventStore.NewSQLiteStore(db),
		schedules: scheduleStore.NewSQLiteStore(db),
		bookings:  NewSQLiteStore(db),
	}
}

// book creates an event and, when at is non-zero, its schedule "s-<eventID>".
func (f fixture) book(t *testing.T, eventID, customerID string, at time.Time) {
	t.Helper()
	ctx := context.Background()
	e := event.Event{
		ID: eventID, Length: event.LengthSmall, Address: "Rua B", Theme: "Dinosaurs",
		BirthdayPerson: "Theo", State: event.StateBudget, CustomerID: customerID,
	}
	if err := f.events.Create(ctx, e); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if at.IsZero() {
		return
	}
	s := schedule.Schedule{ID: "s-" + eventID, EventDateTime: at, EventIDs: []string{eventID}}
	if err := f.schedules.Create(ctx, s); err != nil {
		t.Fatalf("create schedule: %v", err)
	}
}

func ids(bs []domain.Booking) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Event.ID
	}
	return out
}

// TestSQLiteStore_ListAll joins both halves and skips unscheduled events.
func TestSQLiteStore_ListAll(t *testing.T) {
	f := newFixture(t)
	f.book(t, "b", "c1", time.Date(2024, 7, 10, 14, 0, 0, 0, time.UTC))
	f.book(t, "a", "c2", time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC))
	f.book(t, "draft", "c1", time.Time{})

	got, err := f.bookings.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 2 || got[0].Event.ID != "a" || got[1].Event.ID != "b" {
		t.Fatalf("ListAll = %v", ids(got))
	}
	for _, b := range got {
		if err := b.Validate(); err != nil {
			t.Errorf("booking %s not symmetric: %v", b.Event.ID, err)
		}
	}
	if got[1].Event.Customer.Name != "Maria" {
		t.Errorf("customer snapshot = %+v", got[1].Event.Customer)
	}
}

// TestSQLiteStore_ListByCustomerID keeps unscheduled events with an empty schedule.
func TestSQLiteStore_ListByCustomerID(t *testing.T) {
	f := newFixture(t)
	f.book(t, "b", "c1", time.Date(2024, 7, 10, 14, 0, 0, 0, time.UTC))
	f.book(t, "other", "c2", time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC))
	f.book(t, "draft", "c1", time.Time{})

	got, err := f.bookings.ListByCustomerID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListByCustomerID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByCustomerID = %v", ids(got))
	}
	scheduled := 0
	for _, b := range got {
		if b.HasSchedule() {
			scheduled++
		}
	}
	if scheduled != 1 {
		t.Errorf("scheduled = %d, want 1", scheduled)
	}
}

// TestSQLiteStore_ListBetween is half-open.
func TestSQLiteStore_ListBetween(t *testing.T) {
	f := newFixture(t)
	f.book(t, "a", "c1", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	f.book(t, "b", "c1", time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC))

	got, err := f.bookings.ListBetween(context.Background(),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListBetween: %v", err)
	}
	if len(got) != 1 || got[0].Event.ID != "a" {
		t.Errorf("ListBetween = %v", ids(got))
	}
}

// TestSQLiteStore_Delete covers the joint delete and its failure modes.
func TestSQLiteStore_Delete(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC)

	t.Run("removes both", func(t *testing.T) {
		f := newFixture(t)
		f.book(t, "e1", "c1", at)
		res, err := f.bookings.Delete(ctx, "s-e1", "e1")
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if !res.EventDeleted || !res.ScheduleDeleted {
			t.Errorf("result = %+v", res)
		}
		if _, err := f.events.GetByID(ctx, "e1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("event survived: %v", err)
		}
		if _, err := f.schedules.GetByID(ctx, "s-e1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("schedule survived: %v", err)
		}
	})

	t.Run("not linked", func(t *testing.T) {
		f := newFixture(t)
		f.book(t, "e1", "c1", at)
		f.book(t, "e2", "c1", at.AddDate(0, 0, 1))
		if _, err := f.bookings.Delete(ctx, "s-e2", "e1"); !errors.Is(err, ErrNotLinked) {
			t.Fatalf("err = %v, want ErrNotLinked", err)
		}
		if _, err := f.events.GetByID(ctx, "e1"); err != nil {
			t.Errorf("e1 removed: %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.bookings.Delete(ctx, "s-x", "x"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("orphan schedule reports partial", func(t *testing.T) {
		f := newFixture(t)
		now := storage.FormatTime(at)
		f.db.Exec("INSERT INTO schedule (id, event_date_time, created_at) VALUES ('s-gone', ?, ?)", now, now)
		res, err := f.bookings.Delete(ctx, "s-gone", "gone")
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if !res.Partial() || !res.ScheduleDeleted {
			t.Errorf("result = %+v, want schedule-only", res)
		}
	})
}
