package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"partyplanner/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("CREATE TABLE party (id TEXT PRIMARY KEY, theme TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestTimedDB_RecordsEveryCall verifies each wrapped call lands in the collector.
func TestTimedDB_RecordsEveryCall(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO party (id, theme) VALUES (?, ?)", "1", "Unicorn"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	var theme string
	if err := tdb.QueryRowContext(ctx, "SELECT theme FROM party WHERE id = ?", "1").Scan(&theme); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if theme != "Unicorn" {
		t.Errorf("theme = %q", theme)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM party")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()

	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Rollback()

	if got := collector.TotalRecorded(); got != 4 {
		t.Errorf("TotalRecorded = %d, want 4", got)
	}
}

// TestTimedDB_ErrorsPassThrough verifies SQL errors are returned unchanged and still timed.
func TestTimedDB_ErrorsPassThrough(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO missing VALUES (?)", "x"); err == nil {
		t.Error("expected error from unknown table")
	}
	var theme string
	if err := tdb.QueryRowContext(ctx, "SELECT theme FROM party WHERE id = ?", "nope").Scan(&theme); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := tdb.ExecContext(cancelled, "INSERT INTO party (id, theme) VALUES (?, ?)", "2", "Pirates"); err == nil {
		t.Error("expected error from cancelled context")
	}

	if got := collector.TotalRecorded(); got != 3 {
		t.Errorf("TotalRecorded = %d, want 3", got)
	}
}

// TestTimedDB_NilCollector verifies TimedDB works without a collector.
func TestTimedDB_NilCollector(t *testing.T) {
	tdb := NewTimedDB(openTimedTestDB(t), nil, 10)
	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO party (id, theme) VALUES (?, ?)", "1", "Space"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
}

// TestTimedDB_ConcurrentUse verifies the wrapper is safe for concurrent callers.
func TestTimedDB_ConcurrentUse(t *testing.T) {
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(openTimedTestDB(t), collector, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var n int
			tdb.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM party").Scan(&n)
		}()
	}
	wg.Wait()

	if got := collector.TotalRecorded(); got != 20 {
		t.Errorf("TotalRecorded = %d, want 20", got)
	}
}

// TestTableOf tests the perf path grouping.
func TestTableOf(t *testing.T) {
	tests := map[string]string{
		"SELECT id FROM event WHERE id = ?":             "event",
		"INSERT INTO schedule (id) VALUES (?)":          "schedule",
		"UPDATE customer SET name = ? WHERE id = ?":     "customer",
		"DELETE FROM event WHERE id = ?":                "event",
		"SELECT e.id FROM event e JOIN schedule s ON 1": "event",
		"PRAGMA foreign_keys=ON":                        "",
	}
	for query, want := range tests {
		if got := tableOf(query); got != want {
			t.Errorf("tableOf(%q) = %q, want %q", query, got, want)
		}
	}
}
