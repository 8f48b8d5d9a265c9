package main

import (
	"bytes"
	"context"
	"database/sql"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	web "partyplanner/internal/adapters/http"
	"partyplanner/internal/adapters/http/middleware"
	"partyplanner/internal/adapters/storage"
	bookingStore "partyplanner/internal/adapters/storage/booking"
	customerStore "partyplanner/internal/adapters/storage/customer"
	eventStore "partyplanner/internal/adapters/storage/event"
	scheduleStore "partyplanner/internal/adapters/storage/schedule"
)

// startStore runs the store API on an in-memory database and points the CLI at it.
func startStore(t *testing.T) {
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

	tokens := middleware.NewTokenService("cli-test-secret-cli-test-secret-00", time.Hour)
	mux := web.NewMux(&web.Stores{
		CustomerStore: customerStore.NewSQLiteStore(db),
		EventStore:    eventStore.NewSQLiteStore(db),
		ScheduleStore: scheduleStore.NewSQLiteStore(db),
		BookingStore:  bookingStore.NewSQLiteStore(db),
	}, web.Options{Tokens: tokens, Location: time.UTC}, nil)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	token, _, err := tokens.Issue("admin@festas.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	t.Setenv("PARTY_API_BASE_URL", srv.URL)
	t.Setenv("PARTY_API_TOKEN", token)
	t.Setenv("PARTY_TIMEZONE", "UTC")
	t.Setenv("PARTY_READ_RETRIES", "0")
}

// planner runs one CLI invocation and returns its output.
func planner(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{"-config", "", "-env", ""}, args...), &out, &errOut)
	return out.String(), err
}

func mustPlanner(t *testing.T, args ...string) string {
	t.Helper()
	out, err := planner(t, args...)
	if err != nil {
		t.Fatalf("planner %v: %v", args, err)
	}
	return out
}

var (
	customerIDPattern = regexp.MustCompile(`created: (\S+)`)
	eventIDPattern    = regexp.MustCompile(`event (\S+), schedule`)
)

func capture(t *testing.T, re *regexp.Regexp, out string) string {
	t.Helper()
	m := re.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no match for %s in %q", re, out)
	}
	return m[1]
}

// TestPlanner_Lifecycle books, edits, confirms, finishes and lists through the API.
func TestPlanner_Lifecycle(t *testing.T) {
	startStore(t)
	day := time.Now().UTC().AddDate(0, 0, 10)
	at := day.Format("2006-01-02") + " 14:00"

	cid := capture(t, customerIDPattern, mustPlanner(t, "customer", "-name", "Maria Silva", "-mobile", "11999990000"))
	eid := capture(t, eventIDPattern, mustPlanner(t, "book", "-customer", cid, "-at", at,
		"-length", "M", "-address", "Rua A, 10", "-theme", "Unicorn", "-person", "Ana", "-value", "1500,50"))

	if _, err := planner(t, "book", "-customer", cid, "-at", day.Format("2006-01-02")+" 19:00",
		"-length", "small", "-address", "Rua B", "-theme", "Space", "-person", "Leo"); err == nil {
		t.Error("second party on the same day was accepted")
	}

	out := mustPlanner(t, "edit", "-event", eid, "-theme", "Pirates", "-value", "1800")
	if !strings.Contains(out, "Pirates") || !strings.Contains(out, "1800.00") {
		t.Errorf("edit output = %q", out)
	}

	mustPlanner(t, "confirm", "-event", eid)
	if _, err := planner(t, "edit", "-event", eid, "-theme", "Space"); err == nil {
		t.Error("edit of a confirmed party was accepted")
	}
	if _, err := planner(t, "delete", "-event", eid); err == nil {
		t.Error("delete of a confirmed party was accepted")
	}
	mustPlanner(t, "finish", "-event", eid)

	out = mustPlanner(t, "list", "-customer", cid)
	if !strings.Contains(out, "finished") || !strings.Contains(out, eid) {
		t.Errorf("list output = %q", out)
	}

	out = mustPlanner(t, "day", "-date", day.Format("2006-01-02"))
	if !strings.Contains(out, "Pirates") {
		t.Errorf("day output = %q", out)
	}

	out = mustPlanner(t, "calendar", "-month", day.Format("2006-01"))
	if !strings.Contains(out, "(1 booked)") || !strings.Contains(out, "Pirates party for Ana") {
		t.Errorf("calendar output = %q", out)
	}

	for _, remote := range []string{"false", "true"} {
		out = mustPlanner(t, "occupied", "-remote="+remote, "-customer", cid)
		if !strings.Contains(out, day.Format("2006-01-02")) {
			t.Errorf("occupied -remote=%s output = %q", remote, out)
		}
	}
}

// TestPlanner_DeleteBudget removes both halves of a budget.
func TestPlanner_DeleteBudget(t *testing.T) {
	startStore(t)
	day := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")

	cid := capture(t, customerIDPattern, mustPlanner(t, "customer", "-name", "Joao", "-mobile", "1188887777"))
	eid := capture(t, eventIDPattern, mustPlanner(t, "book", "-customer", cid, "-at", day+" 10:00",
		"-length", "large", "-address", "Rua C", "-theme", "Dinos", "-person", "Bia"))

	mustPlanner(t, "delete", "-event", eid)
	if out := mustPlanner(t, "day", "-date", day); !strings.Contains(out, "is free") {
		t.Errorf("day after delete = %q", out)
	}
	if out := mustPlanner(t, "list", "-customer", cid); !strings.Contains(out, "No parties") {
		t.Errorf("list after delete = %q", out)
	}
}

// TestPlanner_UsageErrors covers flag and input mistakes that never reach the store.
func TestPlanner_UsageErrors(t *testing.T) {
	tests := map[string][]string{
		"no command":      {},
		"unknown command": {"party"},
		"missing flags":   {"book", "-customer", "c1"},
		"bad time":        {"book", "-customer", "c1", "-at", "tomorrow", "-length", "M", "-address", "a", "-theme", "t", "-person", "p"},
		"bad length":      {"book", "-customer", "c1", "-at", "2030-01-01 10:00", "-length", "XL", "-address", "a", "-theme", "t", "-person", "p"},
		"empty edit":      {"edit", "-event", "e1"},
		"bad date":        {"day", "-date", "01/02/2030"},
		"bad customer":    {"customer", "-name", "x"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := planner(t, args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// TestPlanner_HashPassword prints a bcrypt hash.
func TestPlanner_HashPassword(t *testing.T) {
	out := mustPlanner(t, "hash-password", "-password", "festa")
	if !strings.HasPrefix(out, "PARTY_ADMIN_PASSWORD_HASH=$2a$") {
		t.Errorf("output = %q", out)
	}
}
