package api

import (
	"time"

	"partyplanner/internal/domain/outbox"
)

// OutboxEntry is the admin view of a queued delivery. The payload stays
// server-side.
type OutboxEntry struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	Attempts        int        `json:"attempts"`
	MaxAttempts     int        `json:"maxAttempts"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastAttemptedAt *time.Time `json:"lastAttemptedAt,omitempty"`
	LastError       string     `json:"lastError,omitempty"`
}

// FromOutboxEntry converts a domain entry.
func FromOutboxEntry(e outbox.Entry) OutboxEntry {
	out := OutboxEntry{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Status:      e.Status,
		Attempts:    e.Attempts,
		MaxAttempts: e.MaxAttempts,
		CreatedAt:   e.CreatedAt,
		LastError:   e.LastError,
	}
	if !e.LastAttemptedAt.IsZero() {
		at := e.LastAttemptedAt
		out.LastAttemptedAt = &at
	}
	return out
}
