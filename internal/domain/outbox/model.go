package outbox

import (
	"errors"
	"time"
)

// Status constants for the entry lifecycle.
const (
	StatusPending  = "pending"
	StatusRetrying = "retrying"
	StatusDone     = "done"
	StatusFailed   = "failed"
)

// Kind names the delivery an entry replays.
type Kind string

const (
	KindEmail   Kind = "email"   // payload: email.SendRequest
	KindPublish Kind = "publish" // payload: routing key + booking
)

// DefaultMaxAttempts bounds retries when an entry does not set its own.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrInvalidKind  = errors.New("outbox kind must be email or publish")
	ErrEmptyPayload = errors.New("payload is required")
)

// Entry is one delivery that failed inline and waits for a retry.
type Entry struct {
	ID              string
	Kind            Kind
	Payload         string // JSON, replayed verbatim
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	LastError       string
}

// New builds a pending entry for a delivery whose first attempt failed
// with cause. The inline attempt counts as the first.
func New(id string, kind Kind, payload string, cause error, now time.Time) Entry {
	e := Entry{
		ID:              id,
		Kind:            kind,
		Payload:         payload,
		Status:          StatusPending,
		Attempts:        1,
		MaxAttempts:     DefaultMaxAttempts,
		LastAttemptedAt: now,
		CreatedAt:       now,
	}
	if cause != nil {
		e.LastError = cause.Error()
	}
	return e
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if e.Kind != KindEmail && e.Kind != KindPublish {
		return ErrInvalidKind
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether another attempt is allowed.
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying) && e.Attempts < e.MaxAttempts
}

// IsTerminal reports whether the entry will never be attempted again.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusDone || e.Status == StatusFailed
}

// MarkAttempt records a retry attempt.
// PRE: CanRetry()
// POST: Attempts incremented, LastAttemptedAt = now, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the delivery as done.
func (e *Entry) MarkSuccess() {
	e.Status = StatusDone
	e.LastError = ""
}

// MarkFailed records err. The entry fails for good once attempts run out.
// POST: Status is failed when Attempts >= MaxAttempts, otherwise unchanged
func (e *Entry) MarkFailed(err error) {
	e.LastError = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// NextRetryDelay is the exponential backoff after the last attempt:
// base * 2^(attempts-1), capped at maxDelay.
func (e *Entry) NextRetryDelay(base, maxDelay time.Duration) time.Duration {
	shift := max(e.Attempts-1, 0)
	if shift > 30 {
		return maxDelay
	}
	return min(base*time.Duration(1<<shift), maxDelay)
}

// Due reports whether the backoff since the last attempt has elapsed.
func (e *Entry) Due(now time.Time, base, maxDelay time.Duration) bool {
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(base, maxDelay)))
}
