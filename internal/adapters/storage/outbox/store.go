package outbox

import (
	"context"

	domain "partyplanner/internal/domain/outbox"
)

// Store persists deliveries waiting for a retry.
type Store interface {
	// Save inserts or updates an entry.
	// PRE: entry has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still eligible for a retry, oldest first.
	// PRE: limit > 0
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListFailed returns entries that ran out of attempts, most recent first.
	// PRE: limit > 0
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)
}

var _ Store = (*SQLiteStore)(nil)
