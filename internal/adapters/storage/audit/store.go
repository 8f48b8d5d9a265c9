package audit

import (
	"context"

	domain "partyplanner/internal/domain/audit"
)

// Store persists the admin audit trail.
type Store interface {
	// Save persists an audit event.
	// PRE: event is valid
	Save(ctx context.Context, event domain.Event) error

	// List returns audit events, newest first.
	// PRE: limit > 0
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Category   domain.Category
	Action     domain.Action
	ResourceID string
	ActorEmail string
}

var _ Store = (*SQLiteStore)(nil)
