package schedule

import (
	"context"
	"errors"

	domain "partyplanner/internal/domain/schedule"
)

// ErrEventUnavailable is returned when the event to place does not exist or
// already has a schedule.
var ErrEventUnavailable = errors.New("event does not exist or is already scheduled")

// Store persists Schedule state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Schedule, error)
	Create(ctx context.Context, value domain.Schedule) error
	List(ctx context.Context) ([]domain.Schedule, error)
}
