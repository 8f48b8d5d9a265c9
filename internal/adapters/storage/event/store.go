package event

import (
	"context"
	"errors"

	domain "partyplanner/internal/domain/event"
)

// ErrHasSchedule is returned when deleting an event that is still placed on
// the calendar; such events are removed through the joint booking delete.
var ErrHasSchedule = errors.New("event has a schedule")

// Store persists Event state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Create(ctx context.Context, value domain.Event) error
	Update(ctx context.Context, value domain.Event) error
	DeleteUnscheduled(ctx context.Context, id string) error
	ListByCustomerID(ctx context.Context, customerID string) ([]domain.Event, error)
}
