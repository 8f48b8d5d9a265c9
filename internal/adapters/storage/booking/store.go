package booking

import (
	"context"
	"errors"
	"time"

	domain "partyplanner/internal/domain/booking"
)

// ErrNotLinked is returned when the event does not belong to the schedule.
var ErrNotLinked = errors.New("event is not placed on that schedule")

// Store reads joined event/schedule pairs and removes them together.
type Store interface {
	ListAll(ctx context.Context) ([]domain.Booking, error)
	ListByCustomerID(ctx context.Context, customerID string) ([]domain.Booking, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	Delete(ctx context.Context, scheduleID, eventID string) (domain.DeleteResult, error)
}
