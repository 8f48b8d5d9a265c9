package booking

import (
	"errors"
	"time"

	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// Domain errors
var (
	ErrScheduleMissingEvent = errors.New("schedule does not list the event")
	ErrEventMissingSchedule = errors.New("event does not reference the schedule")
	ErrMismatchedIDs        = errors.New("event and schedule IDs are required")
)

// Booking pairs an Event with its Schedule.
// The two records reference each other by ID only.
type Booking struct {
	Event    event.Event
	Schedule schedule.Schedule
}

// Validate checks referential symmetry between the two records.
// PRE: both records are populated
// POST: nil when the schedule lists the event and the event points back at the schedule
func (b *Booking) Validate() error {
	if b.Event.ID == "" || b.Schedule.ID == "" {
		return ErrMismatchedIDs
	}
	if !b.Schedule.HasEvent(b.Event.ID) {
		return ErrScheduleMissingEvent
	}
	if b.Event.ScheduleID != b.Schedule.ID {
		return ErrEventMissingSchedule
	}
	return nil
}

// HasSchedule reports whether the schedule half is present.
func (b *Booking) HasSchedule() bool {
	return b.Schedule.ID != ""
}

// At returns the scheduled instant.
func (b *Booking) At() time.Time {
	return b.Schedule.EventDateTime
}

// Day returns the calendar day the booking occupies in loc.
func (b *Booking) Day(loc *time.Location) schedule.Day {
	return b.Schedule.Day(loc)
}

// Less orders bookings by scheduled instant, then by event ID.
func Less(a, b Booking) bool {
	if !a.At().Equal(b.At()) {
		return a.At().Before(b.At())
	}
	return a.Event.ID < b.Event.ID
}

// Compare is Less in the three-way form used by slices.SortFunc.
func Compare(a, b Booking) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

// DeleteResult reports which records a joint delete removed.
type DeleteResult struct {
	ScheduleDeleted bool
	EventDeleted    bool
}

// Partial reports whether exactly one of the two records was removed.
func (r DeleteResult) Partial() bool {
	return r.ScheduleDeleted != r.EventDeleted
}
