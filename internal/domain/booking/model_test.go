package booking

import (
	"errors"
	"slices"
	"testing"
	"time"

	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

func pair(eventID, scheduleID string, at time.Time) Booking {
	return Booking{
		Event:    event.Event{ID: eventID, ScheduleID: scheduleID, State: event.StateBudget},
		Schedule: schedule.Schedule{ID: scheduleID, EventDateTime: at, EventIDs: []string{eventID}},
	}
}

// TestBooking_Validate tests referential symmetry.
func TestBooking_Validate(t *testing.T) {
	at := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		modify  func(b *Booking)
		wantErr error
	}{
		{"symmetric", func(b *Booking) {}, nil},
		{"schedule lists another event", func(b *Booking) { b.Schedule.EventIDs = []string{"other"} }, ErrScheduleMissingEvent},
		{"event points elsewhere", func(b *Booking) { b.Event.ScheduleID = "s9" }, ErrEventMissingSchedule},
		{"missing schedule id", func(b *Booking) { b.Schedule.ID = "" }, ErrMismatchedIDs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pair("e1", "s1", at)
			tt.modify(&b)
			if err := b.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestCompare orders by instant then event ID.
func TestCompare(t *testing.T) {
	ten := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)
	three := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	list := []Booking{pair("b", "s2", three), pair("z", "s3", ten), pair("a", "s1", ten)}
	slices.SortFunc(list, Compare)

	got := []string{list[0].Event.ID, list[1].Event.ID, list[2].Event.ID}
	want := []string{"a", "z", "b"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
