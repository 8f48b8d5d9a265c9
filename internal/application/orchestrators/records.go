package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"partyplanner/internal/adapters/storage"
	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/customer"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// Routing keys of booking lifecycle notifications.
const (
	KeyBookingCreated   = "booking.created"
	KeyBookingUpdated   = "booking.updated"
	KeyBookingConfirmed = "booking.confirmed"
	KeyBookingFinished  = "booking.finished"
	KeyBookingDeleted   = "booking.deleted"
)

// BookingPublisher announces lifecycle changes to other systems.
type BookingPublisher interface {
	PublishBooking(ctx context.Context, key string, b booking.Booking) error
}

// ConfirmationNotifier tells the customer a budget became a confirmed party.
type ConfirmationNotifier interface {
	NotifyConfirmed(ctx context.Context, e event.Event) error
}

// publish is fire-and-forget: a failed publish never fails the mutation.
func publish(ctx context.Context, p BookingPublisher, key string, b booking.Booking) {
	if p == nil {
		return
	}
	if err := p.PublishBooking(ctx, key, b); err != nil {
		slog.Warn("record_event", "event", "publish_failed", "key", key, "event_id", b.Event.ID, "error", err)
	}
}

// EventRecordStore is the persisted event table.
type EventRecordStore interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Create(ctx context.Context, e event.Event) error
	Update(ctx context.Context, e event.Event) error
	DeleteUnscheduled(ctx context.Context, id string) error
}

// CustomerLookup resolves the customer an event is booked for.
type CustomerLookup interface {
	GetByID(ctx context.Context, id string) (customer.Customer, error)
}

// ScheduleRecordStore persists a schedule and links its event.
type ScheduleRecordStore interface {
	Create(ctx context.Context, s schedule.Schedule) error
}

// BookingRecordStore reads and removes joined event/schedule pairs.
type BookingRecordStore interface {
	ListAll(ctx context.Context) ([]booking.Booking, error)
	Delete(ctx context.Context, scheduleID, eventID string) (booking.DeleteResult, error)
}

// --- Record Event ---

// RecordEventInput carries the event as submitted by the client.
type RecordEventInput struct {
	Event event.Event
}

// RecordEventDeps holds dependencies for RecordEvent.
type RecordEventDeps struct {
	Events     EventRecordStore
	Customers  CustomerLookup
	GenerateID func() string
}

// ExecuteRecordEvent stores a new event as a Budget with no schedule.
// Submitted lifecycle flags and IDs are ignored.
// PRE: the referenced customer exists
// POST: event persisted in Budget state with a fresh ID and the customer snapshot
func ExecuteRecordEvent(ctx context.Context, input RecordEventInput, deps RecordEventDeps) (event.Event, error) {
	e := input.Event
	if strings.TrimSpace(e.CustomerID) == "" {
		return event.Event{}, &ValidationError{Field: "customer", Message: "customer is required"}
	}
	c, err := deps.Customers.GetByID(ctx, e.CustomerID)
	if err != nil {
		return event.Event{}, err
	}
	e.ID = deps.GenerateID()
	e.Customer = c
	e.State = event.StateBudget
	e.ScheduleID = ""
	if err := e.Validate(); err != nil {
		return event.Event{}, &ValidationError{Field: "event", Message: err.Error()}
	}
	if err := deps.Events.Create(ctx, e); err != nil {
		return event.Event{}, err
	}

	slog.Info("record_event", "event", "event_recorded", "event_id", e.ID, "customer_id", e.CustomerID)
	return e, nil
}

// --- Save Event Update ---

// SaveEventUpdateInput carries the full event record as submitted by the client.
type SaveEventUpdateInput struct {
	Event event.Event
}

// SaveEventUpdateDeps holds dependencies for SaveEventUpdate.
type SaveEventUpdateDeps struct {
	Events    EventRecordStore
	Notifier  ConfirmationNotifier // optional
	Publisher BookingPublisher     // optional
}

// ExecuteSaveEventUpdate re-checks the lifecycle against the stored record.
// A submission in the stored state is a field edit, allowed only on a Budget.
// A submission in another state is a transition, allowed only as Confirm or
// Finish and never combined with field changes.
// PRE: input.Event.ID names a stored event
// POST: stored event updated; customer and schedule links never change
func ExecuteSaveEventUpdate(ctx context.Context, input SaveEventUpdateInput, deps SaveEventUpdateDeps) (event.Event, error) {
	incoming := input.Event
	if !incoming.State.IsValid() {
		return event.Event{}, &ValidationError{Field: "state", Message: event.ErrInvalidState.Error()}
	}
	stored, err := deps.Events.GetByID(ctx, incoming.ID)
	if err != nil {
		return event.Event{}, err
	}

	changes := stored.Diff(incoming)
	var (
		updated event.Event
		key     string
	)
	if incoming.State == stored.State {
		if changes.IsEmpty() {
			return stored, nil
		}
		updated, err = stored.Apply(changes)
		if err != nil {
			if isLifecycleError(err) {
				return event.Event{}, err
			}
			return event.Event{}, &ValidationError{Field: "event", Message: err.Error()}
		}
		key = KeyBookingUpdated
	} else {
		if !changes.IsEmpty() {
			return event.Event{}, &ValidationError{Field: "state", Message: "a state change cannot be combined with field edits"}
		}
		updated = stored
		switch incoming.State {
		case event.StateConfirmed:
			key = KeyBookingConfirmed
			err = updated.Confirm()
		case event.StateFinished:
			key = KeyBookingFinished
			err = updated.Finish()
		default:
			err = fmt.Errorf("%w: cannot return a %s event to %s", event.ErrInvalidTransition, stored.State, incoming.State)
		}
		if err != nil {
			return event.Event{}, err
		}
	}

	if err := deps.Events.Update(ctx, updated); err != nil {
		return event.Event{}, err
	}
	slog.Info("record_event", "event", "event_saved", "event_id", updated.ID, "from", stored.State, "to", updated.State)

	if key == KeyBookingConfirmed && deps.Notifier != nil {
		if err := deps.Notifier.NotifyConfirmed(ctx, updated); err != nil {
			slog.Warn("record_event", "event", "confirmation_notify_failed", "event_id", updated.ID, "error", err)
		}
	}
	publish(ctx, deps.Publisher, key, booking.Booking{Event: updated})
	return updated, nil
}

// --- Record Schedule ---

// RecordScheduleInput carries the schedule as submitted by the client.
type RecordScheduleInput struct {
	EventDateTime time.Time
	EventIDs      []string
}

// RecordScheduleDeps holds dependencies for RecordSchedule.
type RecordScheduleDeps struct {
	Events     EventRecordStore
	Schedules  ScheduleRecordStore
	Bookings   BookingRecordStore
	Location   *time.Location
	GenerateID func() string
	Publisher  BookingPublisher // optional
}

// ExecuteRecordSchedule places an event on the calendar.
// PRE: the event exists and has no schedule
// POST: schedule persisted and linked; ErrDateConflict when the day is taken
// INVARIANT: at most one booking per calendar day, checked against stored state
func ExecuteRecordSchedule(ctx context.Context, input RecordScheduleInput, deps RecordScheduleDeps) (booking.Booking, error) {
	s := schedule.Schedule{ID: deps.GenerateID(), EventDateTime: input.EventDateTime, EventIDs: input.EventIDs}
	if err := s.Validate(); err != nil {
		return booking.Booking{}, &ValidationError{Field: "schedule", Message: err.Error()}
	}
	e, err := deps.Events.GetByID(ctx, s.EventIDs[0])
	if err != nil {
		return booking.Booking{}, err
	}

	existing, err := deps.Bookings.ListAll(ctx)
	if err != nil {
		return booking.Booking{}, err
	}
	day := s.Day(deps.Location)
	if projections.NewScheduleIndex(existing, deps.Location).IsOccupied(day) {
		slog.Info("record_event", "event", "schedule_conflict", "event_id", e.ID, "day", day.String())
		return booking.Booking{}, fmt.Errorf("%w: %s", ErrDateConflict, day)
	}

	if err := deps.Schedules.Create(ctx, s); err != nil {
		return booking.Booking{}, err
	}
	e.ScheduleID = s.ID
	b := booking.Booking{Event: e, Schedule: s}

	slog.Info("record_event", "event", "schedule_recorded", "schedule_id", s.ID, "event_id", e.ID, "day", day.String())
	publish(ctx, deps.Publisher, KeyBookingCreated, b)
	return b, nil
}

// --- Remove Booking ---

// RemoveBookingInput names the pair to remove.
type RemoveBookingInput struct {
	ScheduleID string
	EventID    string
}

// RemoveBookingDeps holds dependencies for RemoveBooking.
type RemoveBookingDeps struct {
	Events    EventRecordStore
	Bookings  BookingRecordStore
	Publisher BookingPublisher // optional
}

// ExecuteRemoveBooking deletes a Budget's event and schedule together.
// A missing event skips the lifecycle check so an orphaned schedule can still be cleared.
// PRE: both IDs are non-empty
// POST: result reports which halves were removed
func ExecuteRemoveBooking(ctx context.Context, input RemoveBookingInput, deps RemoveBookingDeps) (booking.DeleteResult, error) {
	if input.ScheduleID == "" || input.EventID == "" {
		return booking.DeleteResult{}, &ValidationError{Field: "booking", Message: "schedule and event IDs are required"}
	}
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return booking.DeleteResult{}, err
	}
	found := err == nil
	if found {
		if err := e.CheckDeletable(); err != nil {
			return booking.DeleteResult{}, err
		}
	}

	res, err := deps.Bookings.Delete(ctx, input.ScheduleID, input.EventID)
	if err != nil {
		return booking.DeleteResult{}, err
	}
	slog.Info("record_event", "event", "booking_removed", "schedule_id", input.ScheduleID, "event_id", input.EventID,
		"schedule_deleted", res.ScheduleDeleted, "event_deleted", res.EventDeleted)
	if found {
		publish(ctx, deps.Publisher, KeyBookingDeleted, booking.Booking{Event: e, Schedule: schedule.Schedule{ID: input.ScheduleID}})
	}
	return res, nil
}

// --- Remove Orphan Event ---

// RemoveOrphanEventDeps holds dependencies for RemoveOrphanEvent.
type RemoveOrphanEventDeps struct {
	Events EventRecordStore
}

// ErrEventScheduled is returned when compensation targets an event that has a schedule.
var ErrEventScheduled = errors.New("event is placed on the calendar; delete the booking instead")

// ExecuteRemoveOrphanEvent deletes an event that never got a schedule.
// It backs the client's compensating delete after a failed schedule create.
// PRE: eventID is non-empty
// POST: the event is gone
func ExecuteRemoveOrphanEvent(ctx context.Context, eventID string, deps RemoveOrphanEventDeps) error {
	e, err := deps.Events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e.HasSchedule() {
		return ErrEventScheduled
	}
	if err := deps.Events.DeleteUnscheduled(ctx, eventID); err != nil {
		return err
	}
	slog.Info("record_event", "event", "orphan_event_removed", "event_id", eventID)
	return nil
}
