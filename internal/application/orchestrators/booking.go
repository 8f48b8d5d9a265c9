package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/customer"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// EventRemote is the event half of the remote store.
type EventRemote interface {
	CreateEvent(ctx context.Context, e event.Event) (event.Event, error)
	UpdateEvent(ctx context.Context, e event.Event) (event.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// ScheduleRemote is the schedule half of the remote store.
type ScheduleRemote interface {
	CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error)
}

// BookingDeleter removes a schedule and its event in one call.
type BookingDeleter interface {
	DeleteBooking(ctx context.Context, scheduleID, eventID string) (booking.DeleteResult, error)
}

// CustomerEventLister lists a customer's bookings.
type CustomerEventLister interface {
	ListCustomerEvents(ctx context.Context, customerID string) ([]booking.Booking, error)
}

// BookingCatalog is the owned collection consulted for occupancy and
// re-fetched after every successful mutation.
type BookingCatalog interface {
	Index() *projections.ScheduleIndex
	Refresh(ctx context.Context) error
}

// refreshCatalog re-fetches after a mutation. A failed refresh leaves the
// previous snapshot in place and does not undo the mutation.
func refreshCatalog(ctx context.Context, c BookingCatalog, after string) {
	if c == nil {
		return
	}
	if err := c.Refresh(ctx); err != nil {
		slog.Warn("booking_event", "event", "catalog_refresh_failed", "after", after, "error", err)
	}
}

// --- Create Budget ---

// CreateBudgetInput carries input for the create budget orchestrator.
type CreateBudgetInput struct {
	Length         event.Length `validate:"required,oneof=small medium large"`
	Address        string       `validate:"required,max=300"`
	Theme          string       `validate:"required,max=120"`
	BirthdayPerson string       `validate:"required,max=200"`
	Description    string       `validate:"max=2000"`
	ValueCents     int64        `validate:"gte=0"`
	Customer       customer.Customer
	ProposedAt     time.Time `validate:"required"`
}

// CreateBudgetDeps holds dependencies for CreateBudget.
type CreateBudgetDeps struct {
	Events    EventRemote
	Schedules ScheduleRemote
	Catalog   BookingCatalog
}

// ExecuteCreateBudget books a new party: an Event in Budget state, then its Schedule.
// PRE: required fields present; the proposed day is free in the catalog's index
// POST: both records exist and reference each other, or an error is returned.
// If the schedule half fails the new event is deleted again and the outcome of
// that cleanup is reported on the RemoteError.
func ExecuteCreateBudget(ctx context.Context, input CreateBudgetInput, deps CreateBudgetDeps) (booking.Booking, error) {
	if err := validateInput(input); err != nil {
		return booking.Booking{}, err
	}
	if strings.TrimSpace(input.Customer.ID) == "" {
		return booking.Booking{}, &ValidationError{Field: "customer", Message: "is required"}
	}

	index := deps.Catalog.Index()
	day := schedule.DayOf(input.ProposedAt, index.Location())
	if index.IsOccupied(day) {
		return booking.Booking{}, fmt.Errorf("%w: %s", ErrDateConflict, day)
	}

	ev := event.Event{
		Length:         input.Length,
		Address:        strings.TrimSpace(input.Address),
		Theme:          strings.TrimSpace(input.Theme),
		BirthdayPerson: strings.TrimSpace(input.BirthdayPerson),
		Description:    strings.TrimSpace(input.Description),
		ValueCents:     input.ValueCents,
		State:          event.StateBudget,
		CustomerID:     input.Customer.ID,
		Customer:       input.Customer,
	}
	if err := ev.Validate(); err != nil {
		return booking.Booking{}, &ValidationError{Field: "event", Message: err.Error()}
	}

	created, err := deps.Events.CreateEvent(ctx, ev)
	if err != nil {
		return booking.Booking{}, newRemoteError(ErrCreateFailed, RecordEvent, err)
	}

	// The schedule payload needs the new event ID, so this call is strictly sequential.
	sched, err := deps.Schedules.CreateSchedule(ctx, schedule.Schedule{
		EventDateTime: input.ProposedAt,
		EventIDs:      []string{created.ID},
	})
	if err != nil {
		rerr := newRemoteError(ErrScheduleCreateFailed, RecordSchedule, err)
		rerr.CompensationAttempted = true
		rerr.CompensationErr = deps.Events.DeleteEvent(context.WithoutCancel(ctx), created.ID)
		slog.Error("booking_event", "event", "schedule_create_failed",
			"event_id", created.ID, "orphan_removed", rerr.CompensationErr == nil, "error", err)
		return booking.Booking{}, rerr
	}

	created.ScheduleID = sched.ID
	b := booking.Booking{Event: created, Schedule: sched}

	slog.Info("booking_event", "event", "budget_created", "event_id", created.ID,
		"schedule_id", sched.ID, "customer_id", created.CustomerID, "day", day.String())
	refreshCatalog(ctx, deps.Catalog, "budget_created")
	return b, nil
}

// --- Update Event ---

// UpdateEventInput carries input for the update event orchestrator.
type UpdateEventInput struct {
	Event   event.Event
	Changes event.Changes
}

// UpdateEventDeps holds dependencies for UpdateEvent.
type UpdateEventDeps struct {
	Events  EventRemote
	Catalog BookingCatalog
}

// ExecuteUpdateEvent edits a Budget's fields. The Schedule is not touched.
// PRE: Event is in Budget state
// POST: Returns the store's echo of the updated event; the input is not modified
func ExecuteUpdateEvent(ctx context.Context, input UpdateEventInput, deps UpdateEventDeps) (event.Event, error) {
	updated, err := input.Event.Apply(input.Changes)
	if err != nil {
		if isLifecycleError(err) {
			return event.Event{}, err
		}
		return event.Event{}, &ValidationError{Field: "event", Message: err.Error()}
	}
	if input.Changes.IsEmpty() {
		return input.Event, nil
	}

	saved, err := deps.Events.UpdateEvent(ctx, updated)
	if err != nil {
		return event.Event{}, newRemoteError(ErrUpdateFailed, RecordEvent, err)
	}

	slog.Info("booking_event", "event", "budget_updated", "event_id", saved.ID)
	refreshCatalog(ctx, deps.Catalog, "budget_updated")
	return saved, nil
}

// --- Confirm / Finish ---

// TransitionEventInput carries the event to move along its lifecycle.
type TransitionEventInput struct {
	Event event.Event
}

// TransitionEventDeps holds dependencies for ConfirmEvent and FinishEvent.
type TransitionEventDeps struct {
	Events  EventRemote
	Catalog BookingCatalog
}

// ExecuteConfirmEvent accepts a budget and persists the new state.
// PRE: Event is in Budget state
// POST: Returns the Confirmed event; ErrInvalidTransition with no remote call otherwise
func ExecuteConfirmEvent(ctx context.Context, input TransitionEventInput, deps TransitionEventDeps) (event.Event, error) {
	return transitionEvent(ctx, input.Event, (*event.Event).Confirm, "event_confirmed", deps)
}

// ExecuteFinishEvent marks a confirmed party as delivered.
// PRE: Event is in Confirmed state
// POST: Returns the Finished event; ErrInvalidTransition with no remote call otherwise
func ExecuteFinishEvent(ctx context.Context, input TransitionEventInput, deps TransitionEventDeps) (event.Event, error) {
	return transitionEvent(ctx, input.Event, (*event.Event).Finish, "event_finished", deps)
}

func transitionEvent(ctx context.Context, ev event.Event, step func(*event.Event) error, logEvent string, deps TransitionEventDeps) (event.Event, error) {
	from := ev.State
	if err := step(&ev); err != nil {
		return event.Event{}, err
	}

	saved, err := deps.Events.UpdateEvent(ctx, ev)
	if err != nil {
		return event.Event{}, newRemoteError(ErrUpdateFailed, RecordEvent, err)
	}

	slog.Info("booking_event", "event", logEvent, "event_id", ev.ID, "from", string(from), "to", string(ev.State))
	refreshCatalog(ctx, deps.Catalog, logEvent)
	return saved, nil
}

// --- Delete Booking ---

// DeleteBookingInput carries the pair to remove.
type DeleteBookingInput struct {
	Booking booking.Booking
}

// DeleteBookingDeps holds dependencies for DeleteBooking.
type DeleteBookingDeps struct {
	Bookings BookingDeleter
	Catalog  BookingCatalog
}

// ExecuteDeleteBooking removes a Budget together with its Schedule in one joint call.
// PRE: Event is in Budget state and has a Schedule
// POST: both records are gone, or ErrDeleteFailed (nothing removed) or
// ErrPartialDeleteFailure naming the surviving record
func ExecuteDeleteBooking(ctx context.Context, input DeleteBookingInput, deps DeleteBookingDeps) (booking.DeleteResult, error) {
	b := input.Booking
	if err := b.Event.CheckDeletable(); err != nil {
		return booking.DeleteResult{}, err
	}
	if !b.HasSchedule() {
		return booking.DeleteResult{}, &ValidationError{Field: "schedule", Message: "is required"}
	}

	res, err := deps.Bookings.DeleteBooking(ctx, b.Schedule.ID, b.Event.ID)
	switch {
	case res.Partial():
		rerr := newRemoteError(ErrPartialDeleteFailure, RecordEvent, err)
		rerr.Survivor = RecordEvent
		if res.EventDeleted {
			rerr.Record = RecordSchedule
			rerr.Survivor = RecordSchedule
		}
		slog.Error("booking_event", "event", "partial_delete", "event_id", b.Event.ID,
			"schedule_id", b.Schedule.ID, "survivor", rerr.Survivor)
		refreshCatalog(ctx, deps.Catalog, "partial_delete")
		return res, rerr
	case err != nil:
		return booking.DeleteResult{}, newRemoteError(ErrDeleteFailed, RecordSchedule, err)
	case !res.EventDeleted:
		return booking.DeleteResult{}, newRemoteError(ErrDeleteFailed, RecordSchedule, nil)
	}

	slog.Info("booking_event", "event", "booking_deleted", "event_id", b.Event.ID, "schedule_id", b.Schedule.ID)
	refreshCatalog(ctx, deps.Catalog, "booking_deleted")
	return res, nil
}

// --- List Customer Events ---

// ListCustomerEventsInput carries the customer to list.
type ListCustomerEventsInput struct {
	CustomerID string
}

// ListCustomerEventsDeps holds dependencies for ListCustomerEvents.
type ListCustomerEventsDeps struct {
	Store CustomerEventLister
}

// ExecuteListCustomerEvents returns the customer's bookings ordered by scheduled instant.
// PRE: CustomerID is non-empty
// POST: read-only; no lifecycle checks
func ExecuteListCustomerEvents(ctx context.Context, input ListCustomerEventsInput, deps ListCustomerEventsDeps) ([]booking.Booking, error) {
	if strings.TrimSpace(input.CustomerID) == "" {
		return nil, &ValidationError{Field: "customer", Message: "is required"}
	}
	list, err := deps.Store.ListCustomerEvents(ctx, input.CustomerID)
	if err != nil {
		return nil, newRemoteError(ErrFetchFailed, RecordEvent, err)
	}
	list = slices.Clone(list)
	slices.SortFunc(list, booking.Compare)
	return list, nil
}

func isLifecycleError(err error) bool {
	return errors.Is(err, event.ErrNotEditable) || errors.Is(err, event.ErrInvalidTransition)
}
