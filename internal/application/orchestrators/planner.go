package orchestrators

import (
	"context"
	"fmt"
	"iter"
	"time"

	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// PlannerStore is everything the Planner needs from the remote store.
type PlannerStore interface {
	EventRemote
	ScheduleRemote
	BookingDeleter
	CustomerEventLister
	UpcomingOccupiedDays(ctx context.Context, customerID string, horizonDays int) ([]schedule.Day, error)
}

// Planner binds the booking orchestrators to one store and one catalog.
// Operations that take an event ID resolve it against the catalog snapshot.
type Planner struct {
	store   PlannerStore
	catalog *projections.Catalog
	now     func() time.Time
}

// NewPlanner returns a Planner over store. The catalog is not loaded; call Refresh.
func NewPlanner(store PlannerStore, catalog *projections.Catalog) *Planner {
	return &Planner{store: store, catalog: catalog, now: time.Now}
}

// Refresh re-fetches the catalog.
func (p *Planner) Refresh(ctx context.Context) error {
	return p.catalog.Refresh(ctx)
}

// Catalog returns the owned catalog.
func (p *Planner) Catalog() *projections.Catalog {
	return p.catalog
}

// CreateBudget books a new party.
func (p *Planner) CreateBudget(ctx context.Context, input CreateBudgetInput) (booking.Booking, error) {
	return ExecuteCreateBudget(ctx, input, CreateBudgetDeps{
		Events:    p.store,
		Schedules: p.store,
		Catalog:   p.catalog,
	})
}

// UpdateEvent edits a budget's fields.
func (p *Planner) UpdateEvent(ctx context.Context, eventID string, changes event.Changes) (event.Event, error) {
	b, err := p.lookup(eventID)
	if err != nil {
		return event.Event{}, err
	}
	return ExecuteUpdateEvent(ctx, UpdateEventInput{Event: b.Event, Changes: changes}, UpdateEventDeps{
		Events:  p.store,
		Catalog: p.catalog,
	})
}

// ConfirmEvent accepts a budget.
func (p *Planner) ConfirmEvent(ctx context.Context, eventID string) (event.Event, error) {
	b, err := p.lookup(eventID)
	if err != nil {
		return event.Event{}, err
	}
	return ExecuteConfirmEvent(ctx, TransitionEventInput{Event: b.Event}, p.transitionDeps())
}

// FinishEvent marks a confirmed party as delivered.
func (p *Planner) FinishEvent(ctx context.Context, eventID string) (event.Event, error) {
	b, err := p.lookup(eventID)
	if err != nil {
		return event.Event{}, err
	}
	return ExecuteFinishEvent(ctx, TransitionEventInput{Event: b.Event}, p.transitionDeps())
}

// DeleteEvent removes a budget and its schedule.
func (p *Planner) DeleteEvent(ctx context.Context, eventID string) (booking.DeleteResult, error) {
	b, err := p.lookup(eventID)
	if err != nil {
		return booking.DeleteResult{}, err
	}
	return ExecuteDeleteBooking(ctx, DeleteBookingInput{Booking: b}, DeleteBookingDeps{
		Bookings: p.store,
		Catalog:  p.catalog,
	})
}

// ListEventsForCustomer returns a customer's bookings, earliest first.
func (p *Planner) ListEventsForCustomer(ctx context.Context, customerID string) ([]booking.Booking, error) {
	return ExecuteListCustomerEvents(ctx, ListCustomerEventsInput{CustomerID: customerID}, ListCustomerEventsDeps{
		Store: p.store,
	})
}

// Today returns the month containing now.
func (p *Planner) Today() projections.MonthRef {
	return projections.MonthOf(p.now(), p.catalog.Location())
}

// Calendar builds the month grid from the current snapshot.
func (p *Planner) Calendar(ref projections.MonthRef) (projections.CalendarMonth, error) {
	if err := ref.Validate(); err != nil {
		return projections.CalendarMonth{}, &ValidationError{Field: "month", Message: err.Error()}
	}
	return projections.BuildCalendarMonth(ref, p.now(), p.catalog.Index()), nil
}

// Day returns every booking on day, earliest first.
func (p *Planner) Day(day schedule.Day) []booking.Booking {
	return projections.DayDetail(day, p.catalog.Index())
}

// OccupiedDays yields occupied days from today over horizon days using the snapshot.
func (p *Planner) OccupiedDays(customerID string, horizon int) iter.Seq[schedule.Day] {
	index := p.catalog.Index()
	from := schedule.DayOf(p.now(), index.Location())
	return index.NextOccupiedDays(customerID, from, horizon)
}

// UpcomingOccupiedDays asks the store directly, bypassing the snapshot.
func (p *Planner) UpcomingOccupiedDays(ctx context.Context, customerID string, horizon int) ([]schedule.Day, error) {
	days, err := p.store.UpcomingOccupiedDays(ctx, customerID, horizon)
	if err != nil {
		return nil, newRemoteError(ErrFetchFailed, RecordSchedule, err)
	}
	return days, nil
}

func (p *Planner) lookup(eventID string) (booking.Booking, error) {
	b, err := p.catalog.Booking(eventID)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("event %s: %w", eventID, err)
	}
	return b, nil
}

func (p *Planner) transitionDeps() TransitionEventDeps {
	return TransitionEventDeps{Events: p.store, Catalog: p.catalog}
}
