// Package api holds the JSON shapes of the store API. The server handlers
// and the remote client both encode and decode through these types.
package api

import (
	"fmt"
	"math"
	"time"

	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/customer"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// Customer is the wire form of customer.Customer.
type Customer struct {
	CustomerID string `json:"customerId,omitempty"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email"`
}

// Event is the wire form of an event, with its schedule when it has one.
// Length travels as its single-letter code and Value as a decimal amount.
type Event struct {
	EventID        string    `json:"eventId,omitempty"`
	Length         string    `json:"length"`
	Address        string    `json:"address"`
	Theme          string    `json:"theme"`
	BirthdayPerson string    `json:"birthdayPerson"`
	Description    string    `json:"description,omitempty"`
	Value          float64   `json:"value"`
	IsBudget       bool      `json:"isBudget"`
	Finished       bool      `json:"finished"`
	Customer       Customer  `json:"customer"`
	Schedule       *Schedule `json:"schedule,omitempty"`
}

// Schedule is the wire form of a schedule. Events nested here carry no
// schedule of their own.
type Schedule struct {
	ScheduleID    string    `json:"scheduleId,omitempty"`
	EventDateTime time.Time `json:"eventDateTime"`
	Event         []Event   `json:"event"`
}

// NewSchedule is the body of POST /schedule.
type NewSchedule struct {
	EventDateTime time.Time `json:"eventDateTime"`
	Events        []string  `json:"events"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Message   string    `json:"message"`
}

// Message is the error envelope and the body of simple acknowledgements.
type Message struct {
	Message string `json:"message"`
}

// DeleteResponse reports the outcome of a joint delete.
type DeleteResponse struct {
	Message         string `json:"message"`
	ScheduleDeleted bool   `json:"scheduleDeleted"`
	EventDeleted    bool   `json:"eventDeleted"`
}

// OccupiedDays is the body of GET /schedule/events/next.
type OccupiedDays struct {
	CustomerID string   `json:"customerId,omitempty"`
	Dates      []string `json:"dates"`
}

// FromCustomer converts a domain customer.
func FromCustomer(c customer.Customer) Customer {
	return Customer{CustomerID: c.ID, Name: c.Name, Phone: c.Phone, Mobile: c.Mobile, Email: c.Email}
}

// ToDomain converts back to a domain customer.
func (c Customer) ToDomain() customer.Customer {
	return customer.Customer{ID: c.CustomerID, Name: c.Name, Phone: c.Phone, Mobile: c.Mobile, Email: c.Email}
}

// FromEvent converts a domain event without its schedule.
func FromEvent(e event.Event) Event {
	isBudget, finished := e.State.Flags()
	return Event{
		EventID:        e.ID,
		Length:         e.Length.Code(),
		Address:        e.Address,
		Theme:          e.Theme,
		BirthdayPerson: e.BirthdayPerson,
		Description:    e.Description,
		Value:          CentsToValue(e.ValueCents),
		IsBudget:       isBudget,
		Finished:       finished,
		Customer:       FromCustomer(e.Customer),
	}
}

// FromBooking converts a booking into an event with its schedule nested.
func FromBooking(b booking.Booking) Event {
	out := FromEvent(b.Event)
	if b.HasSchedule() {
		out.Schedule = &Schedule{ScheduleID: b.Schedule.ID, EventDateTime: b.Schedule.EventDateTime, Event: []Event{}}
	}
	return out
}

// ToDomain converts the wire event. The schedule link is taken from the
// nested schedule, if any.
// POST: returns event.ErrInvalidLength or event.ErrInvalidState for bad codes
func (e Event) ToDomain() (event.Event, error) {
	length, err := event.LengthFromCode(e.Length)
	if err != nil {
		return event.Event{}, fmt.Errorf("length %q: %w", e.Length, err)
	}
	state, err := event.StateFromFlags(e.IsBudget, e.Finished)
	if err != nil {
		return event.Event{}, err
	}
	out := event.Event{
		ID:             e.EventID,
		Length:         length,
		Address:        e.Address,
		Theme:          e.Theme,
		BirthdayPerson: e.BirthdayPerson,
		Description:    e.Description,
		ValueCents:     ValueToCents(e.Value),
		State:          state,
		CustomerID:     e.Customer.CustomerID,
		Customer:       e.Customer.ToDomain(),
	}
	if e.Schedule != nil {
		out.ScheduleID = e.Schedule.ScheduleID
	}
	return out, nil
}

// ToBooking converts the wire event and its nested schedule into a booking.
func (e Event) ToBooking() (booking.Booking, error) {
	ev, err := e.ToDomain()
	if err != nil {
		return booking.Booking{}, err
	}
	b := booking.Booking{Event: ev}
	if e.Schedule != nil && e.Schedule.ScheduleID != "" {
		b.Schedule = schedule.Schedule{ID: e.Schedule.ScheduleID, EventDateTime: e.Schedule.EventDateTime, EventIDs: []string{ev.ID}}
	}
	return b, nil
}

// FromSchedule converts a schedule and the events placed on it.
func FromSchedule(s schedule.Schedule, events []event.Event) Schedule {
	out := Schedule{ScheduleID: s.ID, EventDateTime: s.EventDateTime, Event: make([]Event, 0, len(events))}
	for _, e := range events {
		out.Event = append(out.Event, FromEvent(e))
	}
	return out
}

// Bookings flattens a schedule into one booking per nested event.
func (s Schedule) Bookings() ([]booking.Booking, error) {
	ids := make([]string, 0, len(s.Event))
	for _, e := range s.Event {
		ids = append(ids, e.EventID)
	}
	sched := schedule.Schedule{ID: s.ScheduleID, EventDateTime: s.EventDateTime, EventIDs: ids}

	out := make([]booking.Booking, 0, len(s.Event))
	for _, we := range s.Event {
		ev, err := we.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", s.ScheduleID, err)
		}
		ev.ScheduleID = s.ScheduleID
		out = append(out, booking.Booking{Event: ev, Schedule: sched})
	}
	return out, nil
}

// CentsToValue renders minor units as a decimal amount.
func CentsToValue(cents int64) float64 {
	return float64(cents) / 100
}

// ValueToCents rounds a decimal amount to minor units.
func ValueToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}
