package remote

import (
	"context"
	"fmt"
	"net/http"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/customer"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// Login exchanges admin credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (api.LoginResponse, error) {
	var out api.LoginResponse
	if err := c.send(ctx, http.MethodPost, "/login", api.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return api.LoginResponse{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// SaveCustomer creates a customer, or overwrites one when c.ID is set.
func (c *Client) SaveCustomer(ctx context.Context, cust customer.Customer) (customer.Customer, error) {
	var out api.Customer
	if err := c.send(ctx, http.MethodPost, "/customer", api.FromCustomer(cust), &out); err != nil {
		return customer.Customer{}, err
	}
	return out.ToDomain(), nil
}

// GetCustomer fetches one customer.
func (c *Client) GetCustomer(ctx context.Context, id string) (customer.Customer, error) {
	var out api.Customer
	if err := c.get(ctx, pathID("/customer", id), &out); err != nil {
		return customer.Customer{}, err
	}
	return out.ToDomain(), nil
}

// CreateEvent stores a new Budget and returns the stored record.
func (c *Client) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	return c.writeEvent(ctx, http.MethodPost, e)
}

// UpdateEvent saves e over the stored record, lifecycle flags included.
func (c *Client) UpdateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	return c.writeEvent(ctx, http.MethodPut, e)
}

func (c *Client) writeEvent(ctx context.Context, method string, e event.Event) (event.Event, error) {
	var out api.Event
	if err := c.send(ctx, method, "/event", api.FromEvent(e), &out); err != nil {
		return event.Event{}, err
	}
	saved, err := out.ToDomain()
	if err != nil {
		return event.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if saved.ScheduleID == "" {
		saved.ScheduleID = e.ScheduleID
	}
	return saved, nil
}

// DeleteEvent removes an event that has no schedule.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	return c.send(ctx, http.MethodDelete, pathID("/event", eventID), nil, nil)
}

// CreateSchedule places the listed event on the calendar.
func (c *Client) CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	var out api.Schedule
	req := api.NewSchedule{EventDateTime: s.EventDateTime, Events: s.EventIDs}
	if err := c.send(ctx, http.MethodPost, "/schedule", req, &out); err != nil {
		return schedule.Schedule{}, err
	}
	created := schedule.Schedule{ID: out.ScheduleID, EventDateTime: out.EventDateTime}
	for _, e := range out.Event {
		created.EventIDs = append(created.EventIDs, e.EventID)
	}
	if len(created.EventIDs) == 0 {
		created.EventIDs = s.EventIDs
	}
	return created, nil
}

// DeleteBooking removes a schedule and its event in one call.
func (c *Client) DeleteBooking(ctx context.Context, scheduleID, eventID string) (booking.DeleteResult, error) {
	var out api.DeleteResponse
	path := pathID("/admin/schedule", scheduleID) + pathID("/event", eventID)
	if err := c.send(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return booking.DeleteResult{}, err
	}
	return booking.DeleteResult{ScheduleDeleted: out.ScheduleDeleted, EventDeleted: out.EventDeleted}, nil
}

// ListCustomerEvents returns a customer's events; unscheduled ones have no Schedule.
func (c *Client) ListCustomerEvents(ctx context.Context, customerID string) ([]booking.Booking, error) {
	var out []api.Event
	if err := c.get(ctx, pathID("/events", customerID), &out); err != nil {
		return nil, err
	}
	list := make([]booking.Booking, 0, len(out))
	for _, we := range out {
		b, err := we.ToBooking()
		if err != nil {
			return nil, fmt.Errorf("decode event %s: %w", we.EventID, err)
		}
		list = append(list, b)
	}
	return list, nil
}

// ListAllBookings fetches every schedule with its events.
func (c *Client) ListAllBookings(ctx context.Context) ([]booking.Booking, error) {
	var out []api.Schedule
	if err := c.get(ctx, "/admin/schedule", &out); err != nil {
		return nil, err
	}
	var list []booking.Booking
	for _, s := range out {
		bs, err := s.Bookings()
		if err != nil {
			return nil, err
		}
		list = append(list, bs...)
	}
	return list, nil
}

// UpcomingOccupiedDays asks the store which days are taken from today on.
func (c *Client) UpcomingOccupiedDays(ctx context.Context, customerID string, horizonDays int) ([]schedule.Day, error) {
	var out api.OccupiedDays
	if err := c.get(ctx, occupiedQuery(customerID, horizonDays), &out); err != nil {
		return nil, err
	}
	days := make([]schedule.Day, 0, len(out.Dates))
	for _, s := range out.Dates {
		d, err := schedule.ParseDay(s)
		if err != nil {
			return nil, fmt.Errorf("decode date %q: %w", s, err)
		}
		days = append(days, d)
	}
	return days, nil
}
