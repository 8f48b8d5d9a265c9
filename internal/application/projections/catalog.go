package projections

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// ErrBookingNotFound is returned when the catalog has no booking for an event ID.
var ErrBookingNotFound = errors.New("booking not found")

// CatalogSource fetches every schedule together with its event.
type CatalogSource interface {
	ListAllBookings(ctx context.Context) ([]booking.Booking, error)
}

// Catalog owns the fetched event/schedule collection and its derived index.
// Records are held in id-keyed maps and joined on read.
// INVARIANT: index always reflects the maps of the last successful Refresh
type Catalog struct {
	source CatalogSource
	loc    *time.Location
	now    func() time.Time

	mu          sync.RWMutex
	events      map[string]event.Event
	schedules   map[string]schedule.Schedule
	index       *ScheduleIndex
	refreshedAt time.Time
}

// NewCatalog returns an empty catalog. Call Refresh to load it.
func NewCatalog(source CatalogSource, loc *time.Location) *Catalog {
	if loc == nil {
		loc = time.Local
	}
	return &Catalog{
		source:    source,
		loc:       loc,
		now:       time.Now,
		events:    map[string]event.Event{},
		schedules: map[string]schedule.Schedule{},
		index:     NewScheduleIndex(nil, loc),
	}
}

// Refresh re-fetches the whole collection and rebuilds the index.
// On error the previous snapshot is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	bookings, err := c.source.ListAllBookings(ctx)
	if err != nil {
		return err
	}

	events := make(map[string]event.Event, len(bookings))
	schedules := make(map[string]schedule.Schedule, len(bookings))
	for _, b := range bookings {
		if err := b.Validate(); err != nil {
			slog.Warn("catalog_event", "event", "asymmetric_booking",
				"event_id", b.Event.ID, "schedule_id", b.Schedule.ID, "error", err)
		}
		events[b.Event.ID] = b.Event
		if b.HasSchedule() {
			schedules[b.Schedule.ID] = b.Schedule
		}
	}
	index := NewScheduleIndex(bookings, c.loc)

	c.mu.Lock()
	c.events = events
	c.schedules = schedules
	c.index = index
	c.refreshedAt = c.now()
	c.mu.Unlock()

	slog.Debug("catalog_event", "event", "refreshed", "bookings", len(bookings))
	return nil
}

// Index returns the current conflict index. It is safe to keep; it is never mutated.
func (c *Catalog) Index() *ScheduleIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// Location returns the display zone.
func (c *Catalog) Location() *time.Location {
	return c.loc
}

// RefreshedAt returns when the snapshot was fetched; zero if never.
func (c *Catalog) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// Booking joins the event with its schedule.
func (c *Catalog) Booking(eventID string) (booking.Booking, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ev, ok := c.events[eventID]
	if !ok {
		return booking.Booking{}, ErrBookingNotFound
	}
	return booking.Booking{Event: ev, Schedule: c.schedules[ev.ScheduleID]}, nil
}

// Bookings returns every booking ordered by scheduled instant.
func (c *Catalog) Bookings() []booking.Booking {
	c.mu.RLock()
	out := make([]booking.Booking, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, booking.Booking{Event: ev, Schedule: c.schedules[ev.ScheduleID]})
	}
	c.mu.RUnlock()
	slices.SortFunc(out, booking.Compare)
	return out
}
