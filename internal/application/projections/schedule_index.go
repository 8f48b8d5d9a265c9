package projections

import (
	"iter"
	"slices"
	"time"

	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/schedule"
)

// ScheduleIndex maps calendar days to the bookings placed on them.
// It is built once from a snapshot and never mutated afterwards;
// a catalog refresh replaces it wholesale.
type ScheduleIndex struct {
	loc    *time.Location
	byDay  map[schedule.Day][]booking.Booking
	sorted []booking.Booking
	days   []schedule.Day
}

// NewScheduleIndex builds the index from the current bookings.
// Bookings without a schedule are ignored: they occupy no day.
// PRE: loc may be nil (time.Local)
// POST: every day's list is ordered by instant, then event ID
func NewScheduleIndex(bookings []booking.Booking, loc *time.Location) *ScheduleIndex {
	if loc == nil {
		loc = time.Local
	}
	idx := &ScheduleIndex{
		loc:   loc,
		byDay: make(map[schedule.Day][]booking.Booking),
	}
	for _, b := range bookings {
		if !b.HasSchedule() || b.Schedule.EventDateTime.IsZero() {
			continue
		}
		idx.sorted = append(idx.sorted, b)
	}
	slices.SortFunc(idx.sorted, booking.Compare)

	for _, b := range idx.sorted {
		d := b.Day(loc)
		if _, seen := idx.byDay[d]; !seen {
			idx.days = append(idx.days, d)
		}
		idx.byDay[d] = append(idx.byDay[d], b)
	}
	// days is ascending because sorted is ascending by instant.
	return idx
}

// Location returns the zone used to truncate instants to days.
func (idx *ScheduleIndex) Location() *time.Location {
	return idx.loc
}

// Len returns the number of scheduled bookings.
func (idx *ScheduleIndex) Len() int {
	return len(idx.sorted)
}

// EventsOnDay returns the bookings on day, earliest first.
// The returned slice is a copy.
func (idx *ScheduleIndex) EventsOnDay(day schedule.Day) []booking.Booking {
	return slices.Clone(idx.byDay[day])
}

// IsOccupied reports whether any booking, in any lifecycle state, sits on day.
func (idx *ScheduleIndex) IsOccupied(day schedule.Day) bool {
	return len(idx.byDay[day]) > 0
}

// EventsInRange returns bookings scheduled in [from, to), ascending by instant.
func (idx *ScheduleIndex) EventsInRange(from, to time.Time) []booking.Booking {
	start, _ := slices.BinarySearchFunc(idx.sorted, from, func(b booking.Booking, t time.Time) int {
		return b.At().Compare(t)
	})
	var out []booking.Booking
	for _, b := range idx.sorted[start:] {
		if !b.At().Before(to) {
			break
		}
		out = append(out, b)
	}
	return out
}

// NextOccupiedDays yields occupied days in [from, from+horizon days), ascending.
// An empty customerID yields every occupied day; otherwise only days holding
// one of that customer's bookings. The sequence is finite and stops early
// when the consumer stops.
func (idx *ScheduleIndex) NextOccupiedDays(customerID string, from schedule.Day, horizon int) iter.Seq[schedule.Day] {
	end := from.AddDays(horizon)
	return func(yield func(schedule.Day) bool) {
		if horizon <= 0 {
			return
		}
		start, _ := slices.BinarySearchFunc(idx.days, from, compareDays)
		for _, d := range idx.days[start:] {
			if !d.Before(end) {
				return
			}
			if customerID != "" && !idx.dayHasCustomer(d, customerID) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

func (idx *ScheduleIndex) dayHasCustomer(d schedule.Day, customerID string) bool {
	for _, b := range idx.byDay[d] {
		if b.Event.CustomerID == customerID {
			return true
		}
	}
	return false
}

func compareDays(a, b schedule.Day) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}
