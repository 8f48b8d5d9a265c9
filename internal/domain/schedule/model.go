package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar day.
const DateLayout = "2006-01-02"

// Domain errors
var (
	ErrEmptyDateTime  = errors.New("schedule date/time is required")
	ErrNoEvents       = errors.New("schedule must reference an event")
	ErrTooManyEvents  = errors.New("schedule can only hold one event")
	ErrEmptyEventID   = errors.New("schedule event ID cannot be empty")
	ErrInvalidDayText = errors.New("day must be formatted as YYYY-MM-DD")
)

// Schedule is the calendar placement of a booked party.
// EventIDs keeps the list shape of the remote API, but every booking
// flow populates exactly one event: one slot, one event.
type Schedule struct {
	ID            string
	EventDateTime time.Time
	EventIDs      []string
}

// Validate checks if the Schedule has valid data.
// PRE: Schedule struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Schedule) Validate() error {
	if s.EventDateTime.IsZero() {
		return ErrEmptyDateTime
	}
	if len(s.EventIDs) == 0 {
		return ErrNoEvents
	}
	if len(s.EventIDs) > 1 {
		return ErrTooManyEvents
	}
	if strings.TrimSpace(s.EventIDs[0]) == "" {
		return ErrEmptyEventID
	}
	return nil
}

// HasEvent reports whether the schedule lists the given event ID.
func (s *Schedule) HasEvent(eventID string) bool {
	for _, id := range s.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// Day returns the calendar day the schedule occupies in loc.
// PRE: EventDateTime is set
// POST: returns the local date of EventDateTime
func (s *Schedule) Day(loc *time.Location) Day {
	return DayOf(s.EventDateTime, loc)
}

// Day is a civil calendar date without time-of-day or zone.
// It is comparable and usable as a map key.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf truncates an instant to its calendar day in loc.
// A nil loc means time.Local.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// NewDay builds a normalized Day; out-of-range values roll over like time.Date.
func NewDay(year int, month time.Month, day int) Day {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDayText, s)
	}
	return DayOf(t, time.UTC), nil
}

// Start returns midnight of the day in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the day n days later (earlier for negative n).
func (d Day) AddDays(n int) Day {
	return NewDay(d.Year, d.Month, d.Day+n)
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Weekday returns the day of the week.
func (d Day) Weekday() time.Weekday {
	return d.Start(time.UTC).Weekday()
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d == Day{}
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return d.Start(time.UTC).Format(DateLayout)
}
