package projections

import (
	"fmt"
	"time"

	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/schedule"
)

// Grid dimensions of a month view.
const (
	GridWeeks       = 6
	GridCells       = GridWeeks * 7
	MaxInlineEvents = 1
)

// MonthRef identifies a displayed month. It carries no other state.
type MonthRef struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t in loc.
func MonthOf(t time.Time, loc *time.Location) MonthRef {
	if loc == nil {
		loc = time.Local
	}
	y, m, _ := t.In(loc).Date()
	return MonthRef{Year: y, Month: m}
}

// Next returns the following month.
func (r MonthRef) Next() MonthRef {
	return r.add(1)
}

// Previous returns the preceding month.
func (r MonthRef) Previous() MonthRef {
	return r.add(-1)
}

func (r MonthRef) add(n int) MonthRef {
	t := time.Date(r.Year, r.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return MonthRef{Year: t.Year(), Month: t.Month()}
}

// FirstDay returns day 1 of the month.
func (r MonthRef) FirstDay() schedule.Day {
	return schedule.NewDay(r.Year, r.Month, 1)
}

// DaysIn returns the number of days in the month, leap years included.
func (r MonthRef) DaysIn() int {
	return time.Date(r.Year, r.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Validate rejects months outside 1..12.
func (r MonthRef) Validate() error {
	if r.Month < time.January || r.Month > time.December {
		return fmt.Errorf("month must be between 1 and 12, got %d", r.Month)
	}
	return nil
}

// String formats the ref as YYYY-MM.
func (r MonthRef) String() string {
	return fmt.Sprintf("%04d-%02d", r.Year, int(r.Month))
}

// CalendarCell is one square of the month grid.
type CalendarCell struct {
	Day     schedule.Day
	InMonth bool
	IsPast  bool
	Events  []booking.Booking
}

// Inline returns the events shown directly in the cell.
func (c CalendarCell) Inline() []booking.Booking {
	if len(c.Events) <= MaxInlineEvents {
		return c.Events
	}
	return c.Events[:MaxInlineEvents]
}

// Overflow returns how many events are hidden behind the "+N" badge.
func (c CalendarCell) Overflow() int {
	if n := len(c.Events) - MaxInlineEvents; n > 0 {
		return n
	}
	return 0
}

// OverflowBadge renders the count badge, or "" when nothing is hidden.
func (c CalendarCell) OverflowBadge() string {
	if n := c.Overflow(); n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return ""
}

// CalendarMonth is the 6x7 grid for one month, Sunday first.
type CalendarMonth struct {
	Ref      MonthRef
	Leading  int // cells before day 1, equal to day 1's weekday index
	Cells    [GridCells]CalendarCell
	Occupied int
}

// Weeks returns the grid as rows of seven cells.
func (m *CalendarMonth) Weeks() [][]CalendarCell {
	weeks := make([][]CalendarCell, 0, GridWeeks)
	for i := 0; i < GridCells; i += 7 {
		weeks = append(weeks, m.Cells[i:i+7])
	}
	return weeks
}

// BuildCalendarMonth lays out the month grid around ref.
// PRE: ref.Validate() == nil; index is non-nil
// POST: exactly GridCells cells; Leading == weekday of day 1;
// in-month cell count == ref.DaysIn()
func BuildCalendarMonth(ref MonthRef, now time.Time, index *ScheduleIndex) CalendarMonth {
	first := ref.FirstDay()
	leading := int(first.Weekday())
	today := schedule.DayOf(now, index.Location())

	month := CalendarMonth{Ref: ref, Leading: leading}
	start := first.AddDays(-leading)
	for i := range GridCells {
		d := start.AddDays(i)
		cell := CalendarCell{
			Day:     d,
			InMonth: d.Year == ref.Year && d.Month == ref.Month,
			IsPast:  d.Before(today),
			Events:  index.EventsOnDay(d),
		}
		if cell.InMonth && len(cell.Events) > 0 {
			month.Occupied++
		}
		month.Cells[i] = cell
	}
	return month
}

// DayDetail returns every event on one day, earliest first.
func DayDetail(day schedule.Day, index *ScheduleIndex) []booking.Booking {
	return index.EventsOnDay(day)
}
