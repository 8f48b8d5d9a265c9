package api

import (
	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/schedule"
)

// CalendarMonth is the wire form of the 42-cell month grid.
type CalendarMonth struct {
	Year     int            `json:"year"`
	Month    int            `json:"month"`
	Leading  int            `json:"leading"`
	Occupied int            `json:"occupied"`
	Cells    []CalendarCell `json:"cells"`
}

// CalendarCell is one day of the grid. Inline lists the events shown in the
// cell; Overflow is the "+N" badge for the rest, empty when none.
type CalendarCell struct {
	Date     string  `json:"date"`
	InMonth  bool    `json:"inMonth"`
	IsPast   bool    `json:"isPast"`
	Inline   []Event `json:"inline"`
	Overflow string  `json:"overflow,omitempty"`
	Total    int     `json:"total"`
}

// FromCalendarMonth converts a computed grid.
func FromCalendarMonth(m projections.CalendarMonth) CalendarMonth {
	out := CalendarMonth{
		Year:     m.Ref.Year,
		Month:    int(m.Ref.Month),
		Leading:  m.Leading,
		Occupied: m.Occupied,
		Cells:    make([]CalendarCell, 0, len(m.Cells)),
	}
	for _, c := range m.Cells {
		cell := CalendarCell{
			Date:     c.Day.String(),
			InMonth:  c.InMonth,
			IsPast:   c.IsPast,
			Inline:   make([]Event, 0, len(c.Inline())),
			Overflow: c.OverflowBadge(),
			Total:    len(c.Events),
		}
		for _, b := range c.Inline() {
			cell.Inline = append(cell.Inline, FromBooking(b))
		}
		out.Cells = append(out.Cells, cell)
	}
	return out
}

// FromDays renders days as YYYY-MM-DD strings.
func FromDays(days []schedule.Day) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.String())
	}
	return out
}
