package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/booking"
)

func formatCents(v int64) string {
	return fmt.Sprintf("%d.%02d", v/100, v%100)
}

// writeBookings prints one row per booking. Unscheduled events show "-".
func writeBookings(w io.Writer, list []booking.Booking, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSTATE\tTHEME\tPERSON\tSIZE\tVALUE\tEVENT")
	for _, b := range list {
		when := "-"
		if b.HasSchedule() {
			when = b.At().In(loc).Format(dateTimeLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			when, b.Event.State, b.Event.Theme, b.Event.BirthdayPerson, b.Event.Length, formatCents(b.Event.ValueCents), b.Event.ID)
	}
	tw.Flush()
}

// writeMonth prints the grid, one row per week. Occupied days are marked
// with "*", and with the overflow badge when more than one party is booked.
func writeMonth(w io.Writer, m projections.CalendarMonth, loc *time.Location) {
	first := m.Ref.FirstDay()
	fmt.Fprintf(w, "%s %d (%d booked)\n", first.Month, first.Year, m.Occupied)
	fmt.Fprintln(w, " Sun  Mon  Tue  Wed  Thu  Fri  Sat")
	for _, week := range m.Weeks() {
		var row strings.Builder
		for _, c := range week {
			if !c.InMonth {
				row.WriteString("     ")
				continue
			}
			mark := " "
			if len(c.Events) > 0 {
				mark = "*"
			}
			fmt.Fprintf(&row, " %2d%s ", c.Day.Day, mark)
		}
		fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
	}
	for _, week := range m.Weeks() {
		for _, c := range week {
			if !c.InMonth || len(c.Events) == 0 {
				continue
			}
			b := c.Inline()[0]
			line := fmt.Sprintf("%s  %s  %s party for %s", c.Day, b.At().In(loc).Format("15:04"), b.Event.Theme, b.Event.BirthdayPerson)
			if badge := c.OverflowBadge(); badge != "" {
				line += " " + badge
			}
			fmt.Fprintln(w, line)
		}
	}
}
