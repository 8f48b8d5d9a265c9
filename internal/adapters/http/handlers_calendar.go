package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// partyDuration is the calendar-feed length of each package size.
var partyDuration = map[event.Length]time.Duration{
	event.LengthSmall:  3 * time.Hour,
	event.LengthMedium: 4 * time.Hour,
	event.LengthLarge:  5 * time.Hour,
}

// handleCalendarMonth returns the 42-cell grid of a month, the current one by default.
// GET /calendar?year=&month=
func handleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	now := timeNow()
	ref := projections.MonthOf(now, opts.Location)
	q := r.URL.Query()
	if q.Has("year") || q.Has("month") {
		year, yerr := strconv.Atoi(q.Get("year"))
		month, merr := strconv.Atoi(q.Get("month"))
		if yerr != nil || merr != nil {
			writeMessage(w, http.StatusBadRequest, "year and month must both be numbers")
			return
		}
		ref = projections.MonthRef{Year: year, Month: time.Month(month)}
	}
	if err := ref.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	idx, err := currentIndex(r)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromCalendarMonth(projections.BuildCalendarMonth(ref, now, idx)))
}

// handleCalendarDay lists every booking on one day.
// GET /calendar/day?date=YYYY-MM-DD
func handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	day, err := schedule.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	idx, err := currentIndex(r)
	if err != nil {
		internalError(w, err)
		return
	}
	bookings := projections.DayDetail(day, idx)
	out := make([]api.Event, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, api.FromBooking(b))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCalendarICS exports every scheduled party as an iCalendar feed.
// Budgets are TENTATIVE, confirmed and finished parties CONFIRMED.
// GET /calendar.ics
func handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	all, err := stores.BookingStore.ListAll(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	cal := buildICS(all, timeNow())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="parties.ics"`)
	w.Write([]byte(cal.Serialize()))
}

func buildICS(bookings []booking.Booking, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//partyplanner//parties//EN")
	cal.SetXWRCalName("Parties")

	for _, b := range bookings {
		ve := cal.AddEvent(b.Event.ID + "@partyplanner")
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(b.At())
		ve.SetEndAt(b.At().Add(partyDuration[b.Event.Length]))
		ve.SetSummary(fmt.Sprintf("%s party for %s", b.Event.Theme, b.Event.BirthdayPerson))
		ve.SetLocation(b.Event.Address)
		ve.SetDescription(fmt.Sprintf("Customer: %s (%s)\nPackage: %s", b.Event.Customer.Name, b.Event.Customer.Mobile, b.Event.Length))
		if b.Event.IsBudget() {
			ve.SetStatus(ical.ObjectStatusTentative)
		} else {
			ve.SetStatus(ical.ObjectStatusConfirmed)
		}
	}
	return cal
}
