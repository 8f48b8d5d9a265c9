package web

import (
	"net/http"
	"slices"
	"time"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/application/listutil"
	"partyplanner/internal/application/orchestrators"
	"partyplanner/internal/domain/audit"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// Bounds of the days parameter of /schedule/events/next.
const (
	defaultHorizonDays = 30
	maxHorizonDays     = 366
)

// handleCreateSchedule places an event on the calendar.
// POST /schedule {eventDateTime, events:[id]}
func handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req api.NewSchedule
	if !decodeOrReject(w, r, &req) {
		return
	}
	b, err := orchestrators.ExecuteRecordSchedule(r.Context(),
		orchestrators.RecordScheduleInput{EventDateTime: req.EventDateTime, EventIDs: req.Events},
		orchestrators.RecordScheduleDeps{
			Events:     stores.EventStore,
			Schedules:  stores.ScheduleStore,
			Bookings:   stores.BookingStore,
			Location:   opts.Location,
			GenerateID: generateID,
			Publisher:  opts.Publisher,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, auditEntry(r, audit.CategoryBooking, audit.ActionCreate).
		WithResource("schedule", b.Schedule.ID).WithDescription("event "+b.Event.ID+" at "+b.At().In(opts.Location).Format(time.DateTime)))
	writeJSON(w, http.StatusCreated, api.FromSchedule(b.Schedule, []event.Event{b.Event}))
}

// handleListSchedules returns every schedule with its events embedded.
// Schedules whose event is gone are listed with an empty event list.
// GET /admin/schedule
func handleListSchedules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schedules, err := stores.ScheduleStore.List(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	bookings, err := stores.BookingStore.ListAll(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	byID := make(map[string]event.Event, len(bookings))
	for _, b := range bookings {
		byID[b.Event.ID] = b.Event
	}

	out := make([]api.Schedule, 0, len(schedules))
	for _, s := range schedules {
		var events []event.Event
		for _, id := range s.EventIDs {
			if e, ok := byID[id]; ok {
				events = append(events, e)
			}
		}
		out = append(out, api.FromSchedule(s, events))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeleteBooking removes a Budget's schedule and event together.
// DELETE /admin/schedule/{scheduleId}/event/{eventId}
func handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteRemoveBooking(r.Context(),
		orchestrators.RemoveBookingInput{ScheduleID: r.PathValue("scheduleId"), EventID: r.PathValue("eventId")},
		orchestrators.RemoveBookingDeps{Events: stores.EventStore, Bookings: stores.BookingStore, Publisher: opts.Publisher})
	if err != nil {
		writeError(w, err)
		return
	}
	msg := "Booking deleted"
	if res.Partial() {
		msg = "Booking partially deleted"
	}
	recordAudit(r, auditEntry(r, audit.CategoryBooking, audit.ActionDelete).
		WithResource("event", r.PathValue("eventId")).WithDescription(msg))
	writeJSON(w, http.StatusOK, api.DeleteResponse{Message: msg, ScheduleDeleted: res.ScheduleDeleted, EventDeleted: res.EventDeleted})
}

// handleNextOccupiedDays lists upcoming occupied days, optionally for one customer.
// Only dates are returned, so the route is public.
// GET /schedule/events/next?customer=&days=
func handleNextOccupiedDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	horizon, err := listutil.ParseBoundedInt(q, "days", defaultHorizonDays, 1, maxHorizonDays)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	idx, err := currentIndex(r)
	if err != nil {
		internalError(w, err)
		return
	}
	customerID := q.Get("customer")
	today := schedule.DayOf(timeNow(), opts.Location)
	days := slices.Collect(idx.NextOccupiedDays(customerID, today, horizon))
	writeJSON(w, http.StatusOK, api.OccupiedDays{CustomerID: customerID, Dates: api.FromDays(days)})
}
