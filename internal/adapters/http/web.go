package web

import (
	"net/http"
	"time"

	"partyplanner/internal/adapters/http/middleware"
	"partyplanner/internal/adapters/http/perf"
	auditStore "partyplanner/internal/adapters/storage/audit"
	bookingStore "partyplanner/internal/adapters/storage/booking"
	customerStore "partyplanner/internal/adapters/storage/customer"
	eventStore "partyplanner/internal/adapters/storage/event"
	outboxStore "partyplanner/internal/adapters/storage/outbox"
	scheduleStore "partyplanner/internal/adapters/storage/schedule"
	"partyplanner/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	CustomerStore customerStore.Store
	EventStore    eventStore.Store
	ScheduleStore scheduleStore.Store
	BookingStore  bookingStore.Store
	AuditStore    auditStore.Store  // optional
	OutboxStore   outboxStore.Store // optional
}

// Options carries the non-storage dependencies of the API.
type Options struct {
	Admin         orchestrators.AdminCredentials
	Tokens        *middleware.TokenService
	Location      *time.Location
	Notifier      orchestrators.ConfirmationNotifier // optional
	Publisher     orchestrators.BookingPublisher     // optional
	RateLimit     int                                // requests per second per client; 0 disables
	SlowRequestMs int
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global options (set by NewMux)
var opts Options

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires the store API.
func NewMux(s *Stores, o Options, collector *perf.Collector) http.Handler {
	stores = s
	opts = o
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	perfCollector = collector

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(opts.RateLimit, time.Second)

	// Request order: Timing -> RateLimit -> Auth -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.Auth(opts.Tokens),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequestMs),
	)
}

func registerRoutes(mux *http.ServeMux) {
	auth := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("GET /schedule/events/next", handleNextOccupiedDays)

	mux.Handle("POST /customer", auth(handleSaveCustomer))
	mux.Handle("GET /customer", auth(handleListCustomers))
	mux.Handle("GET /customer/{customerId}", auth(handleGetCustomer))

	mux.Handle("POST /event", auth(handleCreateEvent))
	mux.Handle("PUT /event", auth(handleUpdateEvent))
	mux.Handle("DELETE /event/{eventId}", auth(handleDeleteOrphanEvent))
	mux.Handle("GET /events/{customerId}", auth(handleCustomerEvents))

	mux.Handle("POST /schedule", auth(handleCreateSchedule))
	mux.Handle("GET /admin/schedule", auth(handleListSchedules))
	mux.Handle("DELETE /admin/schedule/{scheduleId}/event/{eventId}", auth(handleDeleteBooking))

	mux.Handle("GET /calendar", auth(handleCalendarMonth))
	mux.Handle("GET /calendar/day", auth(handleCalendarDay))
	mux.Handle("GET /calendar.ics", auth(handleCalendarICS))

	mux.Handle("GET /admin/perf", auth(handlePerf))
	mux.Handle("GET /admin/audit", auth(handleAuditTrail))
	mux.Handle("GET /admin/outbox", auth(handleOutbox))
}
