package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/application/orchestrators"
	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/customer"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

var (
	_ orchestrators.PlannerStore = (*Client)(nil)
	_ projections.CatalogSource  = (*Client)(nil)
)

var partyTime = time.Date(2024, 7, 4, 14, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, mux *http.ServeMux, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, ReadRetries: retries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func wireEvent(id string) api.Event {
	return api.Event{
		EventID: id, Length: "M", Address: "Rua A, 10", Theme: "Unicorn", BirthdayPerson: "Ana",
		Value: 1500.5, IsBudget: true,
		Customer: api.Customer{CustomerID: "c1", Name: "Maria Silva", Mobile: "11999990000"},
	}
}

func TestLogin_KeepsToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "admin@festas.com", req.Email)
		writeJSON(w, http.StatusOK, api.LoginResponse{Token: "tok-1", ExpiresAt: partyTime})
	})
	mux.HandleFunc("GET /customer/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, api.Customer{CustomerID: r.PathValue("id"), Name: "Maria Silva", Mobile: "1"})
	})
	c := newTestClient(t, mux, 0)

	res, err := c.Login(context.Background(), "admin@festas.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "tok-1", c.Token())

	got, err := c.GetCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, customer.Customer{ID: "c1", Name: "Maria Silva", Mobile: "1"}, got)
}

func TestCreateEvent_SendsWireForm(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /event", func(w http.ResponseWriter, r *http.Request) {
		var in api.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "G", in.Length)
		assert.Equal(t, 2000.0, in.Value)
		assert.True(t, in.IsBudget)
		out := in
		out.EventID = "e1"
		writeJSON(w, http.StatusCreated, out)
	})
	c := newTestClient(t, mux, 0)

	saved, err := c.CreateEvent(context.Background(), event.Event{
		Length: event.LengthLarge, Address: "Rua B", Theme: "Space", BirthdayPerson: "Leo",
		ValueCents: 200000, State: event.StateBudget, CustomerID: "c1",
		Customer: customer.Customer{ID: "c1", Name: "Maria Silva", Mobile: "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", saved.ID)
	assert.Equal(t, event.LengthLarge, saved.Length)
	assert.Equal(t, int64(200000), saved.ValueCents)
}

func TestCreateSchedule(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /schedule", func(w http.ResponseWriter, r *http.Request) {
		var in api.NewSchedule
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, []string{"e1"}, in.Events)
		assert.True(t, in.EventDateTime.Equal(partyTime))
		writeJSON(w, http.StatusCreated, api.Schedule{ScheduleID: "s1", EventDateTime: in.EventDateTime, Event: []api.Event{wireEvent("e1")}})
	})
	c := newTestClient(t, mux, 0)

	s, err := c.CreateSchedule(context.Background(), schedule.Schedule{EventDateTime: partyTime, EventIDs: []string{"e1"}})
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, []string{"e1"}, s.EventIDs)
}

func TestStatusError_CarriesStoreMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /schedule", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, api.Message{Message: "date already booked: 2024-07-04"})
	})
	mux.HandleFunc("DELETE /event/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux, 0)

	_, err := c.CreateSchedule(context.Background(), schedule.Schedule{EventDateTime: partyTime, EventIDs: []string{"e1"}})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.Equal(t, "date already booked: 2024-07-04", orchestrators.MessageOf(err))

	err = c.DeleteEvent(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, orchestrators.FallbackMessage, orchestrators.MessageOf(err))
}

func TestWrites_AreNotRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /event", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, mux, 3)

	_, err := c.UpdateEvent(context.Background(), event.Event{ID: "e1", Length: event.LengthSmall, State: event.StateConfirmed})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReads_RetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/schedule", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, []api.Schedule{
			{ScheduleID: "s1", EventDateTime: partyTime, Event: []api.Event{wireEvent("e1")}},
			{ScheduleID: "s2", EventDateTime: partyTime.AddDate(0, 0, 1), Event: []api.Event{}},
		})
	})
	c := newTestClient(t, mux, 1)

	list, err := c.ListAllBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].Event.ScheduleID)
	assert.NoError(t, list[0].Validate())
}

func TestDeleteBooking_ReportsBothHalves(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /admin/schedule/{sid}/event/{eid}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "s 1", r.PathValue("sid"))
		writeJSON(w, http.StatusOK, api.DeleteResponse{Message: "Booking partially deleted", ScheduleDeleted: true})
	})
	c := newTestClient(t, mux, 0)

	res, err := c.DeleteBooking(context.Background(), "s 1", "e1")
	require.NoError(t, err)
	assert.True(t, res.Partial())
	assert.True(t, res.ScheduleDeleted)
}

func TestListCustomerEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events/{cid}", func(w http.ResponseWriter, r *http.Request) {
		scheduled := wireEvent("e1")
		scheduled.Schedule = &api.Schedule{ScheduleID: "s1", EventDateTime: partyTime}
		writeJSON(w, http.StatusOK, []api.Event{scheduled, wireEvent("e2")})
	})
	c := newTestClient(t, mux, 0)

	list, err := c.ListCustomerEvents(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].HasSchedule())
	assert.False(t, list[1].HasSchedule())
}

func TestUpcomingOccupiedDays(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /schedule/events/next", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c1", r.URL.Query().Get("customer"))
		assert.Equal(t, "45", r.URL.Query().Get("days"))
		writeJSON(w, http.StatusOK, api.OccupiedDays{CustomerID: "c1", Dates: []string{"2024-07-04", "2024-07-20"}})
	})
	c := newTestClient(t, mux, 0)

	days, err := c.UpcomingOccupiedDays(context.Background(), "c1", 45)
	require.NoError(t, err)
	assert.Equal(t, []schedule.Day{schedule.NewDay(2024, time.July, 4), schedule.NewDay(2024, time.July, 20)}, days)
}

func TestRequestTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /customer/{id}", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := c.GetCustomer(context.Background(), "c1")
	require.Error(t, err)
	assert.False(t, IsStatus(err, http.StatusOK))
}
