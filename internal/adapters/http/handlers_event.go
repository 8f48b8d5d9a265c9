package web

import (
	"net/http"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/application/orchestrators"
	"partyplanner/internal/domain/audit"
	"partyplanner/internal/domain/event"
)

// decodeEvent reads an api.Event body and converts it, answering 400 on failure.
func decodeEvent(w http.ResponseWriter, r *http.Request) (api.Event, bool) {
	var req api.Event
	if !decodeOrReject(w, r, &req) {
		return api.Event{}, false
	}
	return req, true
}

// handleCreateEvent records a new Budget.
// POST /event
func handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	// A new event is always a Budget; submitted flags are not validated here.
	req.IsBudget, req.Finished = true, false
	e, err := req.ToDomain()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := orchestrators.ExecuteRecordEvent(r.Context(), orchestrators.RecordEventInput{Event: e},
		orchestrators.RecordEventDeps{Events: stores.EventStore, Customers: stores.CustomerStore, GenerateID: generateID})
	if err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, auditEntry(r, audit.CategoryBooking, audit.ActionCreate).
		WithResource("event", saved.ID).WithDescription(saved.Theme+" budget for "+saved.BirthdayPerson))
	writeJSON(w, http.StatusCreated, api.FromEvent(saved))
}

// handleUpdateEvent saves a field edit or a lifecycle change.
// PUT /event
func handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	if req.EventID == "" {
		writeMessage(w, http.StatusBadRequest, "eventId is required")
		return
	}
	e, err := req.ToDomain()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := orchestrators.ExecuteSaveEventUpdate(r.Context(), orchestrators.SaveEventUpdateInput{Event: e},
		orchestrators.SaveEventUpdateDeps{Events: stores.EventStore, Notifier: opts.Notifier, Publisher: opts.Publisher})
	if err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, auditEntry(r, audit.CategoryBooking, updateAction(saved.State)).WithResource("event", saved.ID))
	writeJSON(w, http.StatusOK, api.FromEvent(saved))
}

// handleDeleteOrphanEvent removes an event that never got a schedule.
// DELETE /event/{eventId}
func handleDeleteOrphanEvent(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteRemoveOrphanEvent(r.Context(), r.PathValue("eventId"),
		orchestrators.RemoveOrphanEventDeps{Events: stores.EventStore})
	if err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, auditEntry(r, audit.CategoryBooking, audit.ActionDelete).
		WithResource("event", r.PathValue("eventId")).WithDescription("unscheduled event removed"))
	writeMessage(w, http.StatusOK, "Event deleted")
}

// updateAction names a saved update by the state it left the event in.
// Edits only happen in Budget, so a Confirmed or Finished result is a transition.
func updateAction(s event.State) audit.Action {
	switch s {
	case event.StateConfirmed:
		return audit.ActionConfirm
	case event.StateFinished:
		return audit.ActionFinish
	default:
		return audit.ActionUpdate
	}
}

// handleCustomerEvents lists a customer's events with their schedules.
// GET /events/{customerId}
func handleCustomerEvents(w http.ResponseWriter, r *http.Request) {
	list, err := stores.BookingStore.ListByCustomerID(r.Context(), r.PathValue("customerId"))
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]api.Event, 0, len(list))
	for _, b := range list {
		out = append(out, api.FromBooking(b))
	}
	writeJSON(w, http.StatusOK, out)
}
