package web

import (
	"log/slog"
	"net"
	"net/http"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/adapters/http/middleware"
	auditStore "partyplanner/internal/adapters/storage/audit"
	"partyplanner/internal/application/listutil"
	"partyplanner/internal/domain/audit"
	"partyplanner/internal/domain/outbox"
)

// auditEntry starts an audit event for the caller of r.
func auditEntry(r *http.Request, category audit.Category, action audit.Action) audit.Event {
	actor := ""
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		actor = p.Subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return audit.NewEvent(generateID(), timeNow(), actor, category, action).WithRequest(host, r.UserAgent())
}

// recordAudit appends e to the admin trail. A failed write is logged and
// never fails the request that caused it.
func recordAudit(r *http.Request, e audit.Event) {
	if stores.AuditStore == nil {
		return
	}
	if err := stores.AuditStore.Save(r.Context(), e); err != nil {
		slog.Error("audit_event", "event", "save_failed", "action", e.Action, "resource_id", e.ResourceID, "error", err)
	}
}

// handleAuditTrail lists the admin trail, newest first.
// GET /admin/audit?category=&action=&resource=&actor=&limit=
func handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	if stores.AuditStore == nil {
		writeMessage(w, http.StatusNotFound, "audit trail disabled")
		return
	}
	q := r.URL.Query()
	limit, err := listutil.ParseBoundedInt(q, "limit", 100, 1, 1000)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := auditStore.Filter{
		Category:   audit.Category(q.Get("category")),
		Action:     audit.Action(q.Get("action")),
		ResourceID: q.Get("resource"),
		ActorEmail: q.Get("actor"),
	}
	events, err := stores.AuditStore.List(r.Context(), filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleOutbox lists deliveries waiting for a retry, or those that gave up.
// GET /admin/outbox?status=pending|failed&limit=
func handleOutbox(w http.ResponseWriter, r *http.Request) {
	if stores.OutboxStore == nil {
		writeMessage(w, http.StatusNotFound, "outbox disabled")
		return
	}
	q := r.URL.Query()
	limit, err := listutil.ParseBoundedInt(q, "limit", 50, 1, 100)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	var entries []outbox.Entry
	switch status := q.Get("status"); status {
	case "", outbox.StatusFailed:
		entries, err = stores.OutboxStore.ListFailed(r.Context(), limit)
	case outbox.StatusPending:
		entries, err = stores.OutboxStore.ListPending(r.Context(), limit)
	default:
		writeMessage(w, http.StatusBadRequest, "status must be pending or failed")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]api.OutboxEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, api.FromOutboxEntry(e))
	}
	writeJSON(w, http.StatusOK, out)
}
