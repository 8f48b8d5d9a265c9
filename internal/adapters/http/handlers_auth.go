package web

import (
	"errors"
	"net/http"
	"time"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/application/orchestrators"
	"partyplanner/internal/domain/audit"
)

// handleLogin exchanges admin credentials for a bearer token.
// POST /login {email, password}
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{Email: req.Email, Password: req.Password},
		orchestrators.LoginDeps{Admin: opts.Admin, Tokens: opts.Tokens})
	if err != nil {
		if errors.Is(err, orchestrators.ErrInvalidCredentials) {
			recordAudit(r, auditEntry(r, audit.CategorySecurity, audit.ActionLoginFailed).
				WithSeverity(audit.SeverityWarning).WithResource("admin", req.Email))
		}
		writeError(w, err)
		return
	}
	e := auditEntry(r, audit.CategorySecurity, audit.ActionLogin).WithResource("admin", req.Email)
	e.ActorEmail = req.Email
	recordAudit(r, e)
	writeJSON(w, http.StatusOK, api.LoginResponse{Email: req.Email, Token: res.Token, ExpiresAt: res.ExpiresAt, Message: "Login successful"})
}

// handlePerf returns timing aggregates for the last hour.
// GET /admin/perf
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeMessage(w, http.StatusNotFound, "perf collection disabled")
		return
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(timeNow().Add(-time.Hour), 10))
}
