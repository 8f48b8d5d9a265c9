package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/adapters/storage"
	bookingStore "partyplanner/internal/adapters/storage/booking"
	eventStore "partyplanner/internal/adapters/storage/event"
	scheduleStore "partyplanner/internal/adapters/storage/schedule"
	"partyplanner/internal/application/orchestrators"
	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/event"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// writeMessage sends the {"message"} envelope.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.Message{Message: msg})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}

// conflictErrors are refusals caused by the current state of stored records.
var conflictErrors = []error{
	orchestrators.ErrDateConflict,
	orchestrators.ErrEventScheduled,
	event.ErrInvalidTransition,
	event.ErrNotEditable,
	eventStore.ErrHasSchedule,
	scheduleStore.ErrEventUnavailable,
	bookingStore.ErrNotLinked,
}

// writeError maps domain and store errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *orchestrators.ValidationError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case isConflict(err):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		internalError(w, err)
	}
}

func isConflict(err error) bool {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeOrReject decodes the body and answers 400 on failure.
func decodeOrReject(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := strictDecode(r, v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// currentIndex builds the conflict index over every stored booking.
func currentIndex(r *http.Request) (*projections.ScheduleIndex, error) {
	all, err := stores.BookingStore.ListAll(r.Context())
	if err != nil {
		return nil, err
	}
	return projections.NewScheduleIndex(all, opts.Location), nil
}
