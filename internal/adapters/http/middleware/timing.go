package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"partyplanner/internal/adapters/http/perf"
)

// DefaultSlowRequestMs is the slow-request threshold used when none is configured.
const DefaultSlowRequestMs = 200

// requestIDCounter numbers requests for log correlation.
var requestIDCounter uint64

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader records code before delegating.
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// routeOf collapses ID segments so the collector groups requests per route:
// /admin/schedule/<uuid>/event/<uuid> becomes /admin/schedule/{id}/event/{id}.
func routeOf(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if _, err := uuid.Parse(s); err == nil {
			segs[i] = "{id}"
		}
	}
	return strings.Join(segs, "/")
}

// Timing returns middleware that logs request duration and records it in collector.
// Requests at or above slowMs log at WARN, the rest at DEBUG. A non-positive
// slowMs uses DefaultSlowRequestMs; a nil collector only logs.
func Timing(collector *perf.Collector, slowMs int) func(http.Handler) http.Handler {
	if slowMs <= 0 {
		slowMs = DefaultSlowRequestMs
	}
	threshold := float64(slowMs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := atomic.AddUint64(&requestIDCounter, 1)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			durationMs := float64(time.Since(start).Microseconds()) / 1000.0
			route := routeOf(r.URL.Path)
			level := slog.LevelDebug
			msg := "request"
			if durationMs >= threshold {
				level, msg = slog.LevelWarn, "slow_request"
			}
			slog.Log(r.Context(), level, msg,
				"request_id", reqID,
				"method", r.Method,
				"route", route,
				"status", sw.status,
				"duration_ms", durationMs,
			)

			if collector != nil {
				collector.Record(perf.Entry{
					Kind:       perf.KindRequest,
					Path:       r.Method + " " + route,
					StatusCode: sw.status,
					DurationMs: durationMs,
					Timestamp:  start,
				})
			}
		})
	}
}
