package orchestrators

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "partyplanner/internal/adapters/email"
	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/outbox"
)

// OutboxStore is the queue of deliveries waiting for a retry.
type OutboxStore interface {
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// publishPayload is the stored form of a failed publish.
type publishPayload struct {
	Key     string          `json:"key"`
	Booking booking.Booking `json:"booking"`
}

// DeliveryQueue parks deliveries whose inline attempt failed.
type DeliveryQueue struct {
	Store      OutboxStore
	Now        func() time.Time
	GenerateID func() string
}

// enqueue stores payload for a later retry. Queue failures are logged only;
// the caller already reports the original delivery error.
func (q *DeliveryQueue) enqueue(ctx context.Context, kind outbox.Kind, payload any, cause error) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("outbox_event", "event", "encode_failed", "kind", kind, "error", err)
		return
	}
	e := outbox.New(q.GenerateID(), kind, string(data), cause, q.Now())
	// The request may be gone by now; the entry must still land.
	if err := q.Store.Save(context.WithoutCancel(ctx), e); err != nil {
		slog.Error("outbox_event", "event", "enqueue_failed", "kind", kind, "error", err)
		return
	}
	slog.Info("outbox_event", "event", "queued", "entry_id", e.ID, "kind", kind, "cause", cause.Error())
}

// QueuedSender delivers through Sender and queues every message that fails.
type QueuedSender struct {
	Sender emailAdapter.Sender
	Queue  *DeliveryQueue
}

// Send implements email.Sender.
func (s QueuedSender) Send(ctx context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	res, err := s.Sender.Send(ctx, req)
	if err != nil {
		s.Queue.enqueue(ctx, outbox.KindEmail, req, err)
		return res, fmt.Errorf("%w (queued for retry)", err)
	}
	return res, nil
}

// SendBatch implements email.Sender. A failed batch is queued message by message.
func (s QueuedSender) SendBatch(ctx context.Context, reqs []emailAdapter.SendRequest) ([]emailAdapter.SendResult, error) {
	res, err := s.Sender.SendBatch(ctx, reqs)
	if err != nil {
		for _, req := range reqs {
			s.Queue.enqueue(ctx, outbox.KindEmail, req, err)
		}
		return res, fmt.Errorf("%w (%d queued for retry)", err, len(reqs))
	}
	return res, nil
}

// QueuedPublisher publishes through Publisher and queues failed messages.
type QueuedPublisher struct {
	Publisher BookingPublisher
	Queue     *DeliveryQueue
}

// PublishBooking implements BookingPublisher.
func (p QueuedPublisher) PublishBooking(ctx context.Context, key string, b booking.Booking) error {
	if err := p.Publisher.PublishBooking(ctx, key, b); err != nil {
		p.Queue.enqueue(ctx, outbox.KindPublish, publishPayload{Key: key, Booking: b}, err)
		return fmt.Errorf("%w (queued for retry)", err)
	}
	return nil
}

// --- Outbox Retry ---

const (
	outboxBatchSize        = 100
	defaultOutboxBaseDelay = time.Minute
	defaultOutboxMaxDelay  = time.Hour
)

// OutboxRetryDeps holds dependencies for OutboxRetry. Sender and Publisher
// must be the direct adapters, not the queued wrappers.
type OutboxRetryDeps struct {
	Store     OutboxStore
	Sender    emailAdapter.Sender
	Publisher BookingPublisher // optional
	Now       func() time.Time
	BaseDelay time.Duration // zero means one minute
	MaxDelay  time.Duration // zero means one hour
}

// OutboxRetryResult counts what one pass did.
type OutboxRetryResult struct {
	Attempted int
	Succeeded int
	Failed    int // attempts that failed, including entries now given up
	Waiting   int // still inside their backoff window
}

// ExecuteOutboxRetry replays pending deliveries whose backoff has elapsed.
// PRE: Deps are valid
// POST: every attempted entry is saved with its new status
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) (OutboxRetryResult, error) {
	var res OutboxRetryResult
	entries, err := deps.Store.ListPending(ctx, outboxBatchSize)
	if err != nil {
		return res, fmt.Errorf("list pending outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return res, nil
	}

	base := cmp.Or(deps.BaseDelay, defaultOutboxBaseDelay)
	maxDelay := cmp.Or(deps.MaxDelay, defaultOutboxMaxDelay)
	now := deps.Now()

	for _, entry := range entries {
		if !entry.CanRetry() {
			// Attempts ran out before the entry was ever marked.
			entry.Status = outbox.StatusFailed
			res.Failed++
			if err := deps.Store.Save(ctx, entry); err != nil {
				slog.Error("outbox_event", "event", "save_failed", "entry_id", entry.ID, "error", err)
			}
			continue
		}
		if !entry.Due(now, base, maxDelay) {
			res.Waiting++
			continue
		}

		entry.MarkAttempt(now)
		res.Attempted++
		if err := deliver(ctx, deps, entry); err != nil {
			entry.MarkFailed(err)
			res.Failed++
			slog.Warn("outbox_event", "event", "retry_failed", "entry_id", entry.ID, "kind", entry.Kind, "attempt", entry.Attempts, "error", err)
		} else {
			entry.MarkSuccess()
			res.Succeeded++
			slog.Info("outbox_event", "event", "retry_succeeded", "entry_id", entry.ID, "kind", entry.Kind, "attempt", entry.Attempts)
		}
		if err := deps.Store.Save(ctx, entry); err != nil {
			slog.Error("outbox_event", "event", "save_failed", "entry_id", entry.ID, "error", err)
		}
	}
	return res, nil
}

// deliver replays one entry through the direct adapters.
func deliver(ctx context.Context, deps OutboxRetryDeps, entry outbox.Entry) error {
	switch entry.Kind {
	case outbox.KindEmail:
		var req emailAdapter.SendRequest
		if err := json.Unmarshal([]byte(entry.Payload), &req); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		_, err := deps.Sender.Send(ctx, req)
		return err
	case outbox.KindPublish:
		if deps.Publisher == nil {
			return errors.New("no publisher configured")
		}
		var p publishPayload
		if err := json.Unmarshal([]byte(entry.Payload), &p); err != nil {
			return fmt.Errorf("decode publish payload: %w", err)
		}
		return deps.Publisher.PublishBooking(ctx, p.Key, p.Booking)
	default:
		return fmt.Errorf("unknown outbox kind %q", entry.Kind)
	}
}

// OutboxRetryJob returns a cron job running one retry pass.
func OutboxRetryJob(deps OutboxRetryDeps, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := ExecuteOutboxRetry(ctx, deps)
		if err != nil {
			slog.Error("outbox_retry_failed", "error", err.Error())
			return
		}
		if res.Attempted > 0 || res.Failed > 0 {
			slog.Info("outbox_event", "event", "retry_pass_done",
				"attempted", res.Attempted, "succeeded", res.Succeeded, "failed", res.Failed, "waiting", res.Waiting)
		}
	}
}
