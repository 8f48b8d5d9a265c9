package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	emailAdapter "partyplanner/internal/adapters/email"
	"partyplanner/internal/domain/booking"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// ScheduleLookup resolves the schedule an event sits on.
type ScheduleLookup interface {
	GetByID(ctx context.Context, id string) (schedule.Schedule, error)
}

// BookingRangeLister lists bookings scheduled in [from, to).
type BookingRangeLister interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]booking.Booking, error)
}

// Notifier sends customer emails about their parties.
type Notifier struct {
	Sender    emailAdapter.Sender
	Schedules ScheduleLookup
	Location  *time.Location
}

// NotifyConfirmed emails the confirmation for e. Customers without an email
// address are skipped.
// PRE: e is Confirmed
// POST: one message handed to the sender, or nil when there is no address
func (n *Notifier) NotifyConfirmed(ctx context.Context, e event.Event) error {
	if !e.Customer.HasEmail() {
		slog.Info("notify_event", "event", "confirmation_skipped", "event_id", e.ID, "reason", "no_email")
		return nil
	}
	var at time.Time
	if e.HasSchedule() {
		s, err := n.Schedules.GetByID(ctx, e.ScheduleID)
		if err != nil {
			return fmt.Errorf("confirmation for %s: %w", e.ID, err)
		}
		at = s.EventDateTime
	}
	req, err := emailAdapter.NewMarkdownRequest(e.Customer.Email, "Your party is confirmed", confirmationBody(e, at, n.Location))
	if err != nil {
		return err
	}
	if _, err := n.Sender.Send(ctx, req); err != nil {
		return err
	}
	slog.Info("notify_event", "event", "confirmation_sent", "event_id", e.ID)
	return nil
}

// --- Send Reminders ---

// SendRemindersInput names the day whose parties get a reminder.
type SendRemindersInput struct {
	Day schedule.Day
}

// SendRemindersDeps holds dependencies for SendReminders.
type SendRemindersDeps struct {
	Bookings BookingRangeLister
	Sender   emailAdapter.Sender
	Location *time.Location
}

// ExecuteSendReminders emails every confirmed party on input.Day.
// Individual render failures are logged and skipped.
// PRE: Location is non-nil
// POST: returns the number of reminders accepted by the sender
func ExecuteSendReminders(ctx context.Context, input SendRemindersInput, deps SendRemindersDeps) (int, error) {
	from := input.Day.Start(deps.Location)
	bookings, err := deps.Bookings.ListBetween(ctx, from, input.Day.AddDays(1).Start(deps.Location))
	if err != nil {
		return 0, err
	}

	var reqs []emailAdapter.SendRequest
	for _, b := range bookings {
		if b.Event.State != event.StateConfirmed || !b.Event.Customer.HasEmail() {
			continue
		}
		req, err := emailAdapter.NewMarkdownRequest(b.Event.Customer.Email, "Party reminder", reminderBody(b, deps.Location))
		if err != nil {
			slog.Warn("notify_event", "event", "reminder_render_failed", "event_id", b.Event.ID, "error", err)
			continue
		}
		reqs = append(reqs, req)
	}
	if len(reqs) == 0 {
		return 0, nil
	}

	results, err := deps.Sender.SendBatch(ctx, reqs)
	slog.Info("notify_event", "event", "reminders_sent", "day", input.Day.String(), "count", len(results))
	return len(results), err
}

func confirmationBody(e event.Event, at time.Time, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", e.Customer.Name)
	fmt.Fprintf(&b, "The **%s** party for %s is confirmed.\n\n", e.Theme, e.BirthdayPerson)
	if !at.IsZero() {
		fmt.Fprintf(&b, "- When: %s\n", at.In(loc).Format("Monday, 02 Jan 2006 15:04"))
	}
	fmt.Fprintf(&b, "- Where: %s\n", e.Address)
	fmt.Fprintf(&b, "- Package: %s\n", e.Length)
	fmt.Fprintf(&b, "- Total: %s\n", formatCents(e.ValueCents))
	return b.String()
}

func reminderBody(bk booking.Booking, loc *time.Location) string {
	return fmt.Sprintf("Hi %s,\n\nSee you at **%s** for %s's %s party.\n",
		bk.Event.Customer.Name, bk.At().In(loc).Format("15:04 on Monday, 02 Jan"), bk.Event.BirthdayPerson, bk.Event.Theme)
}

func formatCents(v int64) string {
	return fmt.Sprintf("%d.%02d", v/100, v%100)
}

// ReminderJob returns a job that reminds the parties happening the day after now().
// Failures are logged; the job never panics the scheduler.
func ReminderJob(deps SendRemindersDeps, now func() time.Time, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		day := schedule.DayOf(now(), deps.Location).AddDays(1)
		n, err := ExecuteSendReminders(ctx, SendRemindersInput{Day: day}, deps)
		if err != nil {
			slog.Error("reminder_job_failed", "day", day.String(), "error", err.Error())
			return
		}
		slog.Info("notify_event", "event", "reminder_job_done", "day", day.String(), "sent", n)
	}
}
