// Package reminders emails patients the day before their appointment.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/notify"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// Repository is the slice of bookings storage the job needs.
type Repository interface {
	ListDueForReminder(ctx context.Context, date civil.Date) ([]*bookings.Booking, error)
	Update(ctx context.Context, b *bookings.Booking) error
}

// Sender delivers one reminder.
type Sender interface {
	SendReminder(ctx context.Context, b *bookings.Booking) error
}

// Report summarizes one run.
type Report struct {
	Date    civil.Date
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

// Job finds tomorrow's bookings and reminds each patient once.
type Job struct {
	repo   Repository
	sender Sender
	loc    *time.Location
	now    func() time.Time
	logger *logging.Logger
}

func NewJob(repo Repository, sender Sender, loc *time.Location, logger *logging.Logger) *Job {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Job{repo: repo, sender: sender, loc: loc, now: time.Now, logger: logger}
}

// RunOnce processes every booking dated tomorrow in the clinic's time zone
// that has not been reminded yet. A failed send leaves the booking
// unstamped and the run moves on.
func (j *Job) RunOnce(ctx context.Context) (Report, error) {
	tomorrow := civil.DateOf(j.now().In(j.loc)).AddDays(1)
	report := Report{Date: tomorrow}

	due, err := j.repo.ListDueForReminder(ctx, tomorrow)
	if err != nil {
		return report, fmt.Errorf("reminders: list due: %w", err)
	}
	report.Due = len(due)

	for i, b := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := j.sender.SendReminder(ctx, b); err != nil {
			if errors.Is(err, notify.ErrNoRecipient) {
				report.Skipped++
				continue
			}
			if errors.Is(err, notify.ErrDisabled) {
				report.Skipped += len(due) - i
				j.logger.Info("reminder notifications disabled, stopping run")
				return report, nil
			}
			report.Failed++
			j.logger.Error("reminder send failed", "error", err, "booking_id", b.ID)
			continue
		}

		sentAt := j.now()
		b.ReminderSentAt = &sentAt
		if err := j.repo.Update(ctx, b); err != nil {
			report.Failed++
			j.logger.Error("failed to stamp reminder", "error", err, "booking_id", b.ID)
			continue
		}
		report.Sent++
	}

	j.logger.Info("reminder run complete", "date", tomorrow.String(), "due", report.Due, "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}
