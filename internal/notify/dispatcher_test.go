package notify

import (
	"context"
	"errors"
	"html"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/money"
	"github.com/wolfman30/healthcare-booking/internal/observability/metrics"
	"github.com/wolfman30/healthcare-booking/internal/settings"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func sampleBooking() *bookings.Booking {
	date := civil.Date{Year: 2025, Month: 3, Day: 11}
	slot := availability.Clock(14, 30)
	return &bookings.Booking{
		ID:              uuid.MustParse("5b1c1c3e-0f55-4a53-9b7a-1d6f1a0a2c11"),
		ServiceName:     "Acupressure Therapy",
		AppointmentDate: &date,
		AppointmentTime: &slot,
		Patient:         bookings.Patient{Name: "Asha <Rani>", Email: "asha@example.com", Phone: "9876543210", Age: 34},
		Status:          bookings.StatusPending,
		PaymentStatus:   bookings.PaymentPending,
		PaymentMethod:   bookings.PaymentCash,
		PaymentAmount:   money.MustParse("200"),
	}
}

func testSettings() *settings.Settings {
	cfg := settings.Defaults(nil)
	cfg.Site.SiteName = "Pratap Bag Healthcare"
	cfg.Site.ContactPhone = "+91 98000 00000"
	return cfg
}

func TestSendBookingConfirmation(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, testSettings(), nil, logging.Discard())
	b := sampleBooking()

	d.SendBookingConfirmation(context.Background(), b)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "asha@example.com", msg.To)
	assert.Equal(t, "Booking Confirmation - "+b.ID.String(), msg.Subject)
	assert.Contains(t, msg.Body, "Service: Acupressure Therapy")
	assert.Contains(t, msg.Body, "Date: Tuesday, 11 March 2025")
	assert.Contains(t, msg.Body, "Time: 02:30 PM")
	assert.Contains(t, msg.Body, "Amount: INR 200.00")
	assert.Contains(t, msg.Body, "Payment: Pay at clinic")
	assert.Contains(t, msg.Body, "Asha <Rani>", "plain text is not escaped")
	assert.Contains(t, msg.HTML, "Asha &lt;Rani&gt;", "html escapes patient input")
	assert.Contains(t, html.UnescapeString(msg.HTML), "+91 98000 00000")
}

func TestSendBookingConfirmation_AdminCopy(t *testing.T) {
	sender := &recordingSender{}
	cfg := testSettings()
	cfg.Site.AdminEmail = "admin@example.com"
	reg := prometheus.NewRegistry()
	d := NewDispatcher(sender, cfg, metrics.NewBookingMetrics(reg), logging.Discard())

	d.SendBookingConfirmation(context.Background(), sampleBooking())

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "admin@example.com", sender.sent[1].To)
	assert.True(t, strings.HasPrefix(sender.sent[1].Subject, "[Admin copy] Booking Confirmation - "))
	n, err := testutil.GatherAndCount(reg, "clinic_notify_emails_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSendBookingConfirmation_Skips(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		sender := &recordingSender{}
		cfg := testSettings()
		cfg.Site.SendBookingNotifications = false
		NewDispatcher(sender, cfg, nil, logging.Discard()).SendBookingConfirmation(context.Background(), sampleBooking())
		assert.Empty(t, sender.sent)
	})
	t.Run("no patient email", func(t *testing.T) {
		sender := &recordingSender{}
		b := sampleBooking()
		b.Patient.Email = ""
		NewDispatcher(sender, testSettings(), nil, logging.Discard()).SendBookingConfirmation(context.Background(), b)
		assert.Empty(t, sender.sent)
	})
	t.Run("no sender", func(t *testing.T) {
		NewDispatcher(nil, testSettings(), nil, logging.Discard()).SendBookingConfirmation(context.Background(), sampleBooking())
	})
}

func TestSendBookingConfirmation_SwallowsFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, testSettings(), nil, logging.Discard())
	assert.NotPanics(t, func() { d.SendBookingConfirmation(context.Background(), sampleBooking()) })
	assert.Len(t, sender.sent, 1)
}

func TestSendBookingConfirmation_PaidOnline(t *testing.T) {
	sender := &recordingSender{}
	b := sampleBooking()
	b.PaymentMethod = bookings.PaymentOnline
	b.PaymentStatus = bookings.PaymentPaid
	b.AppointmentTime = nil
	NewDispatcher(sender, testSettings(), nil, logging.Discard()).SendBookingConfirmation(context.Background(), b)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, "Payment: Paid online")
	assert.NotContains(t, sender.sent[0].Body, "Time:")
}

func TestSendReminder(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, testSettings(), nil, logging.Discard())
	require.NoError(t, d.SendReminder(context.Background(), sampleBooking()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Appointment Reminder - Pratap Bag Healthcare", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "on Tuesday, 11 March 2025 at 02:30 PM")

	b := sampleBooking()
	b.Patient.Email = ""
	assert.ErrorIs(t, d.SendReminder(context.Background(), b), ErrNoRecipient)

	cfg := testSettings()
	cfg.Site.SendReminderNotifications = false
	assert.ErrorIs(t, NewDispatcher(sender, cfg, nil, logging.Discard()).SendReminder(context.Background(), sampleBooking()), ErrDisabled)

	failing := NewDispatcher(&recordingSender{err: errors.New("down")}, testSettings(), nil, logging.Discard())
	assert.Error(t, failing.SendReminder(context.Background(), sampleBooking()))
}
