// Package notify renders and delivers patient emails.
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/observability/metrics"
	"github.com/wolfman30/healthcare-booking/internal/settings"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	kindConfirmation      = "booking_confirmation"
	kindAdminConfirmation = "booking_confirmation_admin"
	kindReminder          = "appointment_reminder"
)

var (
	// ErrNoRecipient means the booking has no patient email.
	ErrNoRecipient = errors.New("notify: booking has no patient email")
	// ErrDisabled means the relevant notification toggle is off.
	ErrDisabled = errors.New("notify: notifications disabled")
)

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func mustLoad(name string) emailTemplate {
	return emailTemplate{
		html: htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/"+name+".html")),
		text: texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/"+name+".txt")),
	}
}

var (
	confirmationTemplate = mustLoad("booking_confirmation")
	reminderTemplate     = mustLoad("appointment_reminder")
)

// templateData is what the email templates see.
type templateData struct {
	SiteName     string
	ContactEmail string
	ContactPhone string
	Currency     string
	Booking      *bookings.Booking
	Date         string
	Time         string
	PaymentLine  string
}

// Dispatcher sends booking emails through an EmailSender. It satisfies
// bookings.Notifier.
type Dispatcher struct {
	sender   EmailSender
	settings *settings.Settings
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

func NewDispatcher(sender EmailSender, cfg *settings.Settings, m *metrics.BookingMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		cfg = settings.Defaults(nil)
	}
	return &Dispatcher{sender: sender, settings: cfg, metrics: m, logger: logger}
}

// SendBookingConfirmation emails the patient, and the admin when one is
// configured. Failures are logged and never returned.
func (d *Dispatcher) SendBookingConfirmation(ctx context.Context, b *bookings.Booking) {
	if b == nil {
		return
	}
	if !d.settings.Site.SendBookingNotifications {
		d.logger.Debug("booking notifications disabled", "booking_id", b.ID)
		return
	}
	if d.sender == nil {
		d.logger.Warn("no email sender configured, skipping confirmation", "booking_id", b.ID)
		return
	}

	subject := fmt.Sprintf("Booking Confirmation - %s", b.ID)
	msg, err := d.render(confirmationTemplate, b, subject)
	if err != nil {
		d.logger.Error("failed to render confirmation email", "error", err, "booking_id", b.ID)
		return
	}

	if b.Patient.Email == "" {
		d.logger.Info("patient has no email, skipping confirmation", "booking_id", b.ID)
	} else {
		msg.To, msg.ToName = b.Patient.Email, b.Patient.Name
		d.deliver(ctx, kindConfirmation, b, msg)
	}

	if admin := strings.TrimSpace(d.settings.Site.AdminEmail); admin != "" {
		copyMsg := msg
		copyMsg.To, copyMsg.ToName = admin, d.settings.Site.SiteName
		copyMsg.Subject = "[Admin copy] " + subject
		d.deliver(ctx, kindAdminConfirmation, b, copyMsg)
	}
}

// SendReminder emails the patient about an upcoming appointment. Unlike the
// confirmation it reports failure so the caller can leave the booking
// unstamped.
func (d *Dispatcher) SendReminder(ctx context.Context, b *bookings.Booking) error {
	if !d.settings.Site.SendReminderNotifications {
		return ErrDisabled
	}
	if b.Patient.Email == "" {
		return ErrNoRecipient
	}
	if d.sender == nil {
		return fmt.Errorf("notify: reminder: no email sender configured")
	}
	msg, err := d.render(reminderTemplate, b, fmt.Sprintf("Appointment Reminder - %s", d.settings.Site.SiteName))
	if err != nil {
		return fmt.Errorf("notify: reminder: %w", err)
	}
	msg.To, msg.ToName = b.Patient.Email, b.Patient.Name
	return d.deliver(ctx, kindReminder, b, msg)
}

func (d *Dispatcher) deliver(ctx context.Context, kind string, b *bookings.Booking, msg EmailMessage) error {
	err := d.sender.Send(ctx, msg)
	d.metrics.ObserveEmail(kind, err)
	if err != nil {
		d.logger.Error("email delivery failed", "error", err, "kind", kind, "booking_id", b.ID)
		return err
	}
	d.logger.Info("email delivered", "kind", kind, "booking_id", b.ID)
	return nil
}

func (d *Dispatcher) render(tpl emailTemplate, b *bookings.Booking, subject string) (EmailMessage, error) {
	data := templateData{
		SiteName:     d.settings.Site.SiteName,
		ContactEmail: d.settings.Site.ContactEmail,
		ContactPhone: d.settings.Site.ContactPhone,
		Currency:     d.settings.Payment.Currency,
		Booking:      b,
		PaymentLine:  paymentLine(b),
	}
	if b.AppointmentDate != nil {
		data.Date = b.AppointmentDate.In(time.UTC).Format("Monday, 2 January 2006")
	}
	if b.AppointmentTime != nil {
		data.Time = b.AppointmentTime.Label()
	}

	var html, text bytes.Buffer
	if err := tpl.html.Execute(&html, data); err != nil {
		return EmailMessage{}, err
	}
	if err := tpl.text.Execute(&text, data); err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		Subject: subject,
		Body:    text.String(),
		HTML:    html.String(),
		ReplyTo: d.settings.Site.ContactEmail,
	}, nil
}

func paymentLine(b *bookings.Booking) string {
	switch {
	case b.PaymentStatus == bookings.PaymentPaid:
		return "Paid online"
	case b.PaymentMethod == bookings.PaymentCash:
		return "Pay at clinic"
	default:
		return "Awaiting online payment"
	}
}

var _ bookings.Notifier = (*Dispatcher)(nil)
