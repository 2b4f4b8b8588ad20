package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

const defaultFromName = "Pratap Bag Healthcare"

// EmailSender delivers one rendered email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a rendered booking email. Body is plain text, HTML optional.
type EmailMessage struct {
	To      string
	ToName  string
	ReplyTo string
	Subject string
	Body    string
	HTML    string
}

// sender is the From identity shared by every provider.
type sender struct {
	email string
	name  string
}

func newSender(email, name string) sender {
	if name == "" {
		name = defaultFromName
	}
	return sender{email: email, name: name}
}

// header renders the identity as an RFC 5322 address.
func (s sender) header() string {
	return (&mail.Address{Name: s.name, Address: s.email}).String()
}

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	client *sendgrid.Client
	from   sender
	logger *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   newSender(cfg.FromEmail, cfg.FromName),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.from.name, s.from.email),
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		html,
	)
	if msg.ReplyTo != "" {
		message.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected email", "status", resp.StatusCode, "body", resp.Body, "to", msg.To)
		return fmt.Errorf("notify: sendgrid status %d", resp.StatusCode)
	}

	s.logger.Debug("sendgrid accepted email", "to", msg.To, "status", resp.StatusCode)
	return nil
}

// StubEmailSender logs instead of sending. It backs EMAIL_PROVIDER=stub and
// local development.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("email not sent (stub provider)", "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
