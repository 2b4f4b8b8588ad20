package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// sesAPI is the part of *sesv2.Client the sender uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES v2 simple messages.
type SESSender struct {
	client sesAPI
	from   sender
	logger *logging.Logger
}

type SESConfig struct {
	FromEmail string
	FromName  string
}

// NewSESSender returns nil when client is nil.
func NewSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESSender{client: client, from: newSender(cfg.FromEmail, cfg.FromName), logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	body := &types.Body{}
	if msg.Body != "" {
		body.Text = utf8Content(msg.Body)
	}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from.header()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := s.client.SendEmail(ctx, in)
	if err != nil {
		s.logger.Error("SES send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: ses send: %w", err)
	}

	s.logger.Debug("SES accepted email", "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)
