package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/inboxpilot/inboxpilot/pkg/config"
)

// SendGridSender sends mail via the SendGrid API from a fixed service
// address rather than the user's own mailbox
type SendGridSender struct {
	config config.SendGridConfig
	client *sendgrid.Client
}

// NewSendGridSender creates a new SendGrid sender
func NewSendGridSender(cfg config.SendGridConfig) *SendGridSender {
	return &SendGridSender{
		config: cfg,
		client: sendgrid.NewSendClient(cfg.APIKey),
	}
}

// Send sends an HTML email with a plain text fallback via SendGrid
func (s *SendGridSender) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	from := sgmail.NewEmail(s.config.FromName, s.config.From)
	toEmail := sgmail.NewEmail("", to)
	message := sgmail.NewSingleEmail(from, subject, toEmail, textBody, htmlBody)

	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned error status: %d %s", response.StatusCode, response.Body)
	}
	return nil
}

// NewSender builds a Sender from configuration. Gmail delivery needs
// the caller's authenticated HTTP client, so "gmail" is resolved by the
// orchestration layer per session; this covers service-account style
// senders only.
func NewSender(cfg config.OutboundConfig) (Sender, error) {
	switch cfg.SenderType {
	case "sendgrid":
		return NewSendGridSender(cfg.SendGrid), nil
	case "", "gmail":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown sender type: %s", cfg.SenderType)
	}
}
