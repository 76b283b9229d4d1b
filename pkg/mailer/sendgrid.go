package mailer

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/pkg/config"
)

// Mailer sends transactional mail. Implemented by the SendGrid client; the
// auth service consumes the interface so tests can stub delivery.
type Mailer interface {
	Send(toEmail, toName, subject, textBody string) error
}

type sendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendGrid builds a SendGrid-backed Mailer. When no API key is configured
// the mailer logs the message instead of sending, which keeps the OTP flow
// usable in development.
func NewSendGrid(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	var client *sendgrid.Client
	if cfg.SendGridKey != "" {
		client = sendgrid.NewSendClient(cfg.SendGridKey)
	}
	return &sendGridMailer{
		client: client,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

func (m *sendGridMailer) Send(toEmail, toName, subject, textBody string) error {
	if m.client == nil {
		m.logger.Warn("sendgrid key not configured, logging mail instead",
			zap.String("to", toEmail),
			zap.String("subject", subject),
			zap.String("body", textBody),
		)
		return nil
	}

	message := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail(toName, toEmail), textBody, "")
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
