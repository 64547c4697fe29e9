package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/rotaworks/workforce-auth/internal"
)

// MailgunMailer sends notifications through the Mailgun API.
type MailgunMailer struct {
	domain    string
	apiKey    string
	apiBase   string
	fromName  string
	fromEmail string
	logger    *slog.Logger
}

func NewMailgunMailer(cfg internal.MailConfig, logger *slog.Logger) *MailgunMailer {
	return &MailgunMailer{
		domain:    cfg.Domain,
		apiKey:    cfg.APIKey,
		apiBase:   cfg.APIBase,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		logger:    logger,
	}
}

func (m *MailgunMailer) SendApprovalRequest(adminEmail, registrantEmail string) error {
	return m.send(adminEmail, "New Registration Pending Approval", approvalRequestBody(registrantEmail))
}

func (m *MailgunMailer) SendApprovalGranted(registrantEmail string) error {
	return m.send(registrantEmail, "Your Registration Has Been Approved", approvalGrantedBody())
}

func (m *MailgunMailer) send(to, subject, body string) error {
	mg := mailgun.NewMailgun(m.domain, m.apiKey)
	if m.apiBase != "" {
		mg.SetAPIBase(m.apiBase)
	}

	from := m.fromEmail
	if m.fromName != "" {
		from = m.fromName + " <" + m.fromEmail + ">"
	}

	message := mailgun.NewMessage(from, subject, body, to)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, _, err := mg.Send(ctx, message); err != nil {
		m.logger.Error("mailgun send failed", "to", to, "subject", subject, "error", err)
		return err
	}

	m.logger.Info("notification sent", "to", to, "subject", subject)
	return nil
}
