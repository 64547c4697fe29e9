package notification

import (
	"fmt"
	"log/slog"
)

// Mailer delivers registration lifecycle notifications. Implementations must
// be safe for concurrent use.
type Mailer interface {
	// SendApprovalRequest notifies the configured administrator address that
	// a registration is waiting for approval.
	SendApprovalRequest(adminEmail, registrantEmail string) error

	// SendApprovalGranted notifies the registrant that their account is
	// active.
	SendApprovalGranted(registrantEmail string) error
}

// LogMailer is the fallback used when no mail provider is configured. It only
// writes the notification to the log so registration flows keep working in
// development.
type LogMailer struct {
	Logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) SendApprovalRequest(adminEmail, registrantEmail string) error {
	m.Logger.Info("mail disabled: approval request not sent",
		"admin_email", adminEmail,
		"registrant_email", registrantEmail)
	return nil
}

func (m *LogMailer) SendApprovalGranted(registrantEmail string) error {
	m.Logger.Info("mail disabled: approval notice not sent",
		"registrant_email", registrantEmail)
	return nil
}

func approvalRequestBody(registrantEmail string) string {
	return fmt.Sprintf(
		"A new user has registered and is pending approval.\n\nEmail: %s\n",
		registrantEmail)
}

func approvalGrantedBody() string {
	return "Your registration has been approved. You can now log in."
}
