package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/adpulse/reports-api/pkg/config"
)

// Mailer delivers rendered report emails.
type Mailer interface {
	Send(to, subject, html string) error
}

// SMTPMailer sends mail through a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer constructs a mailer from SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.From, cfg.Password)
	return &SMTPMailer{dialer: dialer, from: cfg.From}
}

// Send delivers a single HTML message.
func (m *SMTPMailer) Send(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%q <%s>", "Scheduled Reports", m.from))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}
	return nil
}
