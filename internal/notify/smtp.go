package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the mail relay settings for the email sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// SMTPSender delivers notifications as plain-text email through an SMTP
// relay with AUTH PLAIN.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an email sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers the notification to every configured recipient in one
// message.
func (s *SMTPSender) Send(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}

	body := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + strings.Join(s.cfg.To, ", "),
		"Subject: " + title,
		"",
		message,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, s.cfg.To, []byte(body)); err != nil {
		return fmt.Errorf("smtp: send mail: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (s *SMTPSender) Name() string {
	return "smtp"
}
