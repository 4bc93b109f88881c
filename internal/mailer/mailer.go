// Package mailer sends transactional emails (verification links, password
// resets and plan notifications) over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/config"
)

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	user     string
	pass     string
	sender   string
	sendMail sendFunc
}

// NewSMTPMailer builds an SMTPMailer from the SMTP_* settings.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		pass:     cfg.SMTPPass,
		sender:   cfg.MailFrom,
		sendMail: smtp.SendMail,
	}
}

// Send delivers the message. The context is checked before dialing; net/smtp
// itself has no cancellation.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}
	if m.user == "" || m.pass == "" {
		return fmt.Errorf("SMTP username and password must be provided")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	addr := m.host + ":" + m.port
	if err := m.sendMail(addr, auth, m.sender, []string{recipient}, BuildMessage(m.sender, recipient, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// BuildMessage renders the RFC 822 message. HTML bodies are detected by a
// leading <html> or <p> tag.
func BuildMessage(sender, recipient, subject, body string) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, sender, subject, contentType, body))
}

// LogMailer only logs outgoing mail. Used when SMTP is not configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, recipient, subject, body string) error {
	m.logger.Info("Email delivery disabled; logging message instead",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}

// New picks the SMTP mailer when it is configured, otherwise the log mailer.
func New(cfg *config.Config, logger *zap.Logger) Mailer {
	if cfg.MailEnabled() {
		return NewSMTPMailer(cfg)
	}
	logger.Warn("SMTP is not configured; emails will only be logged.")
	return NewLogMailer(logger)
}
