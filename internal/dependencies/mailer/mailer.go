package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer delivers account emails
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// SMTPConfig holds SMTP relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// Enabled reports whether an SMTP relay is configured
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates an SMTPMailer
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg}
}

// SendPasswordReset emails a password reset link
func (m *SMTPMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	body := fmt.Sprintf(`<html><body>
		<h2>Reset your password</h2>
		<p>A password reset was requested for your Creature Clash account.</p>
		<p><a href="%s">Choose a new password</a></p>
		<p>This link expires in one hour. If you did not ask for it, ignore this email.</p>
	</body></html>`, resetURL)
	return m.send(to, "Reset your password", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}

// LogMailer writes reset links to the log instead of sending them.
// Used when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With(slog.String("component", "mailer"))}
}

// SendPasswordReset logs the reset link
func (m *LogMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.logger.Info("password reset link",
		slog.String("to", to),
		slog.String("url", resetURL))
	return nil
}
