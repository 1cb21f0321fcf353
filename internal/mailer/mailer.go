// Package mailer delivers transactional email (OTP verification, password
// resets) through SMTP, with a log-only fallback for local development.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"kforum/internal/config"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns an SMTP sender when a host is configured, otherwise a
// log-only sender so development environments work without a mail relay.
func NewSender(cfg *config.Config) Sender {
	if cfg.SMTPHost == "" {
		slog.Warn("SMTP_HOST is not set; emails will be logged instead of delivered")
		return &logSender{}
	}
	return &smtpSender{
		addr: cfg.SMTPHost + ":" + cfg.SMTPPort,
		host: cfg.SMTPHost,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.MailFrom,
	}
}

type smtpSender struct {
	addr string
	host string
	user string
	pass string
	from string
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	if err := smtp.SendMail(s.addr, auth, s.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

type logSender struct{}

func (s *logSender) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "email (log-only delivery)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// OTPMessage builds the account verification email.
func OTPMessage(to, name, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your verification code",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour verification code is: %s\n\nIt expires in %d minutes. If you did not request this, you can ignore this email.\n",
			name, code, int(ttl.Minutes())),
	}
}

// PasswordResetMessage builds the password reset email.
func PasswordResetMessage(to, name, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Password reset code",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour password reset code is: %s\n\nIt expires in %d minutes. If you did not request a reset, your account is still safe.\n",
			name, code, int(ttl.Minutes())),
	}
}
