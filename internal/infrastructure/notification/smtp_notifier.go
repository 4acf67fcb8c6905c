// Package notification delivers account emails over SMTP.
package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/core/ports"
)

// Config captures the SMTP settings. When Host is empty the notifier runs in
// no-op mode: messages are logged instead of sent, which keeps local
// development working without a mail server.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the public address of the frontend, used to build reset links.
	BaseURL string
}

// SMTPNotifier sends account notifications synchronously over SMTP.
type SMTPNotifier struct {
	cfg Config
	log zerolog.Logger

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg Config, log zerolog.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, log: log, send: smtp.SendMail}
}

var _ ports.Notifier = (*SMTPNotifier)(nil)

func (n *SMTPNotifier) SendResetLink(ctx context.Context, email, token string) error {
	link := strings.TrimRight(n.cfg.BaseURL, "/") + "/reset-password?token=" + token
	body := "Hello,\r\n\r\n" +
		"We received a request to reset your password. Click the link below to choose a new one:\r\n\r\n" +
		link + "\r\n\r\n" +
		"This link will expire in 1 hour. If you did not request a password reset, you can safely ignore this email.\r\n"
	return n.deliver(ctx, email, "Password Reset Request - Hospital Management System", body)
}

func (n *SMTPNotifier) SendPasswordChanged(ctx context.Context, email string) error {
	body := "Hello,\r\n\r\n" +
		"Your password was just changed. If this was you, no further action is needed.\r\n\r\n" +
		"If you did not change your password, please contact the hospital administration immediately.\r\n"
	return n.deliver(ctx, email, "Your Password Was Changed - Hospital Management System", body)
}

func (n *SMTPNotifier) SendWelcome(ctx context.Context, email, name string) error {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	body := greeting + ",\r\n\r\n" +
		"Your patient account has been created. You can now sign in to book appointments and view your records.\r\n"
	return n.deliver(ctx, email, "Welcome to the Hospital Management System", body)
}

func (n *SMTPNotifier) deliver(ctx context.Context, to, subject, body string) error {
	if n.cfg.Host == "" {
		n.log.Info().Str("to", to).Str("subject", subject).Msg("smtp not configured, skipping email")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte("From: " + n.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
