// Package mailer provides outbound email delivery over SMTP.
// Delivery is always best-effort from the caller's perspective: orchestrators
// treat Send failures as non-critical and never let them fail a transition.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// System sends email messages.
type System interface {
	// Send delivers an HTML message to a single recipient.
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type client struct {
	cfg    *Config
	logger *slog.Logger
}

// New creates a mailer from the given configuration. When no SMTP host is
// configured, Send logs the message instead of delivering it.
func New(cfg *Config, logger *slog.Logger) System {
	return &client{
		cfg:    cfg,
		logger: logger.With("system", "mailer"),
	}
}

func (c *client) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.cfg.Host == "" {
		c.logger.Info("smtp disabled, message not delivered", "to", to, "subject", subject)
		return nil
	}

	msg := buildMessage(c.cfg.From, to, subject, htmlBody)

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	if err := smtp.SendMail(c.cfg.Addr(), auth, c.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	c.logger.Info("message delivered", "to", to, "subject", subject)
	return nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}
