// Package mailer delivers two-factor codes and other account mail. The
// login flow only depends on the Mailer interface; the concrete transport
// is picked at startup from configuration.
package mailer

import (
	"context"
	"log/slog"

	"github.com/keywarden/keywarden/internal/domain"
)

// Mailer sends a plain-text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to domain.Email, subject, body string) error
}

// LogMailer writes outgoing mail to the log instead of delivering it.
// Used in development and tests, where a real SMTP server is not around.
type LogMailer struct{}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(ctx context.Context, to domain.Email, subject, body string) error {
	slog.Info("mail (log only)",
		slog.String("to", to.String()),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
