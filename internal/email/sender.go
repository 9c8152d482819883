// Package email renders and delivers the funnel's transactional mail.
package email

import (
	"context"
	"log/slog"

	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"
)

// Sender delivers one rendered HTML message.
type Sender interface {
	Send(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender logs and drops mail when SMTP is not configured.
type NoopSender struct {
	Log *logger.Logger
}

func (n NoopSender) Send(_ context.Context, toEmail, subject, _ string) error {
	if n.Log != nil {
		n.Log.Info("email skipped, smtp not configured",
			slog.String("to", toEmail),
			slog.String("subject", subject),
		)
	}
	return nil
}

// NewSender returns an SMTP sender, or a no-op sender when SMTP is off.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{Log: log}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
