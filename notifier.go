package events

import (
	"context"
)

// LogNotifier prints codes instead of delivering them. Useful for
// local development and as the fallback when SMTP is not configured.
type LogNotifier struct {
	logger Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	n.logger.Info("verification code for %s: %s", email, code)
	return nil
}

func (n *LogNotifier) SendPasswordResetCode(ctx context.Context, email, code string) error {
	n.logger.Info("password reset code for %s: %s", email, code)
	return nil
}
