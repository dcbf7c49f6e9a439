package users

import (
	"context"

	"github.com/dmitrijs2005/cityai/internal/logging"
)

// CodeSender delivers a verification code to an email address.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogSender "emails" codes by logging them; there is no mail transport in
// development.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "mailer")}
}

func (s *LogSender) SendCode(ctx context.Context, email, code string) error {
	s.logger.Info(ctx, "verification code issued", "email", email, "code", code)
	return nil
}
