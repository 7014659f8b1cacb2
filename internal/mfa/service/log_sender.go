package service

import (
	"context"
	"log/slog"
)

// LogSender writes challenge deliveries to the application log instead of an
// external gateway. Development transport only: the code itself is logged at
// debug level and must never reach production logs.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send records the delivery.
func (s *LogSender) Send(ctx context.Context, subjectID, method, code string) error {
	s.logger.Info("mfa challenge dispatched",
		slog.String("subject_id", subjectID),
		slog.String("method", method),
	)
	s.logger.Debug("mfa challenge code",
		slog.String("subject_id", subjectID),
		slog.String("code", code),
	)
	return nil
}
