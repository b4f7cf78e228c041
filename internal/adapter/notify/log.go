package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log writes notifications to the logger when no channel is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, message string) error {
	l.logger.Info("notification", zap.String("body", message))
	return nil
}
