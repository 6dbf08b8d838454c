package audit

import (
	"context"

	"emrs-notify-api/src/domain/notification"
	logger "emrs-notify-api/src/infrastructure/logger"

	"go.uber.org/zap"
)

// LogSink writes audit records to the structured log only
type LogSink struct {
	Logger *logger.Logger
}

func NewLogSink(loggerInstance *logger.Logger) *LogSink {
	return &LogSink{Logger: loggerInstance}
}

func (s *LogSink) Write(ctx context.Context, record notification.AuditRecord) error {
	s.Logger.Info("Audit record",
		zap.String("batchID", record.BatchID),
		zap.String("kind", string(record.Kind)),
		zap.String("channel", string(record.Channel)),
		zap.String("provider", record.Provider),
		zap.String("recipient", record.Recipient),
		zap.String("status", record.Status),
		zap.String("details", Details(&record)),
		zap.Time("recordedAt", record.RecordedAt))
	return nil
}

// NopSink drops every record (AUDIT_SINK=none)
type NopSink struct{}

func (NopSink) Write(context.Context, notification.AuditRecord) error {
	return nil
}
