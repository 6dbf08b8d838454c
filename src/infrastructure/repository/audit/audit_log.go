package audit

import (
	"context"
	"time"

	domainErrors "emrs-notify-api/src/domain/errors"
	"emrs-notify-api/src/domain/notification"
	logger "emrs-notify-api/src/infrastructure/logger"

	"github.com/tidwall/sjson"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationAuditLog is the database model for audit records
type NotificationAuditLog struct {
	ID           uint      `gorm:"primaryKey"`
	BatchID      string    `gorm:"column:batch_id;size:36;index"`
	Kind         string    `gorm:"column:kind;size:16"`
	Channel      string    `gorm:"column:channel;size:16;index"`
	Provider     string    `gorm:"column:provider;size:32"`
	Category     string    `gorm:"column:category;size:32"`
	Subject      string    `gorm:"column:subject;type:text"`
	Recipient    string    `gorm:"column:recipient;size:320;index"`
	Status       string    `gorm:"column:status;size:16;index"`
	ErrorMessage string    `gorm:"column:error_message;type:text"`
	Total        int       `gorm:"column:total"`
	Succeeded    int       `gorm:"column:succeeded"`
	Failed       int       `gorm:"column:failed"`
	Details      string    `gorm:"column:details;type:text"`
	RecordedAt   time.Time `gorm:"column:recorded_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime:milli"`
}

func (NotificationAuditLog) TableName() string {
	return "notification_audit_logs"
}

// AuditLogRepositoryInterface is the database audit sink
type AuditLogRepositoryInterface interface {
	notification.AuditSink
	notification.AuditReader
}

type AuditLogRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewAuditLogRepository(db *gorm.DB, loggerInstance *logger.Logger) AuditLogRepositoryInterface {
	return &AuditLogRepository{DB: db, Logger: loggerInstance}
}

func (r *AuditLogRepository) Write(ctx context.Context, record notification.AuditRecord) error {
	model := auditLogFromDomainMapper(&record)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		r.Logger.Error("Error creating audit log", zap.Error(err), zap.String("batchID", record.BatchID), zap.String("recipient", record.Recipient))
		return domainErrors.NewAppError(err, domainErrors.UnknownError)
	}
	r.Logger.Debug("Created audit log", zap.String("batchID", record.BatchID), zap.Uint("id", model.ID))
	return nil
}

func (r *AuditLogRepository) ListByBatch(ctx context.Context, batchID string) ([]notification.AuditRecord, error) {
	var logs []NotificationAuditLog
	if err := r.DB.WithContext(ctx).Where("batch_id = ?", batchID).Order("id").Find(&logs).Error; err != nil {
		r.Logger.Error("Error getting audit logs by batch", zap.Error(err), zap.String("batchID", batchID))
		return nil, domainErrors.NewAppError(err, domainErrors.UnknownError)
	}
	if len(logs) == 0 {
		r.Logger.Warn("No audit logs for batch", zap.String("batchID", batchID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	return auditLogArrayToDomainMapper(logs), nil
}

// Details builds the JSON blob stored alongside each record
func Details(record *notification.AuditRecord) string {
	details := "{}"
	details, _ = sjson.Set(details, "category", string(record.Category))
	if record.ErrorDetail != "" {
		details, _ = sjson.Set(details, "errorDetail", record.ErrorDetail)
	}
	if record.Kind == notification.AuditKindBatch {
		details, _ = sjson.Set(details, "summary.total", record.Total)
		details, _ = sjson.Set(details, "summary.success", record.Succeeded)
		details, _ = sjson.Set(details, "summary.failed", record.Failed)
	}
	return details
}

// Mappers
func (l *NotificationAuditLog) toDomainMapper() notification.AuditRecord {
	return notification.AuditRecord{
		BatchID:     l.BatchID,
		Kind:        notification.AuditKind(l.Kind),
		Channel:     notification.Channel(l.Channel),
		Provider:    l.Provider,
		Category:    notification.Category(l.Category),
		Subject:     l.Subject,
		Recipient:   l.Recipient,
		Status:      l.Status,
		ErrorDetail: l.ErrorMessage,
		Total:       l.Total,
		Succeeded:   l.Succeeded,
		Failed:      l.Failed,
		RecordedAt:  l.RecordedAt,
	}
}

func auditLogFromDomainMapper(r *notification.AuditRecord) *NotificationAuditLog {
	return &NotificationAuditLog{
		BatchID:      r.BatchID,
		Kind:         string(r.Kind),
		Channel:      string(r.Channel),
		Provider:     r.Provider,
		Category:     string(r.Category),
		Subject:      r.Subject,
		Recipient:    r.Recipient,
		Status:       r.Status,
		ErrorMessage: r.ErrorDetail,
		Total:        r.Total,
		Succeeded:    r.Succeeded,
		Failed:       r.Failed,
		Details:      Details(r),
		RecordedAt:   r.RecordedAt,
	}
}

func auditLogArrayToDomainMapper(logs []NotificationAuditLog) []notification.AuditRecord {
	records := make([]notification.AuditRecord, len(logs))
	for i := range logs {
		records[i] = logs[i].toDomainMapper()
	}
	return records
}
