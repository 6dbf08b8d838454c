package batch

import (
	"errors"
	"net/http"
	"strings"

	domainErrors "emrs-notify-api/src/domain/errors"
	"emrs-notify-api/src/domain/notification"
	logger "emrs-notify-api/src/infrastructure/logger"
	"emrs-notify-api/src/infrastructure/rest/controllers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IBatchController interface {
	GetAuditTrail(ctx *gin.Context)
}

type BatchController struct {
	auditReader notification.AuditReader
	Logger      *logger.Logger
}

// NewBatchController accepts a nil reader when the configured sink cannot be queried
func NewBatchController(auditReader notification.AuditReader, loggerInstance *logger.Logger) IBatchController {
	return &BatchController{
		auditReader: auditReader,
		Logger:      loggerInstance,
	}
}

// GetAuditTrail returns the audit records written for one batch
func (c *BatchController) GetAuditTrail(ctx *gin.Context) {
	if c.auditReader == nil {
		_ = ctx.Error(domainErrors.NewAppError(errors.New("the configured audit sink cannot be read"), domainErrors.NotImplemented))
		return
	}

	batchID := strings.TrimSpace(ctx.Param("id"))
	if batchID == "" {
		_ = ctx.Error(domainErrors.NewAppError(errors.New("batch id is required"), domainErrors.ValidationError))
		return
	}

	records, err := c.auditReader.ListByBatch(ctx.Request.Context(), batchID)
	if err != nil {
		c.Logger.Error("Error reading audit trail", zap.String("batchID", batchID), zap.Error(err))
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, &AuditTrailResponse{
		Success: true,
		BatchID: batchID,
		Records: arrayToResponse(records),
	})
}

func arrayToResponse(records []notification.AuditRecord) []AuditRecordResponse {
	out := make([]AuditRecordResponse, len(records))
	for i, r := range records {
		out[i] = AuditRecordResponse{
			Kind:       string(r.Kind),
			Channel:    string(r.Channel),
			Provider:   r.Provider,
			Category:   string(r.Category),
			Subject:    r.Subject,
			Recipient:  r.Recipient,
			Status:     r.Status,
			Error:      r.ErrorDetail,
			Total:      r.Total,
			Succeeded:  r.Succeeded,
			Failed:     r.Failed,
			RecordedAt: controllers.FormatTime(r.RecordedAt),
		}
	}
	return out
}
