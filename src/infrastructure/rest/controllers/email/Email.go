package email

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"emrs-notify-api/src/application/usecases/dispatch"
	"emrs-notify-api/src/domain/common"
	domainErrors "emrs-notify-api/src/domain/errors"
	"emrs-notify-api/src/domain/notification"
	"emrs-notify-api/src/domain/provider"
	logger "emrs-notify-api/src/infrastructure/logger"
	"emrs-notify-api/src/infrastructure/rest/controllers"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProviderRegistry resolves the provider behind each email endpoint
type ProviderRegistry interface {
	BulkEmailProvider() provider.Provider
	GmailProvider() provider.Provider
}

// Intervals are the waits between two sends of the same batch
type Intervals struct {
	Bulk  time.Duration
	Gmail time.Duration
}

type IEmailController interface {
	SendBulk(ctx *gin.Context)
	SendGmail(ctx *gin.Context)
}

type EmailController struct {
	commonService   common.CommonService
	dispatchUseCase dispatch.IDispatchUseCase
	providers       ProviderRegistry
	intervals       Intervals
	Logger          *logger.Logger
}

func NewEmailController(
	commonService common.CommonService,
	dispatchUseCase dispatch.IDispatchUseCase,
	providers ProviderRegistry,
	intervals Intervals,
	loggerInstance *logger.Logger,
) IEmailController {
	return &EmailController{
		commonService:   commonService,
		dispatchUseCase: dispatchUseCase,
		providers:       providers,
		intervals:       intervals,
		Logger:          loggerInstance,
	}
}

// SendBulk delivers through the generic SMTP relay
func (c *EmailController) SendBulk(ctx *gin.Context) {
	c.send(ctx, c.providers.BulkEmailProvider(), c.intervals.Bulk)
}

// SendGmail delivers through the Gmail relay
func (c *EmailController) SendGmail(ctx *gin.Context) {
	c.send(ctx, c.providers.GmailProvider(), c.intervals.Gmail)
}

func (c *EmailController) send(ctx *gin.Context, p provider.Provider, interval time.Duration) {
	var request EmailRequest
	if err := controllers.BindJSON(ctx, &request); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.Logger.Warn("Validation errors occurred", zap.Int("count", len(ve)))
			c.commonService.AppendValidationErrors(ctx, ve, request)
			return
		}
		c.Logger.Error("Couldn't process request - invalid request", zap.Error(err))
		_ = ctx.Error(domainErrors.NewAppError(fmt.Errorf("invalid request body: %w", err), domainErrors.MalformedRequest))
		return
	}

	dispatchRequest := notification.NewDispatchRequest(request.To, request.Subject, request.Body, notification.Category(request.Type))
	route := dispatch.Route{Channel: notification.ChannelEmail, Provider: p, Interval: interval}

	result, err := c.dispatchUseCase.Dispatch(ctx.Request.Context(), route, dispatchRequest)
	if err != nil {
		c.Logger.Error("Error dispatching email", zap.Error(err), zap.Int("recipients", dispatchRequest.Len()))
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, toEmailResponse(result))
}

func toEmailResponse(result *notification.BatchResult) *EmailResponse {
	results := make([]EmailResult, len(result.Outcomes))
	for i, o := range result.Outcomes {
		results[i] = EmailResult{
			Email:       o.Recipient,
			Status:      string(o.State),
			Error:       o.ErrorDetail,
			AttemptedAt: controllers.FormatTime(o.AttemptedAt),
		}
	}
	return &EmailResponse{
		Success:       true,
		BatchID:       result.BatchID,
		Provider:      result.Provider,
		Results:       results,
		Summary:       controllers.NewSummary(result.Summary),
		Message:       fmt.Sprintf("Emails sent: %d, failed: %d", result.Summary.Succeeded, result.Summary.Failed),
		AuditDegraded: result.AuditDegraded(),
	}
}
