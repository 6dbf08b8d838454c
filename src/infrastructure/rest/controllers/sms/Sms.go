package sms

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"emrs-notify-api/src/application/usecases/dispatch"
	domainErrors "emrs-notify-api/src/domain/errors"
	"emrs-notify-api/src/domain/notification"
	"emrs-notify-api/src/domain/provider"
	"emrs-notify-api/src/infrastructure/delivery/twilio"
	logger "emrs-notify-api/src/infrastructure/logger"
	"emrs-notify-api/src/infrastructure/rest/controllers"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProviderFactory builds an SMS provider from the credentials of one request
type ProviderFactory interface {
	NewSMSProvider(credentials twilio.Credentials) provider.Provider
}

type ISmsController interface {
	Send(ctx *gin.Context)
}

type SmsController struct {
	dispatchUseCase dispatch.IDispatchUseCase
	providers       ProviderFactory
	interval        time.Duration
	Logger          *logger.Logger
}

func NewSmsController(
	dispatchUseCase dispatch.IDispatchUseCase,
	providers ProviderFactory,
	interval time.Duration,
	loggerInstance *logger.Logger,
) ISmsController {
	return &SmsController{
		dispatchUseCase: dispatchUseCase,
		providers:       providers,
		interval:        interval,
		Logger:          loggerInstance,
	}
}

// Send delivers one text message through Twilio with the caller's account
func (c *SmsController) Send(ctx *gin.Context) {
	var request SmsRequest
	if err := controllers.BindJSON(ctx, &request); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.Logger.Warn("Missing SMS fields", zap.Int("count", len(ve)))
			missingFields(ctx)
			return
		}
		c.Logger.Error("Couldn't process request - invalid request", zap.Error(err))
		_ = ctx.Error(domainErrors.NewAppError(fmt.Errorf("invalid request body: %w", err), domainErrors.MalformedRequest))
		return
	}
	if request.blank() {
		c.Logger.Warn("Blank SMS fields")
		missingFields(ctx)
		return
	}

	p := c.providers.NewSMSProvider(twilio.Credentials{
		AccountSID: request.AccountSID,
		AuthToken:  request.AuthToken,
		FromNumber: request.FromNumber,
	})
	dispatchRequest := notification.NewDispatchRequest([]string{request.To}, "", request.Message, notification.CategoryGeneral)
	route := dispatch.Route{Channel: notification.ChannelSMS, Provider: p, Interval: c.interval}

	result, err := c.dispatchUseCase.Dispatch(ctx.Request.Context(), route, dispatchRequest)
	if err != nil {
		c.Logger.Error("Error dispatching SMS", zap.Error(err))
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, toSmsResponse(result))
}

func missingFields(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
}

func toSmsResponse(result *notification.BatchResult) *SmsResponse {
	results := make([]SmsResult, len(result.Outcomes))
	for i, o := range result.Outcomes {
		results[i] = SmsResult{
			To:          o.Recipient,
			Status:      string(o.State),
			Error:       o.ErrorDetail,
			AttemptedAt: controllers.FormatTime(o.AttemptedAt),
		}
	}
	return &SmsResponse{
		Success:       true,
		BatchID:       result.BatchID,
		Provider:      result.Provider,
		Results:       results,
		Summary:       controllers.NewSummary(result.Summary),
		Message:       fmt.Sprintf("SMS sent: %d, failed: %d", result.Summary.Succeeded, result.Summary.Failed),
		AuditDegraded: result.AuditDegraded(),
	}
}
