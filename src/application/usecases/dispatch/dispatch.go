package dispatch

import (
	"context"
	"fmt"
	"time"

	domainErrors "emrs-notify-api/src/domain/errors"
	"emrs-notify-api/src/domain/notification"
	"emrs-notify-api/src/domain/provider"
	logger "emrs-notify-api/src/infrastructure/logger"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// Route selects how a batch is delivered
type Route struct {
	Channel  notification.Channel
	Provider provider.Provider
	// Interval is the wait between two consecutive attempts
	Interval time.Duration
}

// IDispatchUseCase defines the bulk notification dispatcher
type IDispatchUseCase interface {
	Dispatch(ctx context.Context, route Route, request notification.DispatchRequest) (*notification.BatchResult, error)
}

// DispatchUseCase implements IDispatchUseCase
type DispatchUseCase struct {
	renderer  *Renderer
	auditSink notification.AuditSink
	Logger    *logger.Logger

	now        func() time.Time
	wait       func(ctx context.Context, d time.Duration) error
	newBatchID func() string
}

// NewDispatchUseCase creates a new DispatchUseCase
func NewDispatchUseCase(
	renderer *Renderer,
	auditSink notification.AuditSink,
	loggerInstance *logger.Logger,
) IDispatchUseCase {
	return &DispatchUseCase{
		renderer:   renderer,
		auditSink:  auditSink,
		Logger:     loggerInstance,
		now:        time.Now,
		wait:       sleepContext,
		newBatchID: func() string { return uuid.Must(uuid.NewV4()).String() },
	}
}

// Dispatch renders the request once and delivers it to every recipient in order.
// A returned error means nothing was attempted; once sending starts every
// recipient gets exactly one outcome, even when ctx is cancelled half way.
func (d *DispatchUseCase) Dispatch(ctx context.Context, route Route, request notification.DispatchRequest) (*notification.BatchResult, error) {
	if route.Provider == nil {
		return nil, domainErrors.NewAppError(fmt.Errorf("no provider configured for %s", route.Channel), domainErrors.ProviderUnavailable)
	}

	batchID := d.newBatchID()
	providerName := route.Provider.Name()
	log := d.Logger.With(
		zap.String("batchID", batchID),
		zap.String("channel", string(route.Channel)),
		zap.String("provider", providerName),
	)
	start := time.Now()
	defer func() {
		dispatchDurationHist.WithLabelValues(string(route.Channel), providerName).Observe(time.Since(start).Seconds())
	}()

	log.Debug("Dispatch state", zap.String("state", "not-started"), zap.Int("recipients", request.Len()))
	if err := request.Validate(); err != nil {
		log.Warn("Rejected dispatch request", zap.Error(err))
		return nil, domainErrors.NewAppError(err, domainErrors.ValidationError)
	}

	html, err := d.renderer.RenderHTML(request.Subject, request.Body)
	if err != nil {
		log.Error("Error rendering notification", zap.Error(err))
		return nil, domainErrors.NewAppError(err, domainErrors.UnknownError)
	}
	message := provider.Message{
		Subject: request.Subject,
		HTML:    html,
		Text:    request.Body,
	}

	log.Debug("Dispatch state", zap.String("state", "connecting"))
	session, err := route.Provider.Open(ctx)
	if err != nil {
		log.Error("Dispatch state", zap.String("state", "failed-fast"), zap.Error(err))
		batchesCounter.WithLabelValues(string(route.Channel), providerName, "failed_fast").Inc()
		return nil, domainErrors.NewAppError(fmt.Errorf("connecting to %s: %w", providerName, err), domainErrors.ProviderUnavailable)
	}

	outcomes := d.deliverAll(ctx, log, session, route, request.Recipients(), message)

	log.Debug("Dispatch state", zap.String("state", "summarizing"))
	summary := notification.Summarize(outcomes)
	batchesCounter.WithLabelValues(string(route.Channel), providerName, string(summary.OverallState)).Inc()

	result := &notification.BatchResult{
		BatchID:  batchID,
		Channel:  route.Channel,
		Provider: providerName,
		Summary:  summary,
		Outcomes: outcomes,
	}
	result.Audit = d.writeAudit(context.WithoutCancel(ctx), log, result, request)

	log.Info("Dispatch state",
		zap.String("state", "done"),
		zap.String("overallState", string(summary.OverallState)),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Bool("auditDegraded", result.AuditDegraded()))
	return result, nil
}

func (d *DispatchUseCase) deliverAll(
	ctx context.Context,
	log *logger.Logger,
	session provider.Session,
	route Route,
	recipients []string,
	message provider.Message,
) []notification.DeliveryOutcome {
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Error closing provider session", zap.Error(err))
		}
	}()

	outcomes := make([]notification.DeliveryOutcome, 0, len(recipients))
	for i, recipient := range recipients {
		if i > 0 && route.Interval > 0 {
			// a failed wait means ctx is done; the check below records it
			_ = d.wait(ctx, route.Interval)
		}
		if ctx.Err() != nil {
			reason := fmt.Sprintf("dispatch cancelled: %v", context.Cause(ctx))
			log.Warn("Dispatch cancelled", zap.Int("attempted", i), zap.Int("remaining", len(recipients)-i))
			for _, rest := range recipients[i:] {
				outcomes = append(outcomes, d.outcome(route, rest, reason))
			}
			return outcomes
		}

		log.Debug("Dispatch state", zap.String("state", "sending"), zap.Int("index", i))
		detail := ""
		if err := session.Deliver(ctx, recipient, message); err != nil {
			detail = err.Error()
			log.Warn("Delivery failed", zap.Int("index", i), zap.String("recipient", recipient), zap.Error(err))
		}
		outcomes = append(outcomes, d.outcome(route, recipient, detail))
	}
	return outcomes
}

func (d *DispatchUseCase) outcome(route Route, recipient, errorDetail string) notification.DeliveryOutcome {
	state := notification.OutcomeSent
	if errorDetail != "" {
		state = notification.OutcomeFailed
	}
	deliveryOutcomesCounter.WithLabelValues(string(route.Channel), route.Provider.Name(), string(state)).Inc()
	return notification.DeliveryOutcome{
		Recipient:   recipient,
		State:       state,
		ErrorDetail: errorDetail,
		AttemptedAt: d.now().UTC(),
	}
}

func (d *DispatchUseCase) writeAudit(
	ctx context.Context,
	log *logger.Logger,
	result *notification.BatchResult,
	request notification.DispatchRequest,
) []notification.AuditResult {
	if d.auditSink == nil {
		return nil
	}

	results := make([]notification.AuditResult, 0, len(result.Outcomes)+1)
	for _, o := range result.Outcomes {
		record := notification.AuditRecord{
			BatchID:     result.BatchID,
			Kind:        notification.AuditKindDelivery,
			Channel:     result.Channel,
			Provider:    result.Provider,
			Category:    request.Category,
			Subject:     request.Subject,
			Recipient:   o.Recipient,
			Status:      string(o.State),
			ErrorDetail: o.ErrorDetail,
			RecordedAt:  o.AttemptedAt,
		}
		results = append(results, d.writeRecord(ctx, log, record))
	}

	results = append(results, d.writeRecord(ctx, log, notification.AuditRecord{
		BatchID:    result.BatchID,
		Kind:       notification.AuditKindBatch,
		Channel:    result.Channel,
		Provider:   result.Provider,
		Category:   request.Category,
		Subject:    request.Subject,
		Status:     string(result.Summary.OverallState),
		Total:      result.Summary.Total,
		Succeeded:  result.Summary.Succeeded,
		Failed:     result.Summary.Failed,
		RecordedAt: d.now().UTC(),
	}))
	return results
}

func (d *DispatchUseCase) writeRecord(ctx context.Context, log *logger.Logger, record notification.AuditRecord) notification.AuditResult {
	res := notification.AuditResult{Kind: record.Kind, Recipient: record.Recipient, Status: notification.AuditLogged}
	if err := d.auditSink.Write(ctx, record); err != nil {
		log.Error("Error writing audit record",
			zap.String("kind", string(record.Kind)),
			zap.String("recipient", record.Recipient),
			zap.Error(err))
		res.Status = notification.AuditLogFailed
		res.Reason = err.Error()
	}
	auditWritesCounter.WithLabelValues(string(res.Status)).Inc()
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
