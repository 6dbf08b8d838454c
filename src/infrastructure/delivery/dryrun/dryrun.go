package dryrun

import (
	"context"

	"emrs-notify-api/src/domain/provider"
	logger "emrs-notify-api/src/infrastructure/logger"

	"go.uber.org/zap"
)

// Provider accepts every delivery without contacting anyone. It is only wired
// when EMAIL_DRY_RUN is enabled.
type Provider struct {
	Logger *logger.Logger
}

func NewProvider(loggerInstance *logger.Logger) *Provider {
	return &Provider{Logger: loggerInstance}
}

func (p *Provider) Name() string {
	return "dry-run"
}

func (p *Provider) Open(ctx context.Context) (provider.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{logger: p.Logger}, nil
}

type session struct {
	logger *logger.Logger
}

func (s *session) Deliver(ctx context.Context, recipient string, message provider.Message) error {
	s.logger.Info("Dry run delivery",
		zap.String("recipient", recipient),
		zap.String("subject", message.Subject),
		zap.Int("htmlBytes", len(message.HTML)))
	return nil
}

func (s *session) Close() error {
	return nil
}
