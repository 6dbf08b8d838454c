package delivery

import (
	"reflect"
	"strings"

	"emrs-notify-api/src/domain/provider"
	"emrs-notify-api/src/infrastructure/config"
	"emrs-notify-api/src/infrastructure/delivery/dryrun"
	"emrs-notify-api/src/infrastructure/delivery/smtp"
	"emrs-notify-api/src/infrastructure/delivery/twilio"
	logger "emrs-notify-api/src/infrastructure/logger"

	"go.uber.org/zap"
)

// Type is the type of a delivery provider.
// The value is the name used in the provider tag of Config.
type Type string

const (
	// TypeSMTP is the generic bulk email relay
	TypeSMTP Type = "smtp"

	// TypeGmail is the Gmail SMTP relay
	TypeGmail Type = "gmail"

	// TypeDryRun accepts email without sending it
	TypeDryRun Type = "dry-run"
)

var (
	// Validate provider interface implementation on compile
	_ provider.Provider = (*smtp.Provider)(nil)
	_ provider.Provider = (*twilio.Provider)(nil)
	_ provider.Provider = (*dryrun.Provider)(nil)
)

// Config holds the email providers built at start-up.
// SMS providers are built per request from caller credentials, see NewSMSProvider.
type Config struct {
	SMTP   *smtp.Provider   `provider:"smtp"`
	Gmail  *smtp.Provider   `provider:"gmail"`
	DryRun *dryrun.Provider `provider:"dry-run"`

	// DryRunEmail routes the bulk endpoint to DryRun
	DryRunEmail bool

	sms    config.SMSConfig
	logger *logger.Logger
}

// NewConfig builds the providers described by cfg. A relay without a host is left nil.
func NewConfig(cfg *config.Config, loggerInstance *logger.Logger) *Config {
	c := &Config{
		Gmail:       smtp.NewGmailProvider(cfg.Gmail.User, cfg.Gmail.AppPassword, cfg.Gmail.FromName, loggerInstance),
		DryRunEmail: cfg.SMTP.DryRun,
		sms:         cfg.SMS,
		logger:      loggerInstance,
	}
	if cfg.SMTP.Host != "" {
		c.SMTP = smtp.NewProvider(smtp.Config{
			Name:     string(TypeSMTP),
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		}, loggerInstance)
	}
	if cfg.SMTP.DryRun {
		c.DryRun = dryrun.NewProvider(loggerInstance)
		loggerInstance.Warn("EMAIL_DRY_RUN is enabled, bulk email is logged and not sent")
	}
	if !c.Gmail.Configured() {
		loggerInstance.Warn("Gmail relay credentials are not configured, the gmail endpoint will fail")
	}
	return c
}

// GetProviderByType returns the provider registered under t, or nil
func (c *Config) GetProviderByType(t Type) provider.Provider {
	entityType := reflect.TypeOf(c).Elem()
	for i := 0; i < entityType.NumField(); i++ {
		field := entityType.Field(i)
		tag := strings.Split(field.Tag.Get("provider"), ",")[0]
		if tag != "" && tag == string(t) {
			fieldValue := reflect.ValueOf(c).Elem().Field(i)
			if fieldValue.IsNil() {
				return nil
			}
			return fieldValue.Interface().(provider.Provider)
		}
	}
	c.logger.Debug("No delivery provider found", zap.String("type", string(t)))
	return nil
}

// BulkEmailProvider is the provider behind the bulk email endpoint
func (c *Config) BulkEmailProvider() provider.Provider {
	if c.DryRunEmail {
		return c.GetProviderByType(TypeDryRun)
	}
	return c.GetProviderByType(TypeSMTP)
}

// GmailProvider is the provider behind the gmail endpoint
func (c *Config) GmailProvider() provider.Provider {
	return c.GetProviderByType(TypeGmail)
}

// NewSMSProvider builds a Twilio provider for one request
func (c *Config) NewSMSProvider(credentials twilio.Credentials) provider.Provider {
	return twilio.NewProvider(credentials, c.logger,
		twilio.WithBaseURL(c.sms.TwilioBaseURL),
		twilio.WithTimeout(c.sms.Timeout()),
	)
}
