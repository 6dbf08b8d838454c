package di

import (
	"fmt"

	"emrs-notify-api/src/application/usecases/dispatch"
	"emrs-notify-api/src/domain/common"
	"emrs-notify-api/src/domain/notification"
	"emrs-notify-api/src/infrastructure/config"
	"emrs-notify-api/src/infrastructure/delivery"
	"emrs-notify-api/src/infrastructure/helper"
	logger "emrs-notify-api/src/infrastructure/logger"
	"emrs-notify-api/src/infrastructure/repository/audit"
	"emrs-notify-api/src/infrastructure/repository/database"
	"emrs-notify-api/src/infrastructure/repository/supabase"
	batchController "emrs-notify-api/src/infrastructure/rest/controllers/batch"
	emailController "emrs-notify-api/src/infrastructure/rest/controllers/email"
	smsController "emrs-notify-api/src/infrastructure/rest/controllers/sms"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApplicationContext holds all application dependencies and services
type ApplicationContext struct {
	Config          *config.Config
	DB              *gorm.DB
	Logger          *logger.Logger
	CommonService   common.CommonService
	Delivery        *delivery.Config
	AuditSink       notification.AuditSink
	AuditReader     notification.AuditReader
	DispatchUseCase dispatch.IDispatchUseCase
	EmailController emailController.IEmailController
	SmsController   smsController.ISmsController
	BatchController batchController.IBatchController
}

// SetupDependencies creates a new application context with all dependencies
func SetupDependencies(cfg *config.Config, loggerInstance *logger.Logger) (*ApplicationContext, error) {
	sink, db, err := NewAuditSink(cfg, loggerInstance)
	if err != nil {
		return nil, err
	}

	appContext, err := newApplicationContext(cfg, sink, loggerInstance)
	if err != nil {
		return nil, err
	}
	appContext.DB = db
	return appContext, nil
}

// NewAuditSink builds the sink selected by AUDIT_SINK. The database handle is nil unless the sink is database.
func NewAuditSink(cfg *config.Config, loggerInstance *logger.Logger) (notification.AuditSink, *gorm.DB, error) {
	switch cfg.Audit.Sink {
	case "database":
		db, err := database.InitDB(cfg.Database, loggerInstance)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing audit database: %w", err)
		}
		loggerInstance.Info("Audit records are written to the database", zap.String("driver", cfg.Database.Driver))
		return audit.NewAuditLogRepository(db, loggerInstance), db, nil
	case "supabase":
		loggerInstance.Info("Audit records are written to Supabase", zap.String("table", cfg.Audit.SupabaseTable))
		return supabase.NewAuditSink(cfg.Audit.SupabaseURL, cfg.Audit.SupabaseKey, cfg.Audit.SupabaseTable, cfg.Audit.Timeout(), loggerInstance), nil, nil
	case "none":
		loggerInstance.Warn("Audit records are discarded")
		return audit.NopSink{}, nil, nil
	case "log", "":
		return audit.NewLogSink(loggerInstance), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown audit sink %q", cfg.Audit.Sink)
	}
}

func newApplicationContext(cfg *config.Config, sink notification.AuditSink, loggerInstance *logger.Logger) (*ApplicationContext, error) {
	renderer, err := dispatch.NewRenderer(cfg.Template.SchoolName)
	if err != nil {
		return nil, fmt.Errorf("parsing email template: %w", err)
	}

	validator := helper.NewValidator(loggerInstance)
	commonService := common.NewCommonService(validator)

	deliveryConfig := delivery.NewConfig(cfg, loggerInstance)
	dispatchUC := dispatch.NewDispatchUseCase(renderer, sink, loggerInstance)

	// nil when the sink cannot be queried
	reader, _ := sink.(notification.AuditReader)

	emailCtrl := emailController.NewEmailController(
		commonService,
		dispatchUC,
		deliveryConfig,
		emailController.Intervals{Bulk: cfg.SMTP.Interval(), Gmail: cfg.Gmail.Interval()},
		loggerInstance,
	)
	smsCtrl := smsController.NewSmsController(dispatchUC, deliveryConfig, cfg.SMS.Interval(), loggerInstance)
	batchCtrl := batchController.NewBatchController(reader, loggerInstance)

	return &ApplicationContext{
		Config:          cfg,
		Logger:          loggerInstance,
		CommonService:   commonService,
		Delivery:        deliveryConfig,
		AuditSink:       sink,
		AuditReader:     reader,
		DispatchUseCase: dispatchUC,
		EmailController: emailCtrl,
		SmsController:   smsCtrl,
		BatchController: batchCtrl,
	}, nil
}

// NewTestApplicationContext creates an application context for testing with the given audit sink
func NewTestApplicationContext(cfg *config.Config, sink notification.AuditSink, loggerInstance *logger.Logger) (*ApplicationContext, error) {
	return newApplicationContext(cfg, sink, loggerInstance)
}
