package database

import (
	"fmt"

	"emrs-notify-api/src/infrastructure/config"
	logger "emrs-notify-api/src/infrastructure/logger"
	"emrs-notify-api/src/infrastructure/repository/audit"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Repository owns the gorm connection used by the database audit sink
type Repository struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config config.DatabaseConfig
}

func NewRepository(cfg config.DatabaseConfig, loggerInstance *logger.Logger) *Repository {
	return &Repository{
		Config: cfg,
		Logger: loggerInstance,
	}
}

// GetDSN builds the connection string for the configured driver
func GetDSN(c config.DatabaseConfig) string {
	if c.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User,
			c.Password,
			c.Host,
			c.Port,
			c.DBName)
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		sslMode)
}

// Dialector picks the gorm driver for c.Driver
func Dialector(c config.DatabaseConfig) (gorm.Dialector, error) {
	switch c.Driver {
	case "postgres", "":
		return postgres.Open(GetDSN(c)), nil
	case "mysql":
		return mysql.Open(GetDSN(c)), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
}

func (r *Repository) InitDatabase() error {
	dialector, err := Dialector(r.Config)
	if err != nil {
		r.Logger.Error("Invalid database configuration", zap.Error(err))
		return err
	}
	return r.Open(dialector)
}

// Open connects through dialector and migrates the audit table
func (r *Repository) Open(dialector gorm.Dialector) error {
	gormZap := logger.NewGormLogger(r.Logger.Log).
		LogMode(gormlogger.Warn)

	var err error
	r.DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: gormZap,
	})
	if err != nil {
		r.Logger.Error("Error connecting to the database", zap.Error(err), zap.String("driver", r.Config.Driver))
		return err
	}

	if err := r.MigrateEntitiesGORM(); err != nil {
		return err
	}

	r.Logger.Info("Database connection and migrations successful", zap.String("driver", r.Config.Driver))
	return nil
}

func (r *Repository) MigrateEntitiesGORM() error {
	if err := r.DB.AutoMigrate(&audit.NotificationAuditLog{}); err != nil {
		r.Logger.Error("Error migrating database entities", zap.Error(err))
		return err
	}
	r.Logger.Info("Database entities migration completed successfully")
	return nil
}

// InitDB initializes the database connection with logger
func InitDB(cfg config.DatabaseConfig, loggerInstance *logger.Logger) (*gorm.DB, error) {
	repo := NewRepository(cfg, loggerInstance)
	if err := repo.InitDatabase(); err != nil {
		return nil, err
	}
	return repo.DB, nil
}
