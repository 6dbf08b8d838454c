package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the service reads at start-up
type Config struct {
	Server   ServerConfig   `mapstructure:",squash"`
	Database DatabaseConfig `mapstructure:",squash"`
	Audit    AuditConfig    `mapstructure:",squash"`
	SMTP     SMTPConfig     `mapstructure:",squash"`
	Gmail    GmailConfig    `mapstructure:",squash"`
	SMS      SMSConfig      `mapstructure:",squash"`
	Template TemplateConfig `mapstructure:",squash"`
	Auth     AuthConfig     `mapstructure:",squash"`
}

type ServerConfig struct {
	Env      string `mapstructure:"GO_ENV"`
	Port     string `mapstructure:"SERVER_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// DatabaseConfig is used when AUDIT_SINK=database
type DatabaseConfig struct {
	Driver   string `mapstructure:"DB_DRIVER"`
	Host     string `mapstructure:"DB_HOST"`
	Port     string `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

type AuditConfig struct {
	Sink           string `mapstructure:"AUDIT_SINK"`
	SupabaseURL    string `mapstructure:"SUPABASE_URL"`
	SupabaseKey    string `mapstructure:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseTable  string `mapstructure:"SUPABASE_AUDIT_TABLE"`
	RequestTimeout int    `mapstructure:"AUDIT_TIMEOUT_MS"`
}

// SMTPConfig configures the generic bulk email relay
type SMTPConfig struct {
	Host       string `mapstructure:"SMTP_HOST"`
	Port       int    `mapstructure:"SMTP_PORT"`
	User       string `mapstructure:"SMTP_USER"`
	Password   string `mapstructure:"SMTP_PASSWORD"`
	From       string `mapstructure:"SMTP_FROM"`
	FromName   string `mapstructure:"SMTP_FROM_NAME"`
	IntervalMS int    `mapstructure:"EMAIL_SEND_INTERVAL_MS"`
	DryRun     bool   `mapstructure:"EMAIL_DRY_RUN"`
}

// GmailConfig configures the Gmail SMTP relay. Credentials may be empty: the
// endpoint then fails every call instead of refusing to start.
type GmailConfig struct {
	User        string `mapstructure:"GMAIL_USER"`
	AppPassword string `mapstructure:"GMAIL_APP_PASSWORD"`
	FromName    string `mapstructure:"GMAIL_FROM_NAME"`
	IntervalMS  int    `mapstructure:"GMAIL_SEND_INTERVAL_MS"`
}

type SMSConfig struct {
	TwilioBaseURL string `mapstructure:"TWILIO_API_BASE_URL"`
	IntervalMS    int    `mapstructure:"SMS_SEND_INTERVAL_MS"`
	TimeoutMS     int    `mapstructure:"SMS_TIMEOUT_MS"`
}

type TemplateConfig struct {
	SchoolName string `mapstructure:"SCHOOL_NAME"`
}

// AuthConfig enables bearer token checks when JWTSecret is set
type AuthConfig struct {
	JWTSecret string `mapstructure:"SUPABASE_JWT_SECRET"`
}

var defaults = map[string]any{
	"GO_ENV":      "development",
	"SERVER_PORT": "8080",
	"LOG_LEVEL":   "info",

	"DB_DRIVER":   "postgres",
	"DB_HOST":     "",
	"DB_PORT":     "",
	"DB_USER":     "",
	"DB_PASSWORD": "",
	"DB_NAME":     "",
	"DB_SSLMODE":  "disable",

	"AUDIT_SINK":                "log",
	"SUPABASE_URL":              "",
	"SUPABASE_SERVICE_ROLE_KEY": "",
	"SUPABASE_AUDIT_TABLE":      "notification_logs",
	"AUDIT_TIMEOUT_MS":          5000,

	"SMTP_HOST":              "",
	"SMTP_PORT":              587,
	"SMTP_USER":              "",
	"SMTP_PASSWORD":          "",
	"SMTP_FROM":              "",
	"SMTP_FROM_NAME":         "EMRS Dornala",
	"EMAIL_SEND_INTERVAL_MS": 100,
	"EMAIL_DRY_RUN":          false,

	"GMAIL_USER":             "",
	"GMAIL_APP_PASSWORD":     "",
	"GMAIL_FROM_NAME":        "EMRS Dornala",
	"GMAIL_SEND_INTERVAL_MS": 1000,

	"TWILIO_API_BASE_URL":  "https://api.twilio.com",
	"SMS_SEND_INTERVAL_MS": 500,
	"SMS_TIMEOUT_MS":       10000,

	"SCHOOL_NAME": "EMRS Dornala",

	"SUPABASE_JWT_SECRET": "",
}

// Load reads defaults, then configs/config.yaml if present, then the environment
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default
func (c *Config) Validate() error {
	var problems []string

	switch c.Audit.Sink {
	case "log", "none":
	case "database":
		problems = append(problems, c.Database.missing()...)
		if c.Database.Driver != "postgres" && c.Database.Driver != "mysql" {
			problems = append(problems, fmt.Sprintf("DB_DRIVER must be postgres or mysql, got %q", c.Database.Driver))
		}
	case "supabase":
		if c.Audit.SupabaseURL == "" {
			problems = append(problems, "SUPABASE_URL is required for AUDIT_SINK=supabase")
		}
		if c.Audit.SupabaseKey == "" {
			problems = append(problems, "SUPABASE_SERVICE_ROLE_KEY is required for AUDIT_SINK=supabase")
		}
	default:
		problems = append(problems, fmt.Sprintf("AUDIT_SINK must be one of log, none, database, supabase, got %q", c.Audit.Sink))
	}

	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("SMTP_PORT out of range: %d", c.SMTP.Port))
	}
	if c.SMTP.IntervalMS < 0 || c.Gmail.IntervalMS < 0 || c.SMS.IntervalMS < 0 {
		problems = append(problems, "send intervals must be >= 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (d DatabaseConfig) missing() []string {
	var missing []string
	required := map[string]string{
		"DB_HOST":     d.Host,
		"DB_PORT":     d.Port,
		"DB_USER":     d.User,
		"DB_PASSWORD": d.Password,
		"DB_NAME":     d.DBName,
	}
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, "missing "+key)
		}
	}
	return missing
}

// IsDevelopment reports whether GO_ENV selects the development logger and gin debug mode
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func (s SMTPConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}

func (g GmailConfig) Interval() time.Duration {
	return time.Duration(g.IntervalMS) * time.Millisecond
}

func (s SMSConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}

func (s SMSConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

func (a AuditConfig) Timeout() time.Duration {
	return time.Duration(a.RequestTimeout) * time.Millisecond
}
