package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Mail      MailConfig      `yaml:"mail"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Site      SiteConfig      `yaml:"site"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   int      `yaml:"port"`
	Host                   string   `yaml:"host"`
	CORSOrigins            []string `yaml:"cors_origins"`
	RequestTimeoutSeconds  int      `yaml:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// RequestTimeout is the per-request deadline for non-broadcast routes.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout bounds graceful shutdown.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	URL              string `yaml:"url"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	MaxIdleConns     int    `yaml:"max_idle_conns"`
	MigrateOnStartup bool   `yaml:"migrate_on_startup"`
}

// RedisConfig holds the optional Redis connection. An empty URL disables
// the visit-notification dedupe window.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// MailConfig selects and configures the outbound mail transport
type MailConfig struct {
	// Transport is "smtp", "ses" or "log".
	Transport  string     `yaml:"transport"`
	From       string     `yaml:"from"`
	FromName   string     `yaml:"from_name"`
	OwnerEmail string     `yaml:"owner_email"`
	SMTP       SMTPConfig `yaml:"smtp"`
	SES        SESConfig  `yaml:"ses"`
}

// SMTPConfig holds SMTP relay settings
type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Security       string `yaml:"security"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the SMTP dial/send timeout.
func (c SMTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES settings
type SESConfig struct {
	Region           string `yaml:"region"`
	AccessKey        string `yaml:"access_key"`
	SecretKey        string `yaml:"secret_key"`
	ConfigurationSet string `yaml:"configuration_set"`
}

// AuthConfig holds bearer-token settings
type AuthConfig struct {
	TokenLifetimeSeconds int `yaml:"token_lifetime_seconds"`
}

// TokenLifetime returns how long an issued credential stays valid.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeSeconds) * time.Second
}

// RateLimitConfig holds per-client limits for public write endpoints
type RateLimitConfig struct {
	Enabled            bool    `yaml:"enabled"`
	RequestsPerSecond  float64 `yaml:"requests_per_second"`
	Burst              int     `yaml:"burst"`
	VisitWindowSeconds int     `yaml:"visit_window_seconds"`
}

// VisitWindow is how long a visit alert for the same client and page is
// suppressed.
func (c RateLimitConfig) VisitWindow() time.Duration {
	return time.Duration(c.VisitWindowSeconds) * time.Second
}

// ArchiveConfig holds the optional S3 archive for rendered broadcasts
type ArchiveConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

// SiteConfig holds the public identity used in outbound mail
type SiteConfig struct {
	Name string `yaml:"name"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on. Defaults to true.
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 30
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 30
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Mail.Transport == "" {
		cfg.Mail.Transport = "log"
	}
	if cfg.Mail.SMTP.Port == 0 {
		cfg.Mail.SMTP.Port = 587
	}
	if cfg.Mail.SMTP.Security == "" {
		cfg.Mail.SMTP.Security = "starttls"
	}
	if cfg.Mail.SMTP.TimeoutSeconds == 0 {
		cfg.Mail.SMTP.TimeoutSeconds = 15
	}
	if cfg.Mail.SES.Region == "" {
		cfg.Mail.SES.Region = "us-west-2"
	}
	if cfg.Auth.TokenLifetimeSeconds == 0 {
		cfg.Auth.TokenLifetimeSeconds = 14 * 24 * 60 * 60
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 5
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 10
	}
	if cfg.RateLimit.VisitWindowSeconds == 0 {
		cfg.RateLimit.VisitWindowSeconds = 600
	}
	if cfg.Archive.S3Prefix == "" {
		cfg.Archive.S3Prefix = "broadcasts"
	}
	if cfg.Site.Name == "" {
		cfg.Site.Name = "Fox"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Mail.Transport, "MAIL_TRANSPORT")
	setString(&cfg.Mail.From, "DEFAULT_FROM_EMAIL")
	setString(&cfg.Mail.OwnerEmail, "ADMIN_EMAIL_NOTIFICATIONS")
	setString(&cfg.Mail.SMTP.Host, "SMTP_HOST")
	setInt(&cfg.Mail.SMTP.Port, "SMTP_PORT")
	setString(&cfg.Mail.SMTP.Username, "SMTP_USERNAME")
	setString(&cfg.Mail.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.Mail.SES.Region, "AWS_SES_REGION")
	setString(&cfg.Mail.SES.AccessKey, "AWS_SES_ACCESS_KEY")
	setString(&cfg.Mail.SES.SecretKey, "AWS_SES_SECRET_KEY")
	setString(&cfg.Archive.S3Bucket, "ARCHIVE_S3_BUCKET")
	setInt(&cfg.Auth.TokenLifetimeSeconds, "TOKEN_EXPIRED_AFTER_SECONDS")
	setInt(&cfg.Server.Port, "PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	// The mail account doubles as the sender when no explicit from is set.
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.SMTP.Username
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
