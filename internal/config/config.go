package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

var supportedReminderProviders = map[string]struct{}{
	"log":     {},
	"webhook": {},
	"sns":     {},
	"ses":     {},
}

type Config struct {
	// Empty DSN runs the service on the in-memory store.
	DatabaseDSN string `env:"DATABASE_DSN"`
	RedisURL    string `env:"REDIS_URL"`
	RabbitMQURL string `env:"RABBITMQ_URL"`

	ReminderProvider   string `env:"REMINDER_PROVIDER,default=log"`
	ReminderWebhookURL string `env:"REMINDER_WEBHOOK_URL"`
	ReminderFromEmail  string `env:"REMINDER_FROM_EMAIL"`
	ReminderRatePerSec int    `env:"REMINDER_RATE_PER_SEC,default=20"`
	AWSRegion          string `env:"AWS_REGION,default=eu-west-1"`

	CleanupSchedule      string `env:"CLEANUP_SCHEDULE,default=0 3 * * *"`
	CleanupRetentionDays int    `env:"CLEANUP_RETENTION_DAYS,default=2"`
	CleanupLockTTLSec    int    `env:"CLEANUP_LOCK_TTL_SEC,default=600"`

	StoreTimeoutMS   int    `env:"STORE_TIMEOUT_MS,default=5000"`
	PublishTimeoutMS int    `env:"EVENT_PUBLISH_TIMEOUT_MS,default=3000"`
	ClinicTimezone   string `env:"CLINIC_TIMEZONE,default=UTC"`

	APIPort   int    `env:"API_PORT,default=8080"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ReminderProvider = strings.ToLower(strings.TrimSpace(cfg.ReminderProvider))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, ok := supportedReminderProviders[c.ReminderProvider]; !ok {
		return fmt.Errorf("invalid config: unsupported REMINDER_PROVIDER %q", c.ReminderProvider)
	}
	if c.ReminderProvider == "webhook" && strings.TrimSpace(c.ReminderWebhookURL) == "" {
		return fmt.Errorf("invalid config: REMINDER_WEBHOOK_URL is required for the webhook provider")
	}
	if c.ReminderProvider == "ses" && strings.TrimSpace(c.ReminderFromEmail) == "" {
		return fmt.Errorf("invalid config: REMINDER_FROM_EMAIL is required for the ses provider")
	}
	if c.CleanupRetentionDays < 1 {
		return fmt.Errorf("invalid config: CLEANUP_RETENTION_DAYS must be >= 1, got %d", c.CleanupRetentionDays)
	}
	if c.StoreTimeoutMS < 1 {
		return fmt.Errorf("invalid config: STORE_TIMEOUT_MS must be >= 1, got %d", c.StoreTimeoutMS)
	}
	if c.PublishTimeoutMS < 1 {
		return fmt.Errorf("invalid config: EVENT_PUBLISH_TIMEOUT_MS must be >= 1, got %d", c.PublishTimeoutMS)
	}
	if _, err := cron.ParseStandard(c.CleanupSchedule); err != nil {
		return fmt.Errorf("invalid config: CLEANUP_SCHEDULE %q: %w", c.CleanupSchedule, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(c.ClinicTimezone))
	if err != nil {
		return nil, fmt.Errorf("invalid config: CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	return loc, nil
}

func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.PublishTimeoutMS) * time.Millisecond
}

func (c *Config) CleanupLockTTL() time.Duration {
	return time.Duration(c.CleanupLockTTLSec) * time.Second
}
