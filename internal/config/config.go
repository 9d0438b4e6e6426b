// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"golang.org/x/text/currency"
)

// Section policies decide which section a new expense is filed under.
const (
	SectionPolicyFirst    = "first"
	SectionPolicyCategory = "category"
	SectionPolicyFixed    = "fixed"
)

var (
	sectionPolicies = []string{SectionPolicyFirst, SectionPolicyCategory, SectionPolicyFixed}
	otelExporters   = []string{"none", "stdout", "otlp"}
	otlpProtocols   = []string{"grpc", "http"}
	logFormats      = []string{"console", "json"}
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	AutoMigrate      bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"console"`
	LogHashSalt string `envconfig:"LOG_HASH_SALT"`

	Currency string `envconfig:"CURRENCY" default:"KZT"`
	Timezone string `envconfig:"TIMEZONE" default:"Asia/Almaty"`
	SiteURL  string `envconfig:"SITE_URL"`

	ConversationTTL time.Duration `envconfig:"CONVERSATION_TTL" default:"15m"`
	BotWorkers      int           `envconfig:"BOT_WORKERS" default:"4"`
	PollTimeout     time.Duration `envconfig:"POLL_TIMEOUT" default:"1m"`

	SectionPolicy    string `envconfig:"SECTION_POLICY" default:"first"`
	DefaultSectionID int64  `envconfig:"DEFAULT_SECTION_ID"`

	OTelExporter string `envconfig:"OTEL_EXPORTER" default:"none"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPProtocol string `envconfig:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"grpc"`
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"tengecash-bot"`

	// Location is resolved from Timezone during Load.
	Location *time.Location `ignored:"true"`
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present and well-formed.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.LogHashSalt) < logger.MinHashSaltLength {
		errs = append(errs, fmt.Sprintf("LOG_HASH_SALT must be at least %d characters", logger.MinHashSaltLength))
	}

	if _, err := currency.ParseISO(c.Currency); err != nil {
		errs = append(errs, fmt.Sprintf("CURRENCY %q is not an ISO 4217 code", c.Currency))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("TIMEZONE %q is invalid", c.Timezone))
	} else {
		c.Location = loc
	}

	if c.ConversationTTL <= 0 {
		errs = append(errs, "CONVERSATION_TTL must be positive")
	}

	if c.BotWorkers < 1 {
		errs = append(errs, "BOT_WORKERS must be at least 1")
	}

	if !slices.Contains(logFormats, c.LogFormat) {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be one of %s", strings.Join(logFormats, ", ")))
	}

	if !slices.Contains(sectionPolicies, c.SectionPolicy) {
		errs = append(errs, fmt.Sprintf("SECTION_POLICY must be one of %s", strings.Join(sectionPolicies, ", ")))
	} else if c.SectionPolicy == SectionPolicyFixed && c.DefaultSectionID <= 0 {
		errs = append(errs, "DEFAULT_SECTION_ID is required when SECTION_POLICY=fixed")
	}

	if !slices.Contains(otelExporters, c.OTelExporter) {
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER must be one of %s", strings.Join(otelExporters, ", ")))
	}

	if !slices.Contains(otlpProtocols, c.OTLPProtocol) {
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER_OTLP_PROTOCOL must be one of %s", strings.Join(otlpProtocols, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
