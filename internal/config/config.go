// Package config loads settings for the server and the CLI.
//
// Values are layered: defaults, then an optional YAML file, then a .env
// file, then PARTY_* environment variables. A later layer only overrides
// the keys it sets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PARTY"

// MinSecretLength is the shortest accepted JWT signing secret.
const MinSecretLength = 32

// Config is the merged configuration.
type Config struct {
	Env      string `yaml:"env" split_words:"true"`
	LogLevel string `yaml:"log_level" split_words:"true"`

	// Server
	Listen            string        `yaml:"listen" split_words:"true"`
	DBPath            string        `yaml:"db_path" split_words:"true"`
	Timezone          string        `yaml:"timezone" split_words:"true"`
	JWTSecret         string        `yaml:"jwt_secret" split_words:"true"`
	TokenTTL          time.Duration `yaml:"token_ttl" split_words:"true"`
	AdminEmail        string        `yaml:"admin_email" split_words:"true"`
	AdminPasswordHash string        `yaml:"admin_password_hash" split_words:"true"`
	RateLimit         int           `yaml:"rate_limit" split_words:"true"`
	SlowQueryMs       int           `yaml:"slow_query_ms" split_words:"true"`
	SlowRequestMs     int           `yaml:"slow_request_ms" split_words:"true"`

	// Email
	ResendKey string `yaml:"resend_key" split_words:"true"`
	EmailFrom string `yaml:"email_from" split_words:"true"`
	ReplyTo   string `yaml:"reply_to" split_words:"true"`

	// Broker (RabbitMQ); an empty URL disables publishing
	BrokerURL      string `yaml:"broker_url" split_words:"true"`
	BrokerExchange string `yaml:"broker_exchange" split_words:"true"`

	// ReminderCron is the schedule of the reminder job; empty disables it.
	ReminderCron string `yaml:"reminder_cron" split_words:"true"`
	// OutboxRetryCron drains failed emails and publishes; empty disables it.
	OutboxRetryCron string `yaml:"outbox_retry_cron" split_words:"true"`

	// Client
	APIBaseURL     string        `yaml:"api_base_url" split_words:"true"`
	APIToken       string        `yaml:"api_token" split_words:"true"`
	RequestTimeout time.Duration `yaml:"request_timeout" split_words:"true"`
	ReadRetries    int           `yaml:"read_retries" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env:             "development",
		LogLevel:        "info",
		Listen:          "127.0.0.1:8080",
		DBPath:          "partyplanner.db",
		Timezone:        "America/Sao_Paulo",
		TokenTTL:        12 * time.Hour,
		RateLimit:       20,
		SlowQueryMs:     100,
		SlowRequestMs:   500,
		EmailFrom:       "Festas <noreply@example.com>",
		BrokerExchange:  "partyplanner.bookings",
		ReminderCron:    "0 9 * * *",
		OutboxRetryCron: "@every 5m",
		APIBaseURL:      "http://127.0.0.1:8080",
		RequestTimeout:  10 * time.Second,
		ReadRetries:     2,
	}
}

// Load merges the layers. Either path may be empty; a missing file is skipped.
// PRE: none
// POST: returns the merged config, or the first read or parse error
func Load(yamlPath, envPath string) (*Config, error) {
	cfg := Default()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("config_event", "event", "yaml_missing", "path", yamlPath)
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", yamlPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
			}
		}
	}

	if envPath != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsProduction reports whether Env is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ValidateServer checks the keys the store API cannot start without.
func (c *Config) ValidateServer() error {
	var errs []error
	if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("%s_JWT_SECRET must be at least %d bytes", EnvPrefix, MinSecretLength))
	}
	if c.AdminEmail == "" || c.AdminPasswordHash == "" {
		errs = append(errs, fmt.Errorf("%s_ADMIN_EMAIL and %s_ADMIN_PASSWORD_HASH are required", EnvPrefix, EnvPrefix))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token TTL must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
