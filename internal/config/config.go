package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"janitorbot/internal/database"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// PublicHost is the externally visible host used by the /setwebhook
	// ops endpoint to build the registration URL.
	PublicHost string `yaml:"public_host" envconfig:"WEBHOOK_PUBLIC_HOST"`
}

// ChannelsConfig identifies the fixed channels the bot operates on.
type ChannelsConfig struct {
	// Backup receives JSON snapshot messages when the channel store is active.
	Backup int64 `yaml:"backup" envconfig:"BACKUP_CHANNEL_ID"`
	// Admin receives removal notifications.
	Admin int64 `yaml:"admin" envconfig:"ADMIN_CHANNEL_ID"`
	// File is the channel whose document captions are cleaned.
	File int64 `yaml:"file" envconfig:"FILE_CHANNEL_ID"`
}

// StoreConfig selects the snapshot persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend" envconfig:"STORE_BACKEND"`
}

const (
	// StoreChannel persists snapshots as messages in the backup channel.
	StoreChannel = "channel"
	// StorePostgres persists snapshots in a single-row Postgres table.
	StorePostgres = "postgres"
)

// SweepConfig controls the periodic expiry sweep.
type SweepConfig struct {
	// IntervalSeconds between scheduled sweeps; 0 disables the scheduler
	// (the /cron endpoint keeps working regardless).
	IntervalSeconds int `yaml:"interval_seconds" envconfig:"SWEEP_INTERVAL_SECONDS"`
}

// WizardConfig controls conversation sessions of the admin wizard.
type WizardConfig struct {
	// SessionTTLMinutes after which an abandoned conversation resets.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" envconfig:"WIZARD_SESSION_TTL_MINUTES"`
}

// OpsConfig configures the operational HTTP server.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Profile string `yaml:"profile"`
	Dir     string `yaml:"dir"`
	File    string `yaml:"file"`
}

// RateLimitConfig holds settings for per-user rate limiting; zero disables it.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Config aggregates the full application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Store     StoreConfig     `yaml:"store"`
	Database  database.Config `yaml:"database"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Wizard    WizardConfig    `yaml:"wizard"`
	Ops       OpsConfig       `yaml:"ops"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.AdminID == 0 {
		return fmt.Errorf("telegram.admin_id is required")
	}
	if cfg.Channels.Admin == 0 {
		return fmt.Errorf("channels.admin is required")
	}
	if cfg.Channels.File == 0 {
		return fmt.Errorf("channels.file is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if backend == "" {
		backend = StoreChannel
	}
	switch backend {
	case StoreChannel:
		if cfg.Channels.Backup == 0 {
			return fmt.Errorf("channels.backup is required when store.backend is 'channel'")
		}
	case StorePostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required when store.backend is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid store.backend %q; allowed: channel, postgres", cfg.Store.Backend)
	}
	cfg.Store.Backend = backend

	if cfg.Sweep.IntervalSeconds < 0 {
		return fmt.Errorf("sweep.interval_seconds must be >= 0")
	}
	if cfg.Wizard.SessionTTLMinutes < 0 {
		return fmt.Errorf("wizard.session_ttl_minutes must be >= 0")
	}
	if cfg.Wizard.SessionTTLMinutes == 0 {
		cfg.Wizard.SessionTTLMinutes = 30
	}
	if strings.TrimSpace(cfg.Ops.Listen) == "" {
		cfg.Ops.Listen = ":8090"
	}
	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	return nil
}
