package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.AdminID = 1000
	cfg.Channels.Backup = -1001
	cfg.Channels.Admin = -1002
	cfg.Channels.File = -1003
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, StoreChannel, cfg.Store.Backend)
	assert.Equal(t, 30, cfg.Wizard.SessionTTLMinutes)
	assert.Equal(t, ":8090", cfg.Ops.Listen)
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "webhook"
	assert.Error(t, Normalize(cfg))

	cfg.Webhook.URL = "https://bot.example.com/hook"
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	assert.NoError(t, Normalize(cfg))
}

func TestNormalizeRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"missing admin id", func(c *Config) { c.Telegram.AdminID = 0 }},
		{"missing admin channel", func(c *Config) { c.Channels.Admin = 0 }},
		{"missing file channel", func(c *Config) { c.Channels.File = 0 }},
		{"missing backup channel for channel store", func(c *Config) { c.Channels.Backup = 0 }},
		{"bad run mode", func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" }},
		{"bad store backend", func(c *Config) { c.Store.Backend = "tape" }},
		{"negative sweep interval", func(c *Config) { c.Sweep.IntervalSeconds = -1 }},
		{"negative wizard ttl", func(c *Config) { c.Wizard.SessionTTLMinutes = -1 }},
		{"negative rate limit", func(c *Config) { c.RateLimit.IntervalMS = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNormalizePostgresBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Backend = "postgres"
	assert.Error(t, Normalize(cfg), "postgres backend requires database settings")

	cfg.Database.Host = "localhost"
	cfg.Database.Name = "janitor"
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, StorePostgres, cfg.Store.Backend)

	// Backup channel is not required for the postgres backend.
	cfg2 := validConfig()
	cfg2.Channels.Backup = 0
	cfg2.Store.Backend = "postgres"
	cfg2.Database.Host = "localhost"
	cfg2.Database.Name = "janitor"
	assert.NoError(t, Normalize(cfg2))
}

func TestNormalizeNil(t *testing.T) {
	assert.Error(t, Normalize(nil))
}
