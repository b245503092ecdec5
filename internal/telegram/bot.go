// Package telegram wires the telebot transport: bot construction, pollers,
// the tuned HTTP client, and the typed client used by the domain packages.
package telegram

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"janitorbot/internal/config"
)

// NewBot constructs a telebot instance from configuration, selecting webhook
// or long-poll delivery and the retrying HTTP client.
func NewBot(cfg *config.Config) (*tele.Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(),
	}

	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}
