package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"janitorbot/internal/logger"
	"janitorbot/internal/telegram/netutil"
	"janitorbot/internal/telegram/sender"
)

// Client is the typed surface of the Telegram transport used by the domain
// packages. Calls that drive control flow (ban, unban, notifications) run
// synchronously; fire-and-forget calls go through the async dispatcher.
type Client struct {
	bot  *tele.Bot
	disp *sender.Dispatcher
}

// NewClient wraps a bot with an optional outbound dispatcher.
func NewClient(bot *tele.Bot, disp *sender.Dispatcher) *Client {
	return &Client{bot: bot, disp: disp}
}

// Ban bans the user in the given chat.
func (c *Client) Ban(_ context.Context, chatID, userID int64) error {
	return c.bot.Ban(&tele.Chat{ID: chatID}, &tele.ChatMember{User: &tele.User{ID: userID}})
}

// Unban lifts the ban only if the user is actually banned, so repeated
// removal attempts for the same record are harmless.
func (c *Client) Unban(_ context.Context, chatID, userID int64) error {
	return c.bot.Unban(&tele.Chat{ID: chatID}, &tele.User{ID: userID}, true)
}

// SendHTML sends an HTML-formatted message to the chat.
func (c *Client) SendHTML(_ context.Context, chatID int64, text string) error {
	_, err := c.bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{ParseMode: tele.ModeHTML})
	return err
}

// Post sends a plain text message (no parse mode) to the chat. The snapshot
// store uses it to publish JSON documents verbatim.
func (c *Client) Post(_ context.Context, chatID int64, text string) error {
	_, err := c.bot.Send(tele.ChatID(chatID), text)
	return err
}

// History returns the texts of the most recent messages in a chat, newest
// first. getChatHistory is not part of the stock Bot API; the bot has to run
// against a tdlib-backed gateway for the channel snapshot store to work.
func (c *Client) History(_ context.Context, chatID int64, limit int) ([]string, error) {
	data, err := c.bot.Raw("getChatHistory", map[string]any{
		"chat_id": chatID,
		"limit":   limit,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result struct {
			Messages []struct {
				Text string `json:"text"`
			} `json:"messages"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}

	texts := make([]string, 0, len(resp.Result.Messages))
	for _, m := range resp.Result.Messages {
		texts = append(texts, m.Text)
	}
	return texts, nil
}

// CopyAsync copies a stored message of the chat as a reply to replyTo.
// The call is queued; failures are logged with their kind and dropped.
func (c *Client) CopyAsync(ctx context.Context, chatID int64, messageID, replyTo int) {
	c.enqueue(ctx, "autoreply.copy", "copyMessage", func() error {
		_, err := c.bot.Copy(
			tele.ChatID(chatID),
			&tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID},
			&tele.SendOptions{ReplyTo: &tele.Message{ID: replyTo, Chat: &tele.Chat{ID: chatID}}},
		)
		return err
	})
}

// EditCaptionAsync rewrites the caption of a message in place. The call is
// queued; failures are logged with their kind and dropped.
func (c *Client) EditCaptionAsync(ctx context.Context, chatID int64, messageID int, caption string) {
	c.enqueue(ctx, "caption.edit", "editMessageCaption", func() error {
		_, err := c.bot.EditCaption(
			&tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID},
			caption,
		)
		return err
	})
}

// SetWebhook registers the webhook URL with the Bot API.
func (c *Client) SetWebhook(_ context.Context, url string) error {
	_, err := c.bot.Raw("setWebhook", map[string]any{"url": url})
	return err
}

func (c *Client) enqueue(ctx context.Context, action, endpoint string, run func() error) {
	if c.disp == nil {
		c.runLogged(ctx, action, run)
		return
	}
	err := c.disp.Enqueue(ctx, action, endpoint, run)
	if err == nil {
		return
	}
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		c.runLogged(ctx, action, run)
	}
}

func (c *Client) runLogged(ctx context.Context, action string, run func() error) {
	if err := run(); err != nil {
		logger.Warn(ctx, "tg", action+".fail",
			slog.String("err", netutil.SanitizeError(err)),
			slog.String("err_kind", netutil.Classify(err)),
		)
	}
}
