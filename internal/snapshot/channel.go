package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"janitorbot/internal/logger"
)

// historyWindow is how many recent backup-channel messages are scanned for a
// snapshot document.
const historyWindow = 10

// ChannelAPI is the slice of the Telegram transport the channel store needs:
// reading recent message texts of a chat (newest first) and posting a text
// message to it.
type ChannelAPI interface {
	History(ctx context.Context, chatID int64, limit int) ([]string, error)
	Post(ctx context.Context, chatID int64, text string) error
}

// ChannelStore persists snapshots as plain messages in a dedicated backup
// channel. The latest snapshot is recovered by scanning the last
// historyWindow messages, oldest first, for the first text starting with "{".
type ChannelStore struct {
	api    ChannelAPI
	chatID int64
}

// NewChannelStore builds a store bound to the given backup channel.
func NewChannelStore(api ChannelAPI, chatID int64) *ChannelStore {
	return &ChannelStore{api: api, chatID: chatID}
}

// Load scans the backup channel for the most recent parsable snapshot.
// Any failure (unreachable channel, no snapshot message, malformed JSON)
// yields an empty snapshot plus the cause; prior state is effectively reset.
func (s *ChannelStore) Load(ctx context.Context) (*Snapshot, error) {
	texts, err := s.api.History(ctx, s.chatID, historyWindow)
	if err != nil {
		logger.Store.Warn("state reset: history unavailable",
			slog.String("event", "load"),
			slog.Int64("chat_id", s.chatID),
			slog.String("err", err.Error()),
		)
		return New(), fmt.Errorf("channel history: %w", err)
	}

	// History arrives newest first; the original writer scanned oldest to
	// newest within the window, so the oldest candidate wins.
	for i := len(texts) - 1; i >= 0; i-- {
		text := strings.TrimSpace(texts[i])
		if !strings.HasPrefix(text, "{") {
			continue
		}
		snap, err := Decode([]byte(text))
		if err != nil {
			logger.Store.Warn("state reset: malformed snapshot",
				slog.String("event", "load"),
				slog.Int64("chat_id", s.chatID),
				slog.String("err", err.Error()),
			)
			return New(), err
		}
		return snap, nil
	}

	logger.Store.Debug("no snapshot message in window",
		slog.String("event", "load"),
		slog.Int64("chat_id", s.chatID),
		slog.Int("window", historyWindow),
	)
	return New(), nil
}

// Save posts the snapshot as a new message to the backup channel.
func (s *ChannelStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.api.Post(ctx, s.chatID, string(data)); err != nil {
		return fmt.Errorf("post snapshot: %w", err)
	}
	return nil
}

// Mutate performs a read-modify-write. The channel backend has no isolation:
// concurrent writers race and the last posted message wins.
func (s *ChannelStore) Mutate(ctx context.Context, fn func(*Snapshot) error) error {
	snap, err := s.Load(ctx)
	if err != nil {
		// Proceed with the empty snapshot; the reset has been logged.
		snap = New()
	}
	if err := fn(snap); err != nil {
		return err
	}
	return s.Save(ctx, snap)
}
