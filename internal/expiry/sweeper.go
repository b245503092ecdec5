// Package expiry implements the timed-removal half of the bot: duration
// tokens, the sweep over tracked users, and its periodic schedule.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"janitorbot/internal/logger"
	"janitorbot/internal/metrics"
	"janitorbot/internal/snapshot"
	"janitorbot/internal/telegram/helpers"
)

// Telegram is the slice of the transport the sweeper needs. Removal is the
// standard kick pattern: ban followed by an only-if-banned unban.
type Telegram interface {
	Ban(ctx context.Context, chatID, userID int64) error
	Unban(ctx context.Context, chatID, userID int64) error
	SendHTML(ctx context.Context, chatID int64, text string) error
}

// Sweeper removes users whose expiry has passed and notifies the admin channel.
type Sweeper struct {
	tg           Telegram
	adminChannel int64
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewSweeper builds a sweeper reporting to the given admin channel.
func NewSweeper(tg Telegram, adminChannel int64, m *metrics.Metrics) *Sweeper {
	return &Sweeper{
		tg:           tg,
		adminChannel: adminChannel,
		metrics:      m,
		now:          time.Now,
	}
}

// Sweep scans every tracked record and removes the expired ones from their
// channels, deleting each record only after the full removal (ban, unban,
// notification) succeeded. Failures are isolated per user: the record stays
// for the next sweep, which the only-if-banned unban tolerates.
//
// It reports how many records were expired at scan time and how many were
// actually removed; the caller persists the snapshot once when expired > 0.
func (s *Sweeper) Sweep(ctx context.Context, snap *snapshot.Snapshot) (expired, removed int) {
	if snap == nil {
		return 0, 0
	}
	now := snapshot.TimeToMillis(s.now())
	runID := uuid.NewString()

	failed := 0
	for uid, rec := range snap.Users {
		if rec.Expiry > now {
			continue
		}
		expired++

		if err := s.remove(ctx, uid, rec); err != nil {
			failed++
			logger.Sweep.Warn("removal failed",
				slog.String("event", "sweep.remove"),
				slog.String("run_id", runID),
				slog.String("user_id", uid),
				slog.Int64("channel_id", rec.ChannelID),
				slog.String("err", err.Error()),
			)
			continue
		}

		delete(snap.Users, uid)
		removed++
		logger.Sweep.Info("user removed",
			slog.String("event", "sweep.remove"),
			slog.String("run_id", runID),
			slog.String("user_id", uid),
			slog.Int64("channel_id", rec.ChannelID),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordSweep(removed, failed)
		s.metrics.SetTrackedUsers(len(snap.Users))
	}
	if expired > 0 {
		logger.Sweep.Info("sweep done",
			slog.String("event", "sweep.done"),
			slog.String("run_id", runID),
			slog.Int("expired", expired),
			slog.Int("removed", removed),
			slog.Int("failed", failed),
			slog.Int("tracked", len(snap.Users)),
		)
	}
	return expired, removed
}

func (s *Sweeper) remove(ctx context.Context, uid string, rec snapshot.Record) error {
	userID, err := strconv.ParseInt(uid, 10, 64)
	if err != nil {
		return fmt.Errorf("bad user id %q: %w", uid, err)
	}
	if err := s.tg.Ban(ctx, rec.ChannelID, userID); err != nil {
		return fmt.Errorf("ban: %w", err)
	}
	if err := s.tg.Unban(ctx, rec.ChannelID, userID); err != nil {
		return fmt.Errorf("unban: %w", err)
	}
	text := fmt.Sprintf("%s <b>removed</b> (time expired)\n<code>User ID: %s</code>",
		helpers.Mention(userID, "User"), uid)
	if err := s.tg.SendHTML(ctx, s.adminChannel, text); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
