package middleware

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"janitorbot/internal/logger"
	"janitorbot/internal/telegram/helpers"
)

// LoggerMiddleware logs a single receipt line per update and seeds the
// correlation context used by downstream handlers and services.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()

		chatID, userID := int64(0), int64(0)
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		helpers.StoreContext(c, ctx)

		attrs := []slog.Attr{
			slog.String("rid", rid),
			slog.Int("update_id", upd.ID),
		}
		if chat != nil {
			attrs = append(attrs,
				slog.Int64("chat_id", chatID),
				slog.String("chat_type", string(chat.Type)),
			)
		}
		if userID != 0 {
			attrs = append(attrs, slog.Int64("user_id", userID))
		}
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
		logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)

		return next(c)
	}
}
