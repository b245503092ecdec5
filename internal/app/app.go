// Package app wires the update dispatcher: it classifies incoming messages
// and drives the caption cleaner, group auto-replies, the admin wizard, and
// the expiry sweep against the snapshot store.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"janitorbot/internal/autoreply"
	"janitorbot/internal/caption"
	"janitorbot/internal/config"
	"janitorbot/internal/expiry"
	"janitorbot/internal/logger"
	"janitorbot/internal/metrics"
	"janitorbot/internal/snapshot"
	"janitorbot/internal/telegram"
	"janitorbot/internal/telegram/helpers"
	"janitorbot/internal/telegram/middleware"
	"janitorbot/internal/wizard"
)

const setReplyCommand = autoreply.Command

// Transport is the slice of the Telegram client the dispatcher itself uses.
// Both calls are fire-and-forget; delivery failures are logged and dropped.
type Transport interface {
	CopyAsync(ctx context.Context, chatID int64, messageID, replyTo int)
	EditCaptionAsync(ctx context.Context, chatID int64, messageID int, caption string)
}

// App is the assembled bot application.
type App struct {
	cfg     *config.Config
	store   snapshot.Store
	tg      Transport
	sweeper *expiry.Sweeper
	wizard  *wizard.Manager
	metrics *metrics.Metrics
}

// New assembles the application from its parts.
func New(cfg *config.Config, store snapshot.Store, tg Transport, sweeper *expiry.Sweeper, wiz *wizard.Manager, m *metrics.Metrics) *App {
	return &App{
		cfg:     cfg,
		store:   store,
		tg:      tg,
		sweeper: sweeper,
		wizard:  wiz,
		metrics: m,
	}
}

// Middlewares returns the global middleware chain in registration order.
func (a *App) Middlewares() []telegram.Middleware {
	mws := []telegram.Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logging", Use: middleware.LoggerMiddleware},
	}
	if a.cfg.RateLimit.IntervalMS > 0 {
		mws = append(mws, telegram.Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval: time.Duration(a.cfg.RateLimit.IntervalMS) * time.Millisecond,
			}),
		})
	}
	return mws
}

// Routes binds every message-shaped endpoint to the dispatcher. Telebot
// delivers each update to exactly one endpoint, so a single handler behind
// all of them keeps the ordered dispatch in one place.
func (a *App) Routes() []telegram.Route {
	return []telegram.Route{
		{Endpoint: tele.OnText, Handler: a.HandleMessage},
		{Endpoint: tele.OnDocument, Handler: a.HandleMessage},
		{Endpoint: tele.OnMedia, Handler: a.HandleMessage},
		{Endpoint: tele.OnChannelPost, Handler: a.HandleMessage},
	}
}

// HandleMessage routes one incoming message by ordered conditions and runs
// the matched handler. Handler errors are logged here; nothing is surfaced
// back to Telegram.
func (a *App) HandleMessage(c tele.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}

	meta := metaFrom(c, msg)
	route := Classify(meta, a.cfg.Telegram.AdminID, a.cfg.Channels.File)
	ctx := helpers.WithHandler(c, string(route))

	var err error
	switch route {
	case RouteCaption:
		a.handleCaption(ctx, msg)
	case RouteSetReply:
		err = a.handleSetReply(ctx, c, msg)
	case RouteGroupReply:
		a.handleGroupReply(ctx, msg)
	case RouteWizard:
		err = a.handleWizard(ctx, c, msg)
	case RouteIgnore, RouteNone:
	}

	if a.metrics != nil {
		a.metrics.RecordUpdate(string(route), logger.Status(err))
	}
	if err != nil {
		logger.Warn(ctx, "app", "handler.fail",
			slog.String("route", string(route)),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

func (a *App) recordSnapshotOp(op string, err error) {
	if a.metrics != nil {
		a.metrics.RecordSnapshotOp(op, logger.Status(err))
	}
}

func metaFrom(c tele.Context, msg *tele.Message) Meta {
	meta := Meta{
		IsReply:  msg.ReplyTo != nil,
		Document: msg.Document != nil,
		Caption:  msg.Caption,
		Text:     msg.Text,
	}
	if chat := c.Chat(); chat != nil {
		meta.ChatID = chat.ID
		meta.ChatType = string(chat.Type)
	}
	if sender := c.Sender(); sender != nil {
		meta.SenderID = sender.ID
	}
	return meta
}

// handleCaption strips bracketed spans and @handles from a file-channel
// document caption and edits it in place when the text changed.
func (a *App) handleCaption(ctx context.Context, msg *tele.Message) {
	cleaned := caption.Clean(msg.Caption)
	if cleaned == msg.Caption {
		return
	}
	a.tg.EditCaptionAsync(ctx, msg.Chat.ID, msg.ID, cleaned)
	if a.metrics != nil {
		a.metrics.CaptionsCleaned.Inc()
	}
	logger.Debug(ctx, "app", "caption.cleaned",
		slog.Int("message_id", msg.ID),
	)
}

// handleSetReply records the replied-to message as the group's auto-reply
// pointer and confirms to the admin.
func (a *App) handleSetReply(ctx context.Context, c tele.Context, msg *tele.Message) error {
	chatID := msg.Chat.ID
	target := msg.ReplyTo.ID

	err := a.store.Mutate(ctx, func(s *snapshot.Snapshot) error {
		autoreply.Set(s, chatID, target)
		return nil
	})
	a.recordSnapshotOp("mutate", err)
	if err != nil {
		return fmt.Errorf("store auto-reply pointer: %w", err)
	}

	logger.Info(ctx, "app", "autoreply.set",
		slog.Int64("chat_id", chatID),
		slog.Int("message_id", target),
	)
	return helpers.ReplyHTML(c, "<b>Auto-reply set!</b> This message will now answer every reply in this group.")
}

// handleGroupReply copies the group's stored auto-reply message, if one is
// set, as an answer to the incoming reply.
func (a *App) handleGroupReply(ctx context.Context, msg *tele.Message) {
	snap, err := a.store.Load(ctx)
	a.recordSnapshotOp("load", err)
	if err != nil {
		logger.Warn(ctx, "app", "state.reset",
			slog.String("err", err.Error()),
		)
	}
	pointer, ok := autoreply.Lookup(snap, msg.Chat.ID)
	if !ok {
		return
	}
	a.tg.CopyAsync(ctx, msg.Chat.ID, pointer, msg.ID)
	if a.metrics != nil {
		a.metrics.AutoRepliesTotal.Inc()
	}
}

// handleWizard feeds a private admin message into the conversation wizard
// and, on completion, writes the new expiry record and sweeps immediately so
// a trivially short duration fires right away.
func (a *App) handleWizard(ctx context.Context, c tele.Context, msg *tele.Message) error {
	chatID := msg.Chat.ID

	switch msg.Text {
	case "/cancel":
		a.wizard.Clear(chatID)
		return helpers.ReplyHTML(c, "<b>Cancelled.</b>")
	case "/status":
		return a.replyStatus(ctx, c)
	}

	res := a.wizard.Advance(chatID, msg.Text)
	if res.Record != nil {
		if err := a.addRecord(ctx, res.Record); err != nil {
			return err
		}
		if _, err := a.RunSweep(ctx); err != nil {
			logger.Warn(ctx, "app", "sweep.after_add",
				slog.String("err", err.Error()),
			)
		}
	}
	return helpers.ReplyHTML(c, res.Reply)
}

func (a *App) addRecord(ctx context.Context, p *wizard.Pending) error {
	now := time.Now().UTC()
	rec := snapshot.Record{
		Expiry:    snapshot.TimeToMillis(now.Add(p.Duration)),
		ChannelID: p.ChannelID,
		AddedAt:   now.Format(time.RFC3339),
	}
	err := a.store.Mutate(ctx, func(s *snapshot.Snapshot) error {
		s.Users[strconv.FormatInt(p.UserID, 10)] = rec
		return nil
	})
	a.recordSnapshotOp("mutate", err)
	if err != nil {
		return fmt.Errorf("store expiry record: %w", err)
	}
	logger.Info(ctx, "app", "record.added",
		slog.Int64("user_id", p.UserID),
		slog.Int64("channel_id", p.ChannelID),
		slog.Time("expiry", rec.Expiry.Time()),
	)
	return nil
}

func (a *App) replyStatus(ctx context.Context, c tele.Context) error {
	snap, err := a.store.Load(ctx)
	if err != nil {
		logger.Warn(ctx, "app", "state.reset",
			slog.String("err", err.Error()),
		)
	}
	text := fmt.Sprintf("<b>Tracked users:</b> %d\n<b>Auto-reply groups:</b> %d",
		len(snap.Users), len(snap.AutoReplies))
	return helpers.ReplyHTML(c, text)
}

// RunSweep loads the snapshot, removes every expired user, and persists the
// result once when anything was expired at scan time. It is shared by the
// periodic schedule, the /cron endpoint, and wizard completion.
func (a *App) RunSweep(ctx context.Context) (int, error) {
	snap, err := a.store.Load(ctx)
	a.recordSnapshotOp("load", err)
	if err != nil {
		logger.Warn(ctx, "app", "state.reset",
			slog.String("err", err.Error()),
		)
	}

	expired, removed := a.sweeper.Sweep(ctx, snap)
	if expired == 0 {
		return 0, nil
	}
	err = a.store.Save(ctx, snap)
	a.recordSnapshotOp("save", err)
	if err != nil {
		return removed, fmt.Errorf("persist after sweep: %w", err)
	}
	return removed, nil
}
