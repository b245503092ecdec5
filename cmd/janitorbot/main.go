package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"janitorbot/internal/app"
	"janitorbot/internal/config"
	"janitorbot/internal/database"
	"janitorbot/internal/expiry"
	"janitorbot/internal/logger"
	"janitorbot/internal/metrics"
	"janitorbot/internal/ops"
	"janitorbot/internal/snapshot"
	"janitorbot/internal/telegram"
	"janitorbot/internal/telegram/sender"
	"janitorbot/internal/wizard"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("janitorbot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitLogger(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
		Dir:     cfg.Logging.Dir,
		File:    cfg.Logging.File,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bot, err := telegram.NewBot(cfg)
	if err != nil {
		return err
	}

	dispatcher := sender.NewDispatcher(sender.Options{})
	defer dispatcher.Close()

	client := telegram.NewClient(bot, dispatcher)

	store, closeStore, err := buildStore(cfg, client)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()
	sweeper := expiry.NewSweeper(client, cfg.Channels.Admin, m)
	wiz := wizard.NewManager(time.Duration(cfg.Wizard.SessionTTLMinutes) * time.Minute)

	application := app.New(cfg, store, client, sweeper, wiz, m)

	scheduler, err := expiry.Schedule(
		time.Duration(cfg.Sweep.IntervalSeconds)*time.Second,
		application.RunSweep,
	)
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	opsServer := ops.NewServer(ops.Options{
		Listen:     cfg.Ops.Listen,
		Janitor:    application,
		Registrar:  client,
		Token:      cfg.Telegram.Token,
		PublicHost: cfg.Webhook.PublicHost,
		Metrics:    m.Handler(),
	})
	go func() {
		if err := opsServer.Run(ctx); err != nil {
			logger.Ops.Error("ops server failed",
				slog.String("event", "ops.run"),
				slog.String("err", err.Error()),
			)
		}
	}()

	return telegram.Run(ctx, bot, telegram.RunOptions{
		Config:      cfg,
		Middlewares: application.Middlewares(),
		Routes:      application.Routes(),
	})
}

// buildStore selects the snapshot backend: a single-row Postgres table or the
// legacy backup-channel message store.
func buildStore(cfg *config.Config, client *telegram.Client) (snapshot.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := database.RunMigrations(cfg.Database); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return snapshot.NewPostgresStore(db), func() { _ = db.Close() }, nil
	default:
		return snapshot.NewChannelStore(client, cfg.Channels.Backup), func() {}, nil
	}
}
