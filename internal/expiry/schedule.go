package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"janitorbot/internal/logger"
)

// Schedule runs the given sweep function on a fixed interval. A non-positive
// interval disables scheduling and returns a nil scheduler.
func Schedule(interval time.Duration, sweep func(context.Context) (int, error)) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, nil
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := sweep(ctx); err != nil {
				logger.Sweep.Error("scheduled sweep failed",
					slog.String("event", "sweep.schedule"),
					slog.String("err", err.Error()),
				)
			}
		}),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	logger.Sweep.Info("sweep scheduled",
		slog.String("event", "sweep.schedule"),
		slog.Duration("interval", interval),
	)
	return s, nil
}
