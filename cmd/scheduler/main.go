// Job - периодические задачи: снятие холдов, суточная статистика
// -once: один проход всех задач и выход (cron)
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/glkeru/loyalty/futurecash/internal/app"
	config "github.com/glkeru/loyalty/futurecash/internal/config"
	kafka "github.com/glkeru/loyalty/futurecash/internal/external/kafka"
	scheduler "github.com/glkeru/loyalty/futurecash/internal/scheduler"
	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "run all jobs once and exit")
	flag.Parse()
	os.Exit(run(*once))
}

// код выхода; отложенные Close/Sync выполняются до os.Exit
func run(once bool) int {
	// log
	logger, err := app.Init()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	opts := app.Options{}
	events, err := kafka.NewEventWriter()
	if err != nil {
		logger.Error(err.Error())
	} else {
		defer events.Close()
		opts.Events = events
	}

	// services
	a, err := app.NewApp(logger, cfg, opts)
	if err != nil {
		panic(err)
	}
	defer a.Close()

	runner := scheduler.NewRunner(logger, a.Locker, cfg.Jobs.LockTTL)
	runner.Every("process_held_offers", cfg.Sweep.Interval, func(ctx context.Context, now time.Time) error {
		approved, err := a.Offers.ProcessHeldOffers(ctx, now)
		logger.Info("Held offers approved", zap.Int("count", approved))
		return err
	})
	runner.Daily("generate_daily_stats", cfg.Stats.Hour, func(ctx context.Context, now time.Time) error {
		_, err := a.Stats.GenerateDailyStats(ctx, now)
		return err
	})

	if once {
		return runOnce(context.Background(), runner, logger)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt
		cancel()
	}()

	runner.Start(ctx)
	logger.Info("Scheduler is stopped")
	return 0
}

func runOnce(ctx context.Context, runner *scheduler.Runner, logger *zap.Logger) int {
	err := runner.RunAll(ctx)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	return 0
}
