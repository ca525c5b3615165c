// Job - обработка колбэков провайдеров из Kafka
// Колбэк -> проверка -> начисление / холд / отмена
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	app "github.com/glkeru/loyalty/futurecash/internal/app"
	config "github.com/glkeru/loyalty/futurecash/internal/config"
	kafka "github.com/glkeru/loyalty/futurecash/internal/external/kafka"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	tracing "github.com/glkeru/loyalty/futurecash/observability/otel"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func main() {
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

	shutdown, err := tracing.InitTracer(context.Background(), "futurecash-callbacks", logger)
	if err != nil {
		panic(err)
	}
	defer shutdown()

	// kafka
	reader, err := kafka.NewCallbackReader()
	if err != nil {
		panic(err)
	}
	defer reader.Close()

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

	// start
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt
		cancel()
	}()

	semcount, err := strconv.Atoi(os.Getenv("FUTURECASH_CALLBACK_WORKERS"))
	if err != nil || semcount <= 0 {
		semcount = 5
	}

	// обработка не прерывается сигналом: начатые колбэки доводятся до конца
	work := context.Background()
	tracker := kafka.NewOffsetTracker()
	commit := func(msg kafkago.Message, ok bool) {
		last, ready := tracker.Done(msg, ok)
		if !ready {
			return
		}
		err := reader.Commit(work, last)
		if err != nil {
			logger.Error("Commit offset", zap.Int64("offset", last.Offset), zap.Error(err))
		}
	}

	wg := &sync.WaitGroup{}
	semaphore := make(chan struct{}, semcount)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
			callback, msg, err := reader.FetchCallback(ctx)
			if err != nil {
				if errors.Is(err, model.ErrBadRequest) {
					logger.Error(err.Error(), zap.Int64("offset", msg.Offset))
					tracker.Add(msg)
					commit(msg, true)
					continue
				}
				if ctx.Err() == nil {
					logger.Error(err.Error())
				}
				break loop
			}
			tracker.Add(msg)

			semaphore <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-semaphore }()
				result, err := a.Offers.ProcessCallback(work, callback)
				if !kafka.Settled(err) {
					// сбой хранилища: offset не фиксируется, чтение останавливается,
					// после перезапуска колбэк будет прочитан снова
					logger.Error(err.Error(), zap.String("transaction_id", callback.TransactionID))
					commit(msg, false)
					cancel()
					return
				}
				commit(msg, true)
				if err != nil {
					logger.Warn(err.Error(), zap.String("transaction_id", callback.TransactionID))
					return
				}
				logger.Info("Callback processed",
					zap.String("transaction_id", callback.TransactionID),
					zap.String("result", result.Result),
				)
			}()
		}
	}
	wg.Wait()
}
