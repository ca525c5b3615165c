// Job - статусы заявок на вывод от платёжного исполнителя (RabbitMQ)
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
	rabbit "github.com/glkeru/loyalty/futurecash/internal/external/rabbitmq"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	services "github.com/glkeru/loyalty/futurecash/internal/services"
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

	semcount, err := strconv.Atoi(os.Getenv("FUTURECASH_REDEMPTION_WORKERS"))
	if err != nil || semcount <= 0 {
		semcount = 5
	}

	// rabbitmq
	reader, err := rabbit.NewRabbitConsumer(semcount)
	if err != nil {
		logger.Error(err.Error())
		panic(err)
	}
	defer reader.Close()

	// services
	a, err := app.NewApp(logger, cfg, app.Options{})
	if err != nil {
		logger.Error(err.Error())
		panic(err)
	}
	defer a.Close()

	// start
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// os signals
	go func() {
		<-interrupt
		cancel()
	}()

	// workers
	wg := &sync.WaitGroup{}
	wg.Add(semcount)
	for i := 0; i < semcount; i++ {
		go worker(ctx, a.Rewards, wg, logger, reader)
	}
	wg.Wait()
}

// worker for rabbitmq messages
func worker(ctx context.Context, serv *services.RewardService, wg *sync.WaitGroup, logger *zap.Logger, reader *rabbit.RabbitConsumer) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-reader.Msg:
			if !ok {
				return
			}
			id, update, err := rabbit.DecodeStatus(msg.Body)
			if err != nil {
				logger.Error(err.Error())
				_ = msg.Nack(false, false)
				continue
			}
			_, err = serv.UpdateRedemptionStatus(ctx, id, update.Status, update.AdminNotes)
			if err != nil {
				logger.Error(err.Error(), zap.String("redemption_id", id.String()))
				// повтор имеет смысл только при сбое хранилища
				requeue := !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrInvalidState) && !errors.Is(err, model.ErrBadRequest)
				_ = msg.Nack(false, requeue)
				continue
			}
			err = msg.Ack(false)
			if err != nil {
				logger.Error(err.Error())
			}
		}
	}
}
