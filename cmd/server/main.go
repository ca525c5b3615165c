// HTTP API - пользователи, офферы, видео, награды, рефералы, колбэки провайдеров
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/glkeru/loyalty/futurecash/internal/api"
	app "github.com/glkeru/loyalty/futurecash/internal/app"
	auth "github.com/glkeru/loyalty/futurecash/internal/auth"
	config "github.com/glkeru/loyalty/futurecash/internal/config"
	kafka "github.com/glkeru/loyalty/futurecash/internal/external/kafka"
	rabbit "github.com/glkeru/loyalty/futurecash/internal/external/rabbitmq"
	tracing "github.com/glkeru/loyalty/futurecash/observability/otel"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
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
	port := os.Getenv("FUTURECASH_HTTP_PORT")
	if port == "" {
		panic("env FUTURECASH_HTTP_PORT is not set")
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	jwt, err := auth.NewJWTServiceFromEnv()
	if err != nil {
		panic(err)
	}

	shutdown, err := tracing.InitTracer(context.Background(), "futurecash-api", logger)
	if err != nil {
		panic(err)
	}
	defer shutdown()

	opts := app.Options{JWT: jwt}

	// kafka
	events, err := kafka.NewEventWriter()
	if err != nil {
		logger.Error(err.Error())
	} else {
		defer events.Close()
		opts.Events = events
	}

	// rabbitmq
	publisher, err := rabbit.NewRabbitPublisher()
	if err != nil {
		logger.Error(err.Error())
	} else {
		defer publisher.Close()
		opts.Publisher = publisher
	}

	// services
	a, err := app.NewApp(logger, cfg, opts)
	if err != nil {
		panic(err)
	}
	defer a.Close()

	// api handlers
	r := api.NewHandler(api.Services{
		Offers:    a.Offers,
		Videos:    a.Videos,
		Rewards:   a.Rewards,
		Referrals: a.Referrals,
		Ledger:    a.Ledger,
		Users:     a.Users,
	}, jwt, logger)
	srv := &http.Server{
		Handler:      otelhttp.NewHandler(r, "futurecash-api"),
		Addr:         ":" + port,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()
	logger.Info("HTTP server started", zap.String("port", port))

	// shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	timeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(timeout)
	if err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
