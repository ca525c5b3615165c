// gRPC server - баланс и история начислений для внутренних сервисов
package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	serv "github.com/glkeru/loyalty/futurecash/internal/api/grpc"
	app "github.com/glkeru/loyalty/futurecash/internal/app"
	config "github.com/glkeru/loyalty/futurecash/internal/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	// log
	logger, err := app.Init()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// config
	port := os.Getenv("FUTURECASH_GRPC_PORT")
	if port == "" {
		panic("env FUTURECASH_GRPC_PORT is not set")
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	a, err := app.NewApp(logger, cfg, app.Options{})
	if err != nil {
		panic(err)
	}
	defer a.Close()

	lis, err := net.Listen("tcp", "0.0.0.0:"+port)
	if err != nil {
		panic(err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	grpcServer := grpc.NewServer()
	serv.RegisterPointsServer(grpcServer, serv.NewPointsService(a.Ledger, logger))

	go func() {
		err := grpcServer.Serve(lis)
		if err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	logger.Info("gRPC server started", zap.String("port", port))

	<-interrupt
	grpcServer.GracefulStop()
}
