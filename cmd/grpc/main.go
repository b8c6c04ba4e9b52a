package main

import (
	"os"
	"os/signal"
	"syscall"
	"tradepost/infra"
	"tradepost/infra/grpc"
	"tradepost/pkg/config"
	"tradepost/pkg/logger"
	"tradepost/pkg/rates"

	"go.uber.org/zap"
)

func main() {
	appConfig := config.Read()
	flush := logger.Install(appConfig)
	defer flush()

	zap.L().Info("Tradepost gRPC Service starting...")

	store, err := infra.OpenStore(*appConfig)
	if err != nil {
		zap.L().Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	rateCache, err := rates.NewCacheFromConfig(appConfig)
	if err != nil {
		zap.L().Fatal("Failed to configure exchange rates", zap.Error(err))
	}

	grpcServer, err := grpc.NewServer(appConfig)
	if err != nil {
		zap.L().Error("failed to create grpc server", zap.Error(err))
		os.Exit(1)
	}

	grpc.RegisterLedgerServiceServer(grpcServer.GetGRPCServer(), grpc.NewLedgerService(store, rateCache))
	grpcServer.SetServing(grpc.LedgerServiceName)

	zap.L().Info("starting gRPC server...", zap.String("port", appConfig.GRPCPort))
	go func() {
		if err := grpcServer.Start(); err != nil {
			zap.L().Error("failed to start grpc server", zap.Error(err))
			os.Exit(1)
		}
	}()

	gracefulShutdown(grpcServer)
}

func gracefulShutdown(grpcServer *grpc.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	zap.L().Info("Shutting down server...")

	if err := grpcServer.GracefulStop(); err != nil {
		zap.L().Error("Error during server shutdown", zap.Error(err))
	}

	zap.L().Info("Server gracefully stopped")
}
