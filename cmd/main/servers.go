package main

import (
	"context"
	"time"

	"crypto-indices/src/config"
	pb "crypto-indices/src/grpc_control"
	"crypto-indices/src/indices"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"
	"crypto-indices/src/utils"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// startServers launches the HTTP server and, when configured, the gRPC
// control server. The returned gRPC server is nil if it is disabled.
func startServers(srv interfaces.IDataExchanger, service *indices.IndexService, config *config.Config, appLogger *logger.Logger) *grpc.Server {

	// 1. HTTP / WebSocket server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 2. gRPC Control Server
	if config.GrpcPort <= 0 {
		appLogger.Info("gRPC control server disabled")
		return nil
	}

	grpcServer := grpc.NewServer()
	controlService := pb.NewControlService(service, service.Engine.LastMetrics, logger.NewLogger(config.MConfig, "ControlService"))
	pb.RegisterIndexControlServer(grpcServer, controlService)

	go func() {
		if err := pb.Serve(grpcServer, config.GrpcHost, config.GrpcPort, appLogger); err != nil {
			appLogger.Critical("failed to serve gRPC: %v", err)
		}
	}()
	return grpcServer
}

// -----------------------------------------------------------------------------

// startScheduler warms the cache on the configured cron spec.
func startScheduler(service *indices.IndexService, config *config.Config, appLogger *logger.Logger) *utils.RefreshScheduler {
	if !config.Scheduler.Enabled {
		return nil
	}

	refresh := func(ctx context.Context, period models.MTimePeriod) error {
		_, err := service.Refresh(ctx, period)
		return err
	}
	scheduler := utils.NewRefreshScheduler(config.Scheduler.Periods, refresh, 2*time.Minute, logger.NewLogger(config.MConfig, "RefreshScheduler"))
	if err := scheduler.Register(config.Scheduler.Cron); err != nil {
		appLogger.Error("Scheduler disabled: %v", err)
		return nil
	}
	scheduler.Start()
	return scheduler
}
