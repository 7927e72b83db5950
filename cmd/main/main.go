package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-indices/src/config"
	"crypto-indices/src/helpers"
	"crypto-indices/src/logger"
	"crypto-indices/src/server"
)

const cleanupInterval = time.Hour

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 1. Load config from YAML file, .env and the environment
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.MConfig, config.Name)
	errorHandler := helpers.NewErrorHandler(logger.NewLogger(config.MConfig, "ErrorHandler"))

	if !config.HasAPIKey() {
		appLogger.Warning("COINGECKO_API_KEY is not set; index requests will fail until it is configured")
	}

	// 2. Setup Components
	db, err := setupDatabase(config.MConfig, appLogger)
	if err != nil {
		os.Exit(1)
	}
	defer db.Close()

	networkManager := setupNetwork(config.MConfig)

	service, err := setupService(config.MConfig, db, networkManager, appLogger)
	if err != nil {
		os.Exit(1)
	}

	srv := server.NewIndexServer(config.MConfig, service, db, logger.NewLogger(config.MConfig, "IndexServer"))
	service.SetExchanger(srv)

	// 3. Servers and background jobs
	grpcServer := startServers(srv, service, config, appLogger)
	scheduler := startScheduler(service, config, appLogger)

	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	// 4. Main loop until interrupted
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	appLogger.Info("Crypto indices service started. Press Ctrl+C to stop.")

	running := true
	for running {
		select {
		case <-quit:
			running = false
		case <-cleanup.C:
			errorHandler.Handle(db.CleanupOldData(), "snapshot retention cleanup")
			if n := service.Errors.ErrorCount(); n > 0 {
				appLogger.Warning("%d publish errors in the last %s", n, cleanupInterval)
				service.Errors.ResetErrorCount()
			}
		}
	}

	// 5. Graceful shutdown
	appLogger.Info("Shutting down...")
	if scheduler != nil {
		scheduler.Stop()
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	errorHandler.Handle(srv.Stop(), "http shutdown")

	if errorHandler.ErrorCount() > 0 {
		appLogger.Warning("Stopped with %d background errors", errorHandler.ErrorCount())
	}
	appLogger.Info("Stopped")
}
