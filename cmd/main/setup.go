package main

import (
	"crypto-indices/src/cache"
	"crypto-indices/src/data_source/coingecko"
	"crypto-indices/src/indices"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"
	"crypto-indices/src/network"
	"crypto-indices/src/storage"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the snapshot store selected by storage.db_type
func setupDatabase(config *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	db, err := storage.New(config, logger.NewLogger(config, "Storage"))
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig) interfaces.INetworkManager {
	networkLogger := logger.NewLogger(config, "NetworkManager")
	return network.NewAsyncNetworkManager(config, networkLogger)
}

// -----------------------------------------------------------------------------

// setupService builds the compute pipeline and the cache in front of it
func setupService(config *models.MConfig, db interfaces.IDatabase, networkManager interfaces.INetworkManager, appLogger *logger.Logger) (*indices.IndexService, error) {
	source := coingecko.NewCoinGeckoSource(config, networkManager)
	appLogger.Info("Using data source %s", source.Name())

	engine := indices.NewIndexEngine(config, source, logger.NewLogger(config, "IndexEngine"))

	responseCache, err := cache.New(config.Cache)
	if err != nil {
		appLogger.Error("Cache backend %q unavailable: %v", config.Cache.Backend, err)
		return nil, err
	}

	return indices.NewIndexService(engine, responseCache, db, logger.NewLogger(config, "IndexService")), nil
}
