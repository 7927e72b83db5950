package interfaces

import "crypto-indices/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defines the interface for pushing computed indices to clients.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a freshly computed payload to websocket listeners.
	Broadcast(update *models.MIndexUpdate)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
