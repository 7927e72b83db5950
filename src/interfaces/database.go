package interfaces

import "crypto-indices/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the index snapshot history.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveIndexSnapshots inserts one row per computed index.
	SaveIndexSnapshots(records []models.MIndexSnapshotRecord) error

	// -----------------------------------------------------------------------------

	// RecentSnapshots returns the newest rows for an index, newest first.
	RecentSnapshots(indexName string, limit int) ([]models.MIndexSnapshotRecord, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
