package storage

import "crypto-indices/src/models"

// NoopDB is the store used when persistence is disabled.
type NoopDB struct{}

func NewNoopDB() *NoopDB { return &NoopDB{} }

func (NoopDB) Initialize() error { return nil }

func (NoopDB) SaveIndexSnapshots([]models.MIndexSnapshotRecord) error { return nil }

func (NoopDB) RecentSnapshots(string, int) ([]models.MIndexSnapshotRecord, error) {
	return []models.MIndexSnapshotRecord{}, nil
}

func (NoopDB) CleanupOldData() error { return nil }

func (NoopDB) Close() error { return nil }
