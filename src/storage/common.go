package storage

import (
	"database/sql"
	"fmt"

	"crypto-indices/src/helpers"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 1000
)

// -----------------------------------------------------------------------------

// New builds and initializes the configured snapshot store.
func New(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	var db interfaces.IDatabase

	switch cfg.Storage.DBType {
	case "", "none":
		db = NewNoopDB()
	case "sqlite":
		s, err := NewAsyncSQLiteDB(cfg, log)
		if err != nil {
			return nil, err
		}
		db = s
	case "postgres":
		p, err := NewPostgresDB(cfg, log)
		if err != nil {
			return nil, err
		}
		db = p
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
	}

	if err := db.Initialize(); err != nil {
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

// -----------------------------------------------------------------------------

func scanSnapshots(rows *sql.Rows) ([]models.MIndexSnapshotRecord, error) {
	var out []models.MIndexSnapshotRecord
	for rows.Next() {
		var r models.MIndexSnapshotRecord
		var constituents sql.NullString
		if err := rows.Scan(&r.IndexName, &r.TimePeriod, &r.ComputedAt, &r.CurrentValue, &r.Change24h, &constituents, &r.CandleCount); err != nil {
			return nil, helpers.NewDatabaseError("scan snapshot", err)
		}
		r.Constituents = constituents.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("iterate snapshots", err)
	}
	return out, nil
}
