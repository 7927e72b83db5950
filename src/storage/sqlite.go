package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Parent directory of a plain file path must exist before open
	if dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return helpers.NewDatabaseError("create sqlite directory", err)
		}
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}

	// A single writer avoids SQLITE_BUSY between concurrent period refreshes
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS index_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			index_name TEXT NOT NULL,
			time_period TEXT NOT NULL,
			computed_at INTEGER NOT NULL,
			current_value REAL,
			change_24h REAL,
			constituents TEXT,
			candle_count INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create index_snapshots", err)
	}

	if _, err := d.DB.Exec(`CREATE INDEX IF NOT EXISTS idx_index_snapshots_name_time ON index_snapshots (index_name, computed_at)`); err != nil {
		return helpers.NewDatabaseError("create index_snapshots index", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveIndexSnapshots(records []models.MIndexSnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO index_snapshots (index_name, time_period, computed_at, current_value, change_24h, constituents, candle_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return helpers.NewDatabaseError("prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.IndexName, r.TimePeriod, r.ComputedAt, r.CurrentValue, r.Change24h, r.Constituents, r.CandleCount); err != nil {
			return helpers.NewDatabaseError(fmt.Sprintf("insert %s", r.IndexName), err)
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) RecentSnapshots(indexName string, limit int) ([]models.MIndexSnapshotRecord, error) {
	rows, err := d.DB.Query(`
		SELECT index_name, time_period, computed_at, current_value, change_24h, constituents, candle_count
		FROM index_snapshots
		WHERE index_name = ?
		ORDER BY computed_at DESC, id DESC
		LIMIT ?
	`, indexName, normalizeLimit(limit))
	if err != nil {
		return nil, helpers.NewDatabaseError("query snapshots", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	res, err := d.DB.Exec("DELETE FROM index_snapshots WHERE computed_at < ?", cutoff)
	if err != nil {
		d.Logger.Error("Cleanup index_snapshots error: %v", err)
		return helpers.NewDatabaseError("cleanup", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		d.Logger.Info("Cleanup removed %d snapshots older than %d days", n, retentionDays)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
