package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	_ "github.com/lib/pq"
)

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresDB stores snapshots under a schema named after the service.
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Schema: SchemaName(cfg.Name),
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

// SchemaName maps an application name onto a safe identifier.
func SchemaName(name string) string {
	s := unsafeIdent.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "crypto_indices"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("create schema %s", d.Schema), err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) table() string {
	return fmt.Sprintf(`"%s"."index_snapshots"`, d.Schema)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			index_name TEXT NOT NULL,
			time_period TEXT NOT NULL,
			computed_at BIGINT NOT NULL,
			current_value DOUBLE PRECISION,
			change_24h DOUBLE PRECISION,
			constituents TEXT,
			candle_count INTEGER
		);
	`, d.table())
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create index_snapshots", err)
	}

	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_index_snapshots_name_time ON %s (index_name, computed_at)`, d.table())
	if _, err := d.DB.Exec(idx); err != nil {
		return helpers.NewDatabaseError("create index_snapshots index", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveIndexSnapshots(records []models.MIndexSnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (index_name, time_period, computed_at, current_value, change_24h, constituents, candle_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.table())
	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) RecentSnapshots(indexName string, limit int) ([]models.MIndexSnapshotRecord, error) {
	query := fmt.Sprintf(`
		SELECT index_name, time_period, computed_at, current_value, change_24h, constituents, candle_count
		FROM %s
		WHERE index_name = $1
		ORDER BY computed_at DESC, id DESC
		LIMIT $2
	`, d.table())
	rows, err := d.DB.Query(query, indexName, normalizeLimit(limit))
	if err != nil {
		return nil, helpers.NewDatabaseError("query snapshots", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Debug("Cleaning up snapshots older than %d days (computed_at < %d)", retentionDays, cutoff)

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM %s WHERE computed_at < $1`, d.table()), cutoff); err != nil {
		d.Logger.Error("Cleanup index_snapshots error: %v", err)
		return helpers.NewDatabaseError("cleanup", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
