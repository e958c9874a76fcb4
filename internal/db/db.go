package db

import (
	"database/sql"
	"fmt"

	"tour-planner/internal/logger"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Missing table on a fresh file leaves version at 0.
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS region (
				id       TEXT PRIMARY KEY,
				name     TEXT NOT NULL DEFAULT '',
				position INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS tour (
				id            INTEGER PRIMARY KEY,
				region_id     TEXT NOT NULL,
				name          TEXT NOT NULL DEFAULT '',
				description   TEXT NOT NULL DEFAULT '',
				duration_days INTEGER NOT NULL CHECK (duration_days >= 0),
				cost          REAL NOT NULL CHECK (cost >= 0),
				position      INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_tour_region ON tour(region_id);

			CREATE TABLE IF NOT EXISTS attraction (
				id             INTEGER PRIMARY KEY,
				name           TEXT NOT NULL DEFAULT '',
				description    TEXT NOT NULL DEFAULT '',
				cultural_value INTEGER NOT NULL CHECK (cultural_value >= 0),
				position       INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS tour_attraction (
				tour_id       INTEGER NOT NULL REFERENCES tour(id) ON DELETE CASCADE,
				attraction_id INTEGER NOT NULL REFERENCES attraction(id) ON DELETE CASCADE,
				position      INTEGER NOT NULL,
				PRIMARY KEY (tour_id, attraction_id)
			);
			CREATE INDEX IF NOT EXISTS idx_tour_attraction_attr ON tour_attraction(attraction_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS catalog_meta (
				id          INTEGER PRIMARY KEY CHECK (id = 1),
				source      TEXT NOT NULL,
				imported_at TEXT NOT NULL
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (catalog meta)")
	}

	if version < 3 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS plan_history (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp   TEXT NOT NULL,
				region_id   TEXT NOT NULL,
				max_days    INTEGER,
				max_budget  REAL,
				tour_ids    TEXT NOT NULL DEFAULT '[]',
				total_value INTEGER NOT NULL,
				total_cost  REAL NOT NULL,
				total_days  INTEGER NOT NULL,
				nodes       INTEGER NOT NULL DEFAULT 0,
				duration_ms INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_plan_history_ts ON plan_history(timestamp);

			INSERT OR IGNORE INTO schema_version (version) VALUES (3);
		`)
		if err != nil {
			return fmt.Errorf("migration v3: %w", err)
		}
		logger.Info("DB", "Applied migration v3 (plan history)")
	}

	return nil
}

// SqlDB returns the underlying *sql.DB.
func (d *DB) SqlDB() *sql.DB {
	return d.sql
}
