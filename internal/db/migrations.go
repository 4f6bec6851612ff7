package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS sync_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  synced_at DATETIME NOT NULL,
  day TEXT NOT NULL,
  steps INTEGER NOT NULL CHECK(steps >= 0),
  calories_out REAL NOT NULL CHECK(calories_out >= 0),
  outcome TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  accepted INTEGER,
  duplicate INTEGER,
  reset INTEGER,
  steps_delta INTEGER,
  calories_out_delta REAL,
  steps_total INTEGER,
  calories_out_total REAL
);

CREATE INDEX IF NOT EXISTS idx_sync_log_synced_at ON sync_log(synced_at);
`,
	},
	{
		version: 2,
		name:    "pending_meal",
		sql: `
CREATE TABLE IF NOT EXISTS pending_meal (
  slot INTEGER PRIMARY KEY CHECK(slot = 1),
  id TEXT NOT NULL,
  barcode TEXT NOT NULL,
  product_name TEXT NOT NULL DEFAULT '',
  quantity_input TEXT NOT NULL DEFAULT '',
  last_error TEXT NOT NULL DEFAULT '',
  updated_at DATETIME NOT NULL
);
`,
	},
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}
	return nil
}
