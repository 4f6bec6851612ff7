package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open returns a single-connection handle; the watch loop and one-shot
// commands never need more.
func Open(path string) (*sql.DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	for _, pragma := range []string{`PRAGMA journal_mode = WAL;`, `PRAGMA busy_timeout = 5000;`} {
		if _, err := sqldb.Exec(pragma); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return sqldb, nil
}
