package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

const schemaControlEvents = `
CREATE TABLE IF NOT EXISTS control_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    device_id TEXT NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const indexControlEvents = `
CREATE INDEX IF NOT EXISTS idx_control_events_device_time
ON control_events (device_id, occurred_at);
`

// InitDB opens/creates the SQLite file holding the audit log and ensures
// the schema exists.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Single writer; telemetry handlers append concurrently otherwise.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	for i, stmt := range []string{schemaControlEvents, indexControlEvents} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
