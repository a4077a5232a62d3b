package db

import (
	"context"
	"database/sql"
	"fmt"
)

var kvSchema = map[Dialect]string{
	DialectSQLite: `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	DialectPostgres: `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

// MigrateUp creates the key/value table used for the news snapshot and favorites.
// It is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB, d Dialect) error {
	stmt, ok := kvSchema[d]
	if !ok {
		return fmt.Errorf("migrate: unsupported dialect %q", d)
	}

	if d == DialectSQLite {
		// WAL lets readers proceed while a snapshot is being written.
		// In-memory databases reject it, which is harmless.
		_, _ = db.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
		if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout=5000`); err != nil {
			return fmt.Errorf("migrate: busy_timeout: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("migrate: create kv_store: %w", err)
	}
	return nil
}
