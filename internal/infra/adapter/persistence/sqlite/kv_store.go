// Package sqlite provides the SQLite implementation of the key/value store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsreader/internal/repository"
	"newsreader/internal/resilience/circuitbreaker"
)

// KVStore implements repository.KeyValueStore on the kv_store table.
type KVStore struct {
	db *circuitbreaker.DBCircuitBreaker
}

// NewKVStore creates a new SQLite-backed key/value store.
// The table must exist; see db.MigrateUp.
func NewKVStore(db *sql.DB) repository.KeyValueStore {
	return &KVStore{db: circuitbreaker.NewDBCircuitBreaker(db)}
}

// Get returns the value stored at key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM kv_store WHERE key = ?`

	var value string
	err := s.db.QueryRowScan(ctx, query, []any{key}, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Get: QueryRow: %w", err)
	}
	return value, true, nil
}

// Set upserts value at key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	const query = `
INSERT INTO kv_store (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("Set: ExecContext: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_store WHERE key = ?`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	return nil
}
