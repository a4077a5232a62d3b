// Package postgres provides the PostgreSQL implementation of the key/value store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"newsreader/internal/repository"
	"newsreader/internal/resilience/circuitbreaker"
)

// KVStore implements repository.KeyValueStore on the kv_store table.
type KVStore struct {
	db *circuitbreaker.DBCircuitBreaker
}

// NewKVStore creates a new PostgreSQL-backed key/value store.
func NewKVStore(db *sql.DB) repository.KeyValueStore {
	return &KVStore{db: circuitbreaker.NewDBCircuitBreaker(db)}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM kv_store WHERE key = $1`

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

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	const query = `
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("Set: ExecContext: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_store WHERE key = $1`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	return nil
}
