package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KVStore = (*KVRepo)(nil)

// KVRepo is the SQLite implementation of the KVStore port interface.
type KVRepo struct {
	db *DB
}

// NewKVRepo creates a new KVRepo backed by the given DB.
func NewKVRepo(db *DB) *KVRepo {
	return &KVRepo{db: db}
}

// Get returns the value stored under key, or driven.ErrKeyNotFound.
func (r *KVRepo) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM kv_store WHERE key = ?`

	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get %q: %w", key, driven.ErrKeyNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w: %w", key, driven.ErrStorageRead, err)
	}

	return value, nil
}

// Set inserts or replaces the value stored under key.
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set %q: %w: %w", key, driven.ErrStorageWrite, err)
	}

	return nil
}
