package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/taskr/internal/db"
)

// KV keeps each collection as a row of the sqlite collections table. Writes
// are synchronous.
type KV struct {
	db    *db.DB
	owned bool
}

// NewKV uses an already opened database; Close leaves it open
func NewKV(database *db.DB) *KV {
	return &KV{db: database}
}

// OpenKV opens the sqlite database at path and owns it
func OpenKV(path string) (*KV, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &KV{db: database, owned: true}, nil
}

// DB exposes the underlying database so the attachment store can share it
func (kv *KV) DB() *db.DB {
	return kv.db
}

func (kv *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO collections (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (kv *KV) Flush(context.Context) error { return nil }

func (kv *KV) Close() error {
	if !kv.owned {
		return nil
	}
	return kv.db.Close()
}
