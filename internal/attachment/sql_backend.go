package attachment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/taskr/internal/db"
)

// SQLBackend keeps attachment records in the attachments table of a sqlite
// or postgres database.
type SQLBackend struct {
	db *db.DB
}

// NewSQLBackend wraps an opened, migrated database
func NewSQLBackend(database *db.DB) *SQLBackend {
	return &SQLBackend{db: database}
}

const recordColumns = `id, task_id, name, type, size, created_at, expires_at, digest, blob`

func (b *SQLBackend) Put(ctx context.Context, r *Record) error {
	_, err := b.db.ExecContext(ctx, b.db.Rebind(`
		INSERT INTO attachments (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			task_id = excluded.task_id,
			name = excluded.name,
			type = excluded.type,
			size = excluded.size,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			digest = excluded.digest,
			blob = excluded.blob`),
		r.ID, r.TaskID, r.Name, r.Type, r.Size,
		r.CreatedAt.UnixMilli(), r.ExpiresAt.UnixMilli(), r.Digest, r.Blob,
	)
	if err != nil {
		return fmt.Errorf("failed to put attachment %s: %w", r.ID, err)
	}
	return nil
}

func (b *SQLBackend) Get(ctx context.Context, id string) (*Record, error) {
	row := b.db.QueryRowContext(ctx, b.db.Rebind(`SELECT `+recordColumns+` FROM attachments WHERE id = ?`), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %s: %w", id, err)
	}
	return r, nil
}

func (b *SQLBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, b.db.Rebind(`DELETE FROM attachments WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete attachment %s: %w", id, err)
	}
	return nil
}

func (b *SQLBackend) DeleteByTask(ctx context.Context, taskID string) (int, error) {
	res, err := b.db.ExecContext(ctx, b.db.Rebind(`DELETE FROM attachments WHERE task_id = ?`), taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attachments of task %s: %w", taskID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (b *SQLBackend) ListByTask(ctx context.Context, taskID string) ([]*Record, error) {
	rows, err := b.db.QueryContext(ctx, b.db.Rebind(`SELECT `+recordColumns+` FROM attachments WHERE task_id = ? ORDER BY created_at`), taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments of task %s: %w", taskID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (b *SQLBackend) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	cutoff := now.UnixMilli()
	rows, err := tx.QueryContext(ctx, b.db.Rebind(`SELECT id FROM attachments WHERE expires_at <= ?`), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expired attachments: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, b.db.Rebind(`DELETE FROM attachments WHERE expires_at <= ?`), cutoff); err != nil {
		return nil, fmt.Errorf("failed to delete expired attachments: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var r Record
	var created, expires int64
	if err := s.Scan(&r.ID, &r.TaskID, &r.Name, &r.Type, &r.Size, &created, &expires, &r.Digest, &r.Blob); err != nil {
		return nil, err
	}
	r.CreatedAt = time.UnixMilli(created)
	r.ExpiresAt = time.UnixMilli(expires)
	return &r, nil
}
