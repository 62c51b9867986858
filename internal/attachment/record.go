package attachment

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/existflow/taskr/internal/model"
	"golang.org/x/crypto/blake2b"
)

// Record is a stored attachment including its content
type Record struct {
	ID        string
	TaskID    string
	Name      string
	Type      string
	Size      int64
	CreatedAt time.Time
	ExpiresAt time.Time
	Digest    string
	Blob      []byte
}

// Meta strips the blob, leaving the reference a task keeps
func (r *Record) Meta() model.AttachmentMeta {
	return model.AttachmentMeta{
		ID:        r.ID,
		Name:      r.Name,
		Type:      r.Type,
		Size:      r.Size,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

// Digest returns the hex BLAKE2b-256 of data
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify checks the blob against the digest recorded at write time
func (r *Record) Verify() error {
	if r.Digest == "" || r.Blob == nil {
		return nil
	}
	if Digest(r.Blob) != r.Digest {
		return ErrCorrupt
	}
	return nil
}

// Backend is a blob-capable record store keyed by attachment id with
// secondary lookups by task id and expiry.
type Backend interface {
	Put(ctx context.Context, r *Record) error
	// Get returns nil, nil when no record has the id
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	DeleteByTask(ctx context.Context, taskID string) (int, error)
	ListByTask(ctx context.Context, taskID string) ([]*Record, error)
	// DeleteExpired removes every record with expiresAt <= now and returns their ids
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
}
