package attachment

import (
	"context"
	"fmt"
	"sync"

	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/model"
	"github.com/google/uuid"
)

// Opener connects to the backing store. It runs on first use.
type Opener func(ctx context.Context) (Backend, error)

// Service is the attachment store used by the task repository. The backend
// is opened lazily; a failed open is retried on the next call.
type Service struct {
	open  Opener
	clock clock.Clock
	log   *logger.Logger

	mu      sync.Mutex
	backend Backend
}

// NewService creates a service over a lazily opened backend
func NewService(open Opener, clk clock.Clock, log *logger.Logger) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{open: open, clock: clk, log: log.WithFields(logger.F("component", "attachment"))}
}

// NewServiceWith creates a service over an already opened backend
func NewServiceWith(b Backend, clk clock.Clock, log *logger.Logger) *Service {
	s := NewService(nil, clk, log)
	s.backend = b
	return s
}

func (s *Service) store(ctx context.Context) (Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		return s.backend, nil
	}
	if s.open == nil {
		return nil, ErrUnavailable
	}
	b, err := s.open(ctx)
	if err != nil {
		s.log.Error("Failed to open attachment store", logger.F("error", err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.backend = b
	return b, nil
}

// Put writes r, replacing any record with the same id
func (s *Service) Put(ctx context.Context, r *Record) error {
	b, err := s.store(ctx)
	if err != nil {
		return err
	}
	if r.Digest == "" && r.Blob != nil {
		r.Digest = Digest(r.Blob)
	}
	return b.Put(ctx, r)
}

// Get returns the record with id, nil when it does not exist. A record whose
// content no longer matches its digest yields ErrCorrupt.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	b, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	r, err := b.Get(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	if err := r.Verify(); err != nil {
		s.log.Warn("Attachment digest mismatch", logger.F("id", id))
		return nil, err
	}
	return r, nil
}

// Delete removes a single record; a missing id is not an error
func (s *Service) Delete(ctx context.Context, id string) error {
	b, err := s.store(ctx)
	if err != nil {
		return err
	}
	return b.Delete(ctx, id)
}

// DeleteAllForTask removes every record owned by taskID
func (s *Service) DeleteAllForTask(ctx context.Context, taskID string) error {
	b, err := s.store(ctx)
	if err != nil {
		return err
	}
	n, err := b.DeleteByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Debug("Deleted task attachments", logger.F("task", taskID), logger.F("count", n))
	}
	return nil
}

// List returns the stored records of taskID ordered by creation
func (s *Service) List(ctx context.Context, taskID string) ([]*Record, error) {
	b, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	return b.ListByTask(ctx, taskID)
}

// Save stores validated uploads for taskID and returns their metadata. If a
// write fails the records already written by this call are removed.
func (s *Service) Save(ctx context.Context, taskID string, files []Upload) ([]model.AttachmentMeta, error) {
	if len(files) == 0 {
		return []model.AttachmentMeta{}, nil
	}
	b, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	metas := make([]model.AttachmentMeta, 0, len(files))
	for _, f := range files {
		r := &Record{
			ID:        uuid.New().String(),
			TaskID:    taskID,
			Name:      f.Name,
			Type:      f.Type,
			Size:      f.Size,
			CreatedAt: now,
			ExpiresAt: now.Add(TTL),
			Digest:    Digest(f.Data),
			Blob:      f.Data,
		}
		if err := b.Put(ctx, r); err != nil {
			for _, m := range metas {
				_ = b.Delete(ctx, m.ID)
			}
			return nil, err
		}
		metas = append(metas, r.Meta())
	}
	return metas, nil
}

// DuplicateResult describes a duplication. Produced can be lower than
// Attempted when source records were missing or had no content.
type DuplicateResult struct {
	Metas     []model.AttachmentMeta
	Attempted int
	Produced  int
}

// Duplicate copies the records behind metas under fresh ids owned by
// newTaskID. Copies keep name, type and size and start a fresh TTL window.
// Sources that are gone are skipped.
func (s *Service) Duplicate(ctx context.Context, metas []model.AttachmentMeta, newTaskID string) (DuplicateResult, error) {
	res := DuplicateResult{Metas: []model.AttachmentMeta{}, Attempted: len(metas)}
	if len(metas) == 0 {
		return res, nil
	}
	b, err := s.store(ctx)
	if err != nil {
		return res, err
	}

	now := s.clock.Now()
	var written []string
	for _, m := range metas {
		src, err := b.Get(ctx, m.ID)
		if err != nil {
			s.rollback(ctx, b, written)
			return DuplicateResult{Metas: []model.AttachmentMeta{}, Attempted: len(metas)}, err
		}
		if src == nil || src.Blob == nil {
			s.log.Debug("Skipping missing attachment on duplicate", logger.F("id", m.ID))
			continue
		}
		cp := &Record{
			ID:        uuid.New().String(),
			TaskID:    newTaskID,
			Name:      src.Name,
			Type:      src.Type,
			Size:      src.Size,
			CreatedAt: now,
			ExpiresAt: now.Add(TTL),
			Digest:    src.Digest,
			Blob:      src.Blob,
		}
		if err := b.Put(ctx, cp); err != nil {
			s.rollback(ctx, b, written)
			return DuplicateResult{Metas: []model.AttachmentMeta{}, Attempted: len(metas)}, err
		}
		written = append(written, cp.ID)
		res.Metas = append(res.Metas, cp.Meta())
	}
	res.Produced = len(res.Metas)
	return res, nil
}

func (s *Service) rollback(ctx context.Context, b Backend, ids []string) {
	for _, id := range ids {
		_ = b.Delete(ctx, id)
	}
}

// DeleteExpired removes records expired at the current time and returns
// their ids
func (s *Service) DeleteExpired(ctx context.Context) ([]string, error) {
	b, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	return b.DeleteExpired(ctx, s.clock.Now())
}
