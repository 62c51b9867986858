package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/retention"
	"github.com/existflow/taskr/internal/storage"
)

// Repository is one history list with its trash
type Repository struct {
	kind  model.HistoryKind
	store *storage.Store
	clock clock.Clock
	log   *logger.Logger

	mu     sync.RWMutex
	values []string
	trash  []model.HistoryTrashEntry
}

// NewRepository seeds a repository of kind from loaded collections
func NewRepository(kind model.HistoryKind, store *storage.Store, clk clock.Clock, log *logger.Logger, values []string, trash []model.HistoryTrashEntry) *Repository {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Repository{
		kind:   kind,
		store:  store,
		clock:  clk,
		log:    log.WithFields(logger.F("component", "history"), logger.F("kind", string(kind))),
		values: values,
		trash:  trash,
	}
}

// Kind returns which list this is
func (r *Repository) Kind() model.HistoryKind {
	return r.kind
}

func (r *Repository) persist(ctx context.Context, values []string, trash []model.HistoryTrashEntry) error {
	if err := r.store.SaveHistory(ctx, r.kind, values, trash); err != nil {
		return fmt.Errorf("failed to save %s history: %w", r.kind, err)
	}
	r.values, r.trash = values, trash
	return nil
}

// Record adds value to the front of the list
func (r *Repository) Record(ctx context.Context, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := Record(r.values, value)
	if len(next) == len(r.values) {
		return nil
	}
	return r.persist(ctx, next, r.trash)
}

// Edit replaces the entry at index
func (r *Repository) Edit(ctx context.Context, index int, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := Edit(r.values, index, value)
	if err != nil {
		return err
	}
	return r.persist(ctx, next, r.trash)
}

// Delete moves the entries at indices into the trash
func (r *Repository) Delete(ctx context.Context, indices ...int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, trash := Delete(r.values, r.trash, indices, r.clock.Now())
	n := len(r.values) - len(values)
	if n == 0 {
		return 0, nil
	}
	if err := r.persist(ctx, values, trash); err != nil {
		return 0, err
	}
	r.log.Info("History entries trashed", logger.F("count", n))
	return n, nil
}

// DeleteAll moves every entry into the trash
func (r *Repository) DeleteAll(ctx context.Context) (int, error) {
	r.mu.RLock()
	indices := make([]int, len(r.values))
	for i := range indices {
		indices[i] = i
	}
	r.mu.RUnlock()
	return r.Delete(ctx, indices...)
}

// Restore moves the trash entry at index back into the list
func (r *Repository) Restore(ctx context.Context, index int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.trash) {
		return "", retention.ErrIndexOutOfRange
	}
	value := r.trash[index].Value
	values, trash, err := Restore(r.values, r.trash, index)
	if err != nil {
		return "", err
	}
	if err := r.persist(ctx, values, trash); err != nil {
		return "", err
	}
	return value, nil
}

// PurgeTrash drops expired trash entries and reports whether any were dropped
func (r *Repository) PurgeTrash(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := retention.Purge(r.trash, retention.HistoryTTL, r.clock.Now())
	if len(kept) == len(r.trash) {
		return false, nil
	}
	return true, r.persist(ctx, r.values, kept)
}

// ClearTrash permanently empties the trash
func (r *Repository) ClearTrash(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.trash) == 0 {
		return nil
	}
	return r.persist(ctx, r.values, []model.HistoryTrashEntry{})
}

// Values returns the list, most recent first
func (r *Repository) Values() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.values...)
}

// Trash returns the trash, most recent first
func (r *Repository) Trash() []model.HistoryTrashEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.HistoryTrashEntry(nil), r.trash...)
}

// NextExpiry returns when the oldest trash entry expires
func (r *Repository) NextExpiry() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return retention.NextExpiry(r.trash, retention.HistoryTTL)
}
