package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/model"
)

// Collections is everything the application persists, already normalized
type Collections struct {
	Tasks        []model.Task
	Projects     []string
	ProjectTrash []model.HistoryTrashEntry
	Todos        []string
	TodoTrash    []model.HistoryTrashEntry
	DoneTrash    []model.DoneTrashEntry
}

// History returns the list and trash of kind
func (c *Collections) History(kind model.HistoryKind) ([]string, []model.HistoryTrashEntry) {
	if kind == model.HistoryTodo {
		return c.Todos, c.TodoTrash
	}
	return c.Projects, c.ProjectTrash
}

// Store reads and writes typed collections through a Backend
type Store struct {
	backend Backend
	clock   clock.Clock
	log     *logger.Logger
}

// NewStore wraps backend
func NewStore(backend Backend, clk clock.Clock, log *logger.Logger) *Store {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Store{backend: backend, clock: clk, log: log.WithFields(logger.F("component", "storage"))}
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Load reads every collection. Malformed values fall back to empty and legacy
// trash shapes are upgraded; upgraded collections are written back so the
// migration runs once.
func (s *Store) Load(ctx context.Context) (*Collections, error) {
	now := s.clock.Now()
	c := &Collections{}

	raw := map[string][]any{}
	for _, key := range []string{KeyTasks, KeyProjects, KeyProjectTrash, KeyTodos, KeyTodoTrash, KeyDoneTrash} {
		list, err := s.readArray(ctx, key)
		if err != nil {
			return nil, err
		}
		raw[key] = list
	}

	c.Tasks = decodeTasks(raw[KeyTasks], now)
	c.Projects = decodeStrings(raw[KeyProjects])
	c.Todos = decodeStrings(raw[KeyTodos])

	var migrated []string
	var legacy bool
	if c.ProjectTrash, legacy = decodeHistoryTrash(raw[KeyProjectTrash], now); legacy {
		migrated = append(migrated, KeyProjectTrash)
	}
	if c.TodoTrash, legacy = decodeHistoryTrash(raw[KeyTodoTrash], now); legacy {
		migrated = append(migrated, KeyTodoTrash)
	}
	if c.DoneTrash, legacy = decodeDoneTrash(raw[KeyDoneTrash], now); legacy {
		migrated = append(migrated, KeyDoneTrash)
	}

	for _, key := range migrated {
		var err error
		switch key {
		case KeyProjectTrash:
			err = s.Put(ctx, key, c.ProjectTrash)
		case KeyTodoTrash:
			err = s.Put(ctx, key, c.TodoTrash)
		case KeyDoneTrash:
			err = s.Put(ctx, key, c.DoneTrash)
		}
		if err != nil {
			return nil, err
		}
		s.log.Info("Upgraded legacy trash entries", logger.F("key", key))
	}
	return c, nil
}

// readArray returns the JSON array stored at key; anything else reads as empty
func (s *Store) readArray(ctx context.Context, key string) ([]any, error) {
	value, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || len(value) == 0 {
		return nil, nil
	}
	var list []any
	if err := json.Unmarshal(value, &list); err != nil {
		s.log.Warn("Malformed collection, using empty default", logger.F("key", key), logger.F("error", err))
		return nil, nil
	}
	return list, nil
}

// Put serializes v under key
func (s *Store) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.backend.Set(ctx, key, raw)
}

// GetValue decodes the value under key into v and reports whether it existed
// and parsed
func (s *Store) GetValue(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.log.Warn("Malformed value, ignoring", logger.F("key", key), logger.F("error", err))
		return false, nil
	}
	return true, nil
}

func (s *Store) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return s.Put(ctx, KeyTasks, tasks)
}

func (s *Store) SaveDoneTrash(ctx context.Context, trash []model.DoneTrashEntry) error {
	if trash == nil {
		trash = []model.DoneTrashEntry{}
	}
	return s.Put(ctx, KeyDoneTrash, trash)
}

// SaveHistory persists the list and trash of kind
func (s *Store) SaveHistory(ctx context.Context, kind model.HistoryKind, values []string, trash []model.HistoryTrashEntry) error {
	listKey, trashKey := KeyProjects, KeyProjectTrash
	if kind == model.HistoryTodo {
		listKey, trashKey = KeyTodos, KeyTodoTrash
	}
	if values == nil {
		values = []string{}
	}
	if trash == nil {
		trash = []model.HistoryTrashEntry{}
	}
	if err := s.Put(ctx, listKey, values); err != nil {
		return err
	}
	return s.Put(ctx, trashKey, trash)
}

// Flush forces pending writes
func (s *Store) Flush(ctx context.Context) error {
	return s.backend.Flush(ctx)
}

// Close flushes and closes the backend
func (s *Store) Close() error {
	return s.backend.Close()
}
