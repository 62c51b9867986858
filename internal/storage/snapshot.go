package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/existflow/taskr/internal/logger"
)

// SaveDelay is how long the snapshot waits after the last mutation before
// writing the file
const SaveDelay = 400 * time.Millisecond

// LoadResult is what reading a snapshot file yields. OK is false when the
// file is missing or unreadable; Data is then empty.
type LoadResult struct {
	OK   bool
	Data map[string]json.RawMessage
}

// Snapshot keeps every collection in memory and writes them together as one
// JSON file, debounced after mutations.
type Snapshot struct {
	path  string
	delay time.Duration
	log   *logger.Logger

	mu      sync.Mutex
	data    map[string]json.RawMessage
	pending bool
	timer   *time.Timer
	closed  bool
	lastErr error
}

// ReadSnapshot loads the file at path
func ReadSnapshot(path string) (LoadResult, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return LoadResult{Data: map[string]json.RawMessage{}}, nil
	}
	if err != nil {
		return LoadResult{Data: map[string]json.RawMessage{}}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	data := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return LoadResult{Data: map[string]json.RawMessage{}}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return LoadResult{OK: true, Data: data}, nil
}

// OpenSnapshot loads the snapshot at path. A corrupt file starts empty.
func OpenSnapshot(path string, log *logger.Logger) (*Snapshot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	res, err := ReadSnapshot(path)
	if err != nil {
		log.Warn("Snapshot unreadable, starting empty", logger.F("path", path), logger.F("error", err))
	}
	return &Snapshot{
		path:  path,
		delay: SaveDelay,
		log:   log,
		data:  res.Data,
	}, nil
}

func (s *Snapshot) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set records value and schedules a write SaveDelay after the last call
func (s *Snapshot) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("snapshot closed")
	}
	s.data[key] = append(json.RawMessage(nil), value...)
	s.pending = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.debouncedSave)
	} else {
		s.timer.Reset(s.delay)
	}
	return s.lastErr
}

func (s *Snapshot) debouncedSave() {
	if err := s.Flush(context.Background()); err != nil {
		s.log.Error("Failed to write snapshot", logger.F("path", s.path), logger.F("error", err))
	}
}

// Pending reports whether a write is scheduled
func (s *Snapshot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Flush writes the snapshot now if anything changed since the last write
func (s *Snapshot) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.lastErr = err
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		s.lastErr = fmt.Errorf("failed to write snapshot: %w", err)
		return s.lastErr
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.lastErr = fmt.Errorf("failed to replace snapshot: %w", err)
		return s.lastErr
	}
	s.pending = false
	s.lastErr = nil
	s.log.Debug("Snapshot saved", logger.F("path", s.path), logger.F("bytes", len(raw)))
	return nil
}

// Close flushes pending changes and rejects further writes
func (s *Snapshot) Close() error {
	err := s.Flush(context.Background())
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}
