package attachment

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/existflow/taskr/internal/logger"
)

// SweepInterval is how often the background sweep runs
const SweepInterval = time.Second

// Referrer drops attachment references from whatever holds them
type Referrer interface {
	// StripAttachments removes references to ids and reports whether any
	// holder changed
	StripAttachments(ctx context.Context, ids map[string]struct{}) (bool, error)
}

// Sweeper deletes expired attachments and strips their references. At most
// one sweep runs at a time; overlapping requests are skipped.
type Sweeper struct {
	svc      *Service
	refs     Referrer
	interval time.Duration
	log      *logger.Logger

	running  atomic.Bool
	onChange func()
	// ids deleted by an earlier sweep whose references are still in place;
	// only touched while running is held
	pending map[string]struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a sweeper; onChange runs after a sweep that changed tasks
func NewSweeper(svc *Service, refs Referrer, onChange func()) *Sweeper {
	return &Sweeper{
		svc:      svc,
		refs:     refs,
		interval: SweepInterval,
		log:      svc.log,
		onChange: onChange,
		pending:  map[string]struct{}{},
		stopCh:   make(chan struct{}),
	}
}

// CleanupExpired runs one sweep unless one is already in flight. changed is
// true only when task references were removed. Records whose references
// could not be stripped are retried on the next sweep.
func (s *Sweeper) CleanupExpired(ctx context.Context) (bool, error) {
	if !s.running.CompareAndSwap(false, true) {
		return false, nil
	}
	defer s.running.Store(false)

	ids, err := s.svc.DeleteExpired(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		s.pending[id] = struct{}{}
	}
	if len(s.pending) == 0 {
		return false, nil
	}

	changed, err := s.refs.StripAttachments(ctx, s.pending)
	if err != nil {
		s.log.Warn("Stripping expired attachments failed, will retry", logger.F("count", len(s.pending)))
		return false, err
	}
	s.log.Info("Expired attachments removed", logger.F("count", len(s.pending)), logger.F("tasks_changed", changed))
	s.pending = map[string]struct{}{}
	return changed, nil
}

// Start runs the periodic sweep until Stop
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			changed, err := s.CleanupExpired(context.Background())
			if err != nil {
				s.log.Warn("Attachment sweep failed", logger.F("error", err))
				continue
			}
			if changed && s.onChange != nil {
				s.onChange()
			}
		}
	}
}

// Stop ends the periodic sweep and waits for it to exit
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}
