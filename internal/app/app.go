// Package app is the controller shared by the CLI, the TUI and the HTTP API.
// It owns the repositories, the attachment store and its sweeper, the trash
// expiry timer and the persisted view state.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/taskr/internal/attachment"
	"github.com/existflow/taskr/internal/calendar"
	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/config"
	"github.com/existflow/taskr/internal/db"
	"github.com/existflow/taskr/internal/history"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/retention"
	"github.com/existflow/taskr/internal/storage"
	"github.com/existflow/taskr/internal/task"
)

// Options tune construction; zero values use the real clock and the global
// logger
type Options struct {
	Clock  clock.Clock
	Logger *logger.Logger
}

// App wires the repositories together
type App struct {
	Tasks    *task.Repository
	Projects *history.Repository
	Todos    *history.Repository

	store       *storage.Store
	attachments *attachment.Service
	sweeper     *attachment.Sweeper
	clock       clock.Clock
	log         *logger.Logger

	expiry  retention.Timer
	closers []func() error

	mu       sync.Mutex
	view     ViewState
	sorter   *task.Sorter
	onChange func()
	started  bool
}

// Open builds an App from configuration: the collection backend selected by
// cfg.Storage and an attachment store in the sqlite database or PostgreSQL.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = logger.WithFields()
	}

	var backend storage.Backend
	var shared *db.DB
	switch cfg.Storage {
	case config.StorageFile:
		snap, err := storage.OpenSnapshot(cfg.SnapshotPath(), log)
		if err != nil {
			return nil, err
		}
		backend = snap
	default:
		kv, err := storage.OpenKV(cfg.DBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		backend = kv
		shared = kv.DB()
	}

	var attachDB *db.DB
	opener := func(context.Context) (attachment.Backend, error) {
		switch {
		case cfg.UsesPostgres():
			d, err := db.OpenPostgres(cfg.AttachmentDSN)
			if err != nil {
				return nil, err
			}
			attachDB = d
			return attachment.NewSQLBackend(d), nil
		case shared != nil:
			return attachment.NewSQLBackend(shared), nil
		default:
			d, err := db.Open(cfg.DBPath())
			if err != nil {
				return nil, err
			}
			attachDB = d
			return attachment.NewSQLBackend(d), nil
		}
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	store := storage.NewStore(backend, clk, log)
	att := attachment.NewService(opener, clk, log)

	a, err := New(ctx, store, att, Options{Clock: clk, Logger: log})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		if attachDB != nil {
			return attachDB.Close()
		}
		return nil
	})
	return a, nil
}

// New loads collections from store and builds the repositories
func New(ctx context.Context, store *storage.Store, att *attachment.Service, opts Options) (*App, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	log := opts.Logger

	c, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	a := &App{
		store:       store,
		attachments: att,
		clock:       clk,
		log:         log,
		sorter:      task.NewSorter(),
	}
	a.Tasks = task.NewRepository(store, att, clk, log, c.Tasks, c.DoneTrash)
	a.Projects = history.NewRepository(model.HistoryProject, store, clk, log, c.Projects, c.ProjectTrash)
	a.Todos = history.NewRepository(model.HistoryTodo, store, clk, log, c.Todos, c.TodoTrash)
	a.sweeper = attachment.NewSweeper(att, a.Tasks, a.notify)

	now := clk.Now()
	a.view = DefaultViewState(now)
	if _, err := store.GetValue(ctx, storage.KeyView, &a.view); err != nil {
		return nil, err
	}
	a.view.normalize(now)

	log.Debug("Application loaded",
		logger.F("tasks", len(c.Tasks)), logger.F("done_trash", len(c.DoneTrash)),
		logger.F("projects", len(c.Projects)), logger.F("todos", len(c.Todos)))
	return a, nil
}

// Start launches the periodic attachment sweep. One-shot commands skip it.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true
	a.sweeper.Start()
}

// OnChange registers fn to run whenever background work changes data
func (a *App) OnChange(fn func()) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

func (a *App) notify() {
	a.mu.Lock()
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Now returns the application clock's time
func (a *App) Now() time.Time {
	return a.clock.Now()
}

// Attachments returns the attachment store
func (a *App) Attachments() *attachment.Service {
	return a.attachments
}

// History returns the repository of kind
func (a *App) History(kind model.HistoryKind) *history.Repository {
	if kind == model.HistoryTodo {
		return a.Todos
	}
	return a.Projects
}

// Refresh purges expired trash, runs an attachment sweep unless one is in
// flight and re-arms the expiry timer for the next trash deadline. Callers
// run it after every mutation. changed reports whether anything was removed.
func (a *App) Refresh(ctx context.Context) (bool, error) {
	changed := false
	for _, purge := range []func(context.Context) (bool, error){
		a.Tasks.PurgeTrash,
		a.Projects.PurgeTrash,
		a.Todos.PurgeTrash,
	} {
		c, err := purge(ctx)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}

	swept, err := a.sweeper.CleanupExpired(ctx)
	if err != nil {
		a.log.Warn("Attachment sweep failed", logger.F("error", err))
	}
	changed = changed || swept

	a.armExpiry()
	return changed, nil
}

func (a *App) armExpiry() {
	var deadlines []time.Time
	if t, ok := a.Tasks.NextExpiry(); ok {
		deadlines = append(deadlines, t)
	}
	if t, ok := a.Projects.NextExpiry(); ok {
		deadlines = append(deadlines, t)
	}
	if t, ok := a.Todos.NextExpiry(); ok {
		deadlines = append(deadlines, t)
	}
	next, ok := retention.Earliest(deadlines...)
	if !ok {
		a.expiry.Stop()
		return
	}
	a.expiry.Arm(next, a.clock.Now(), func() {
		changed, err := a.Refresh(context.Background())
		if err != nil {
			a.log.Warn("Trash purge failed", logger.F("error", err))
			return
		}
		if changed {
			a.notify()
		}
	})
}

// NextExpiry returns the armed trash deadline
func (a *App) NextExpiry() (time.Time, bool) {
	return a.expiry.Deadline()
}

// CreateTask creates a task and records its project and todo names
func (a *App) CreateTask(ctx context.Context, in task.Input, files []attachment.Upload) (model.Task, error) {
	t, err := a.Tasks.Create(ctx, in, files)
	if err != nil {
		return model.Task{}, err
	}
	if err := a.Projects.Record(ctx, t.Project); err != nil {
		return t, err
	}
	if err := a.Todos.Record(ctx, t.Todo); err != nil {
		return t, err
	}
	return t, nil
}

// ClearTrash permanently empties all three trash lists
func (a *App) ClearTrash(ctx context.Context) error {
	if err := a.Tasks.ClearTrash(ctx); err != nil {
		return err
	}
	if err := a.Projects.ClearTrash(ctx); err != nil {
		return err
	}
	if err := a.Todos.ClearTrash(ctx); err != nil {
		return err
	}
	a.armExpiry()
	a.log.Info("Trash cleared")
	return nil
}

// View returns the current view state
func (a *App) View() ViewState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// UpdateView applies fn to the view state and persists it
func (a *App) UpdateView(ctx context.Context, fn func(v *ViewState)) (ViewState, error) {
	a.mu.Lock()
	next := a.view
	fn(&next)
	next.normalize(a.clock.Now())
	a.mu.Unlock()

	if err := a.store.Put(ctx, storage.KeyView, next); err != nil {
		return a.View(), err
	}
	a.mu.Lock()
	a.view = next
	a.mu.Unlock()
	return next, nil
}

// ActiveTasks returns the active list filtered and sorted per the view state
func (a *App) ActiveTasks() []model.Task {
	return a.query(a.View().ActiveQuery())
}

// DoneTasks returns the done list filtered and sorted per the view state
func (a *App) DoneTasks() []model.Task {
	return a.query(a.View().DoneQuery())
}

func (a *App) query(q task.Query) []model.Task {
	all := a.Tasks.All()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sorter.Apply(all, q)
}

// Month returns the calendar grid of the view state's month
func (a *App) Month() calendar.MonthGrid {
	v := a.View()
	return calendar.Month(v.CalendarYear, v.CalendarMonth, a.Tasks.All())
}

// ShiftMonth moves the calendar by delta months
func (a *App) ShiftMonth(ctx context.Context, delta int) (ViewState, error) {
	return a.UpdateView(ctx, func(v *ViewState) {
		v.CalendarYear, v.CalendarMonth = calendar.ShiftMonth(v.CalendarYear, v.CalendarMonth, delta)
	})
}

// Close stops background work and flushes storage
func (a *App) Close() error {
	a.expiry.Stop()
	a.sweeper.Stop()

	var first error
	if err := a.store.Close(); err != nil {
		first = err
	}
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
