// Package task owns the task collection and the done-task trash: creation,
// editing, completion, rescheduling, duplication and soft delete, together
// with the attachment lifecycle each of those implies.
package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/existflow/taskr/internal/attachment"
	"github.com/existflow/taskr/internal/calendar"
	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/retention"
	"github.com/existflow/taskr/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrNotDone   = errors.New("task is not done")
	ErrAmbiguous = errors.New("ambiguous task id")
)

// Input carries the editable fields of a task
type Input struct {
	Type    model.TaskType
	Project string
	Todo    string
	Note    string
	DueDate string
	DueTime string
}

func (in Input) apply(t *model.Task) {
	t.Type = in.Type
	t.Project = strings.TrimSpace(in.Project)
	t.Todo = strings.TrimSpace(in.Todo)
	t.Note = strings.TrimSpace(in.Note)
	t.DueDate = strings.TrimSpace(in.DueDate)
	t.DueTime = strings.TrimSpace(in.DueTime)
	if !calendar.ValidTime(t.DueTime) {
		t.DueTime = ""
	}
	t.Normalize()
}

// InputFrom returns the editable fields of t
func InputFrom(t model.Task) Input {
	return Input{Type: t.Type, Project: t.Project, Todo: t.Todo, Note: t.Note, DueDate: t.DueDate, DueTime: t.DueTime}
}

// Repository holds tasks and done-trash in memory and writes the whole
// collection back after every mutation.
type Repository struct {
	store       *storage.Store
	attachments *attachment.Service
	clock       clock.Clock
	log         *logger.Logger

	mu    sync.RWMutex
	tasks []model.Task
	trash []model.DoneTrashEntry
}

// NewRepository seeds a repository with loaded collections
func NewRepository(store *storage.Store, att *attachment.Service, clk clock.Clock, log *logger.Logger, tasks []model.Task, trash []model.DoneTrashEntry) *Repository {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Repository{
		store:       store,
		attachments: att,
		clock:       clk,
		log:         log.WithFields(logger.F("component", "task")),
		tasks:       tasks,
		trash:       trash,
	}
}

func (r *Repository) indexOf(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) persistTasks(ctx context.Context, tasks []model.Task) error {
	if err := r.store.SaveTasks(ctx, tasks); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	r.tasks = tasks
	return nil
}

func (r *Repository) persistTrash(ctx context.Context, trash []model.DoneTrashEntry) error {
	if err := r.store.SaveDoneTrash(ctx, trash); err != nil {
		return fmt.Errorf("failed to save done trash: %w", err)
	}
	r.trash = trash
	return nil
}

// revertTrash writes prev back after a failed task write so a task never
// sits in both collections
func (r *Repository) revertTrash(ctx context.Context, prev []model.DoneTrashEntry) {
	if err := r.persistTrash(ctx, prev); err != nil {
		r.log.Error("Failed to roll back done trash", logger.F("error", err))
	}
}

func (r *Repository) copyTasks() []model.Task {
	out := make([]model.Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Clone()
	}
	return out
}

// update applies fn to a copy of task id and persists the result
func (r *Repository) update(ctx context.Context, id string, fn func(t *model.Task)) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Task{}, ErrNotFound
	}
	tasks := r.copyTasks()
	fn(&tasks[i])
	if err := r.persistTasks(ctx, tasks); err != nil {
		return model.Task{}, err
	}
	return tasks[i].Clone(), nil
}

// Create validates files, stores them and appends a new active task
func (r *Repository) Create(ctx context.Context, in Input, files []attachment.Upload) (model.Task, error) {
	if err := attachment.Validate(files, 0); err != nil {
		return model.Task{}, err
	}

	now := r.clock.Now()
	t := model.NewTask(uuid.New().String(), in.Type, "", "", now)
	in.apply(&t)

	if len(files) > 0 {
		metas, err := r.attachments.Save(ctx, t.ID, files)
		if err != nil {
			return model.Task{}, fmt.Errorf("failed to save attachments: %w", err)
		}
		t.Attachments = metas
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := append(r.copyTasks(), t)
	if err := r.persistTasks(ctx, tasks); err != nil {
		if len(files) > 0 {
			_ = r.attachments.DeleteAllForTask(ctx, t.ID)
		}
		return model.Task{}, err
	}
	r.log.Info("Task created", logger.F("id", t.ID), logger.F("attachments", len(t.Attachments)))
	return t.Clone(), nil
}

// Edit replaces the task's fields, keeps the attachments listed in keep,
// stores files as new attachments and deletes the rest. Validation runs
// against the kept count; on failure nothing changes.
func (r *Repository) Edit(ctx context.Context, id string, in Input, keep []string, files []attachment.Upload) (model.Task, error) {
	current, ok := r.Get(id)
	if !ok {
		return model.Task{}, ErrNotFound
	}

	keepSet := make(map[string]bool, len(keep))
	for _, k := range keep {
		keepSet[k] = true
	}
	var kept []model.AttachmentMeta
	var removed []string
	for _, a := range current.Attachments {
		if keepSet[a.ID] {
			kept = append(kept, a)
		} else {
			removed = append(removed, a.ID)
		}
	}

	if err := attachment.Validate(files, len(kept)); err != nil {
		return model.Task{}, err
	}
	added, err := r.attachments.Save(ctx, id, files)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to save attachments: %w", err)
	}
	for _, aid := range removed {
		if err := r.attachments.Delete(ctx, aid); err != nil {
			for _, m := range added {
				_ = r.attachments.Delete(ctx, m.ID)
			}
			return model.Task{}, fmt.Errorf("failed to delete attachment: %w", err)
		}
	}

	now := r.clock.Now()
	updated, err := r.update(ctx, id, func(t *model.Task) {
		in.apply(t)
		t.UpdatedAt = now
		t.Attachments = append(append([]model.AttachmentMeta{}, kept...), added...)
	})
	if err != nil {
		return model.Task{}, err
	}
	r.log.Info("Task edited", logger.F("id", id), logger.F("added", len(added)), logger.F("removed", len(removed)))
	return updated, nil
}

// AddAttachments stores files on an existing task
func (r *Repository) AddAttachments(ctx context.Context, id string, files []attachment.Upload) (model.Task, error) {
	t, ok := r.Get(id)
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return r.Edit(ctx, id, InputFrom(t), t.AttachmentIDs(), files)
}

// RemoveAttachment drops one attachment from a task and deletes its record
func (r *Repository) RemoveAttachment(ctx context.Context, id, attachmentID string) (model.Task, error) {
	t, ok := r.Get(id)
	if !ok {
		return model.Task{}, ErrNotFound
	}
	var keep []string
	found := false
	for _, aid := range t.AttachmentIDs() {
		if aid == attachmentID {
			found = true
			continue
		}
		keep = append(keep, aid)
	}
	if !found {
		return model.Task{}, attachment.ErrNotFound
	}
	return r.Edit(ctx, id, InputFrom(t), keep, nil)
}

// Complete marks the task done
func (r *Repository) Complete(ctx context.Context, id string) (model.Task, error) {
	now := r.clock.Now()
	t, err := r.update(ctx, id, func(t *model.Task) { t.MarkDone(now) })
	if err == nil {
		r.log.Info("Task completed", logger.F("id", id))
	}
	return t, err
}

// Restore reopens a done task
func (r *Repository) Restore(ctx context.Context, id string) (model.Task, error) {
	now := r.clock.Now()
	t, err := r.update(ctx, id, func(t *model.Task) { t.MarkActive(now) })
	if err == nil {
		r.log.Info("Task reopened", logger.F("id", id))
	}
	return t, err
}

// Reschedule moves the due date by delta days from the current due date, or
// from today when there is none. A missing task is ignored.
func (r *Repository) Reschedule(ctx context.Context, id string, delta int) (model.Task, bool, error) {
	now := r.clock.Now()
	t, err := r.update(ctx, id, func(t *model.Task) {
		base := now
		if d, err := calendar.ParseDateKey(t.DueDate); err == nil {
			base = d
		}
		t.DueDate = calendar.ToLocalDateKey(base.AddDate(0, 0, delta))
		t.UpdatedAt = now
	})
	if errors.Is(err, ErrNotFound) {
		return model.Task{}, false, nil
	}
	if err != nil {
		return model.Task{}, false, err
	}
	r.log.Debug("Task rescheduled", logger.F("id", id), logger.F("due", t.DueDate))
	return t, true, nil
}

// Duplicate copies a task under a new id as an active task. Attachments are
// copied best effort; the result tells how many survived.
func (r *Repository) Duplicate(ctx context.Context, id string) (model.Task, attachment.DuplicateResult, error) {
	src, ok := r.Get(id)
	if !ok {
		return model.Task{}, attachment.DuplicateResult{}, ErrNotFound
	}

	newID := uuid.New().String()
	res, err := r.attachments.Duplicate(ctx, src.Attachments, newID)
	if err != nil {
		return model.Task{}, res, fmt.Errorf("failed to duplicate attachments: %w", err)
	}
	if res.Produced < res.Attempted {
		r.log.Warn("Some attachments could not be duplicated",
			logger.F("id", id), logger.F("attempted", res.Attempted), logger.F("produced", res.Produced))
	}

	now := r.clock.Now()
	cp := src.Clone()
	cp.ID = newID
	cp.MarkActive(now)
	cp.CreatedAt = now
	cp.Attachments = res.Metas

	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := append(r.copyTasks(), cp)
	if err := r.persistTasks(ctx, tasks); err != nil {
		_ = r.attachments.DeleteAllForTask(ctx, newID)
		return model.Task{}, res, err
	}
	r.log.Info("Task duplicated", logger.F("from", id), logger.F("id", newID))
	return cp.Clone(), res, nil
}

// Delete moves done tasks into the done trash and deletes their attachment
// records. Every id must name a done task. Tasks are pushed to the front one
// at a time in stored order, so the last stored task ends up at index 0.
func (r *Repository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		i := r.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !r.tasks[i].Done {
			return fmt.Errorf("%w: %s", ErrNotDone, id)
		}
		remove[id] = true
	}

	now := r.clock.Now()
	var batch []model.DoneTrashEntry
	tasks := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if remove[t.ID] {
			batch = append(batch, model.DoneTrashEntry{Task: t.Clone(), DeletedAt: now})
			continue
		}
		tasks = append(tasks, t.Clone())
	}
	slices.Reverse(batch)

	for _, e := range batch {
		if err := r.attachments.DeleteAllForTask(ctx, e.Task.ID); err != nil {
			return fmt.Errorf("failed to delete attachments of %s: %w", e.Task.ID, err)
		}
	}
	prev := r.trash
	if err := r.persistTrash(ctx, retention.Prepend(prev, batch...)); err != nil {
		return err
	}
	if err := r.persistTasks(ctx, tasks); err != nil {
		r.revertTrash(ctx, prev)
		return err
	}
	r.log.Info("Tasks moved to trash", logger.F("count", len(batch)))
	return nil
}

// RestoreFromTrash puts the trashed task at index back as a done task. Its
// attachment records were deleted with it, so it comes back without any.
func (r *Repository) RestoreFromTrash(ctx context.Context, index int) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, rest, err := retention.Restore(r.trash, index)
	if err != nil {
		return model.Task{}, err
	}
	t := entry.Task.Clone()
	t.Done = true
	if t.CompletedAt == nil {
		completed := entry.DeletedAt
		t.CompletedAt = &completed
	}
	t.Attachments = []model.AttachmentMeta{}

	tasks := r.copyTasks()
	if r.indexOf(t.ID) >= 0 {
		t.ID = uuid.New().String()
	}
	tasks = append(tasks, t)
	prev := r.trash
	if err := r.persistTrash(ctx, rest); err != nil {
		return model.Task{}, err
	}
	if err := r.persistTasks(ctx, tasks); err != nil {
		r.revertTrash(ctx, prev)
		return model.Task{}, err
	}
	r.log.Info("Task restored from trash", logger.F("id", t.ID))
	return t.Clone(), nil
}

// PurgeTrash drops trash entries past their TTL and reports whether any were
// dropped
func (r *Repository) PurgeTrash(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := retention.Purge(r.trash, retention.DoneTTL, r.clock.Now())
	if len(kept) == len(r.trash) {
		return false, nil
	}
	dropped := len(r.trash) - len(kept)
	if err := r.persistTrash(ctx, kept); err != nil {
		return false, err
	}
	r.log.Debug("Done trash purged", logger.F("dropped", dropped))
	return true, nil
}

// ClearTrash permanently empties the done trash
func (r *Repository) ClearTrash(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.trash) == 0 {
		return nil
	}
	return r.persistTrash(ctx, []model.DoneTrashEntry{})
}

// StripAttachments removes references to the given attachment ids from every
// task and persists only when something changed
func (r *Repository) StripAttachments(ctx context.Context, ids map[string]struct{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	tasks := r.copyTasks()
	for i := range tasks {
		kept := tasks[i].Attachments[:0]
		for _, a := range tasks[i].Attachments {
			if _, gone := ids[a.ID]; gone {
				changed = true
				continue
			}
			kept = append(kept, a)
		}
		tasks[i].Attachments = kept
	}
	if !changed {
		return false, nil
	}
	return true, r.persistTasks(ctx, tasks)
}

// Add appends already built tasks, used by import
func (r *Repository) Add(ctx context.Context, incoming []model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistTasks(ctx, append(r.copyTasks(), incoming...))
}

// Get returns a copy of the task with id
func (r *Repository) Get(id string) (model.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.tasks[i].Clone(), true
	}
	return model.Task{}, false
}

// Resolve finds a task by full id or by a unique id prefix
func (r *Repository) Resolve(ref string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var match *model.Task
	for i := range r.tasks {
		t := &r.tasks[i]
		if t.ID == ref {
			return t.Clone(), nil
		}
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			if match != nil {
				return model.Task{}, fmt.Errorf("%w %q", ErrAmbiguous, ref)
			}
			match = t
		}
	}
	if match == nil {
		return model.Task{}, ErrNotFound
	}
	return match.Clone(), nil
}

// All returns copies of every task in stored order
func (r *Repository) All() []model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyTasks()
}

// Trash returns the done trash, most recent first
func (r *Repository) Trash() []model.DoneTrashEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.DoneTrashEntry, len(r.trash))
	for i, e := range r.trash {
		out[i] = model.DoneTrashEntry{Task: e.Task.Clone(), DeletedAt: e.DeletedAt}
	}
	return out
}

// NextExpiry returns when the oldest trash entry expires
func (r *Repository) NextExpiry() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return retention.NextExpiry(r.trash, retention.DoneTTL)
}
