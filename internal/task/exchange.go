package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/taskr/internal/calendar"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/model"
	"github.com/google/uuid"
)

// ExportNote marks that blobs are not part of an export
const ExportNote = "attachments_not_included"

var ErrImportParse = errors.New("import data is not a task list")

// ExportTask is the exported shape of a task. Timestamps are written as
// RFC 3339 strings. Import also accepts the epoch milliseconds of older data
// files, but exports are never written in that form.
type ExportTask struct {
	ID        string         `json:"id"`
	Type      model.TaskType `json:"type"`
	Project   string         `json:"project"`
	Todo      string         `json:"todo"`
	Note      string         `json:"note"`
	DueDate   string         `json:"dueDate"`
	DueTime   string         `json:"dueTime"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Export is the export document
type Export struct {
	Version    int          `json:"version"`
	ExportedAt time.Time    `json:"exportedAt"`
	Note       string       `json:"note"`
	Tasks      []ExportTask `json:"tasks"`
}

// BuildExport converts tasks into an export document
func BuildExport(tasks []model.Task, now time.Time) Export {
	out := Export{Version: 1, ExportedAt: now.UTC(), Note: ExportNote, Tasks: make([]ExportTask, 0, len(tasks))}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, ExportTask{
			ID:        t.ID,
			Type:      t.Type,
			Project:   t.Project,
			Todo:      t.Todo,
			Note:      t.Note,
			DueDate:   t.DueDate,
			DueTime:   t.DueTime,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		})
	}
	return out
}

// ParseImport reads either a bare array of tasks or an export document and
// returns sanitized active tasks. Ids already in existing, repeated within
// the payload, or missing get a fresh id.
func ParseImport(data []byte, existing []model.Task, now time.Time) ([]model.Task, error) {
	data = bytes.TrimSpace(data)
	var items []any
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportParse, err)
		}
	case len(data) > 0 && data[0] == '{':
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportParse, err)
		}
		list, ok := doc["tasks"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: missing tasks array", ErrImportParse)
		}
		items = list
	default:
		return nil, ErrImportParse
	}

	used := make(map[string]bool, len(existing)+len(items))
	for _, t := range existing {
		used[t.ID] = true
	}

	tasks := make([]model.Task, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: task entry is not an object", ErrImportParse)
		}
		t := model.DecodeTask(m, now)
		if t.ID == "" || used[t.ID] {
			t.ID = uuid.New().String()
		}
		used[t.ID] = true
		if !calendar.ValidTime(t.DueTime) {
			t.DueTime = ""
		}
		if _, err := calendar.ParseDateKey(t.DueDate); err != nil {
			t.DueDate, t.DueTime = "", ""
		}
		t.Done = false
		t.CompletedAt = nil
		t.Attachments = []model.AttachmentMeta{}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Import parses data and appends the tasks. Nothing is added when parsing
// fails.
func (r *Repository) Import(ctx context.Context, data []byte) ([]model.Task, error) {
	tasks, err := ParseImport(data, r.All(), r.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := r.Add(ctx, tasks); err != nil {
		return nil, err
	}
	r.log.Info("Tasks imported", logger.F("count", len(tasks)))
	return tasks, nil
}

// Export builds an export of every task
func (r *Repository) Export() Export {
	return BuildExport(r.All(), r.clock.Now())
}
