package storage

import (
	"time"

	"github.com/existflow/taskr/internal/model"
)

func decodeTasks(list []any, now time.Time) []model.Task {
	tasks := make([]model.Task, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t := model.DecodeTask(m, now)
		if t.ID == "" {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func decodeStrings(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeHistoryTrash accepts bare strings and wrapped entries. Entries
// without a readable deletion time are treated as deleted now. legacy
// reports whether any entry needed that treatment.
func decodeHistoryTrash(list []any, now time.Time) (entries []model.HistoryTrashEntry, legacy bool) {
	entries = make([]model.HistoryTrashEntry, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			entries = append(entries, model.HistoryTrashEntry{Value: v, DeletedAt: now})
			legacy = true
		case map[string]any:
			value, _ := v["value"].(string)
			if value == "" {
				continue
			}
			deleted, ok := model.ParseTimestamp(v["deletedAt"])
			if !ok {
				deleted = now
				legacy = true
			}
			entries = append(entries, model.HistoryTrashEntry{Value: value, DeletedAt: deleted})
		}
	}
	return entries, legacy
}

// decodeDoneTrash accepts wrapped entries and bare task objects
func decodeDoneTrash(list []any, now time.Time) (entries []model.DoneTrashEntry, legacy bool) {
	entries = make([]model.DoneTrashEntry, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		taskRaw, wrapped := m["task"].(map[string]any)
		if !wrapped {
			taskRaw = m
			legacy = true
		}
		t := model.DecodeTask(taskRaw, now)
		if t.ID == "" {
			continue
		}
		deleted, ok := model.ParseTimestamp(m["deletedAt"])
		if !wrapped || !ok {
			deleted = now
			legacy = true
		}
		entries = append(entries, model.DoneTrashEntry{Task: t, DeletedAt: deleted})
	}
	return entries, legacy
}
