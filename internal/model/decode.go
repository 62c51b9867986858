package model

import (
	"strings"
	"time"
)

// ParseTimestamp reads a timestamp stored either as epoch milliseconds or as
// an RFC 3339 string. Older data files use the numeric form.
func ParseTimestamp(v any) (time.Time, bool) {
	switch x := v.(type) {
	case float64:
		if x <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)), true
	case int64:
		return time.UnixMilli(x), x > 0
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// DecodeTask builds a task from loosely typed JSON, defaulting whatever is
// missing or malformed. Timestamps that cannot be read become now.
func DecodeTask(m map[string]any, now time.Time) Task {
	t := Task{
		ID:      str(m, "id"),
		Type:    TaskType(str(m, "type")),
		Project: str(m, "project"),
		Todo:    str(m, "todo"),
		Note:    str(m, "note"),
		DueDate: strings.TrimSpace(str(m, "dueDate")),
		DueTime: strings.TrimSpace(str(m, "dueTime")),
	}
	t.Done, _ = m["done"].(bool)

	t.CreatedAt = now
	if ts, ok := ParseTimestamp(m["createdAt"]); ok {
		t.CreatedAt = ts
	}
	t.UpdatedAt = t.CreatedAt
	if ts, ok := ParseTimestamp(m["updatedAt"]); ok {
		t.UpdatedAt = ts
	}
	if t.Done {
		completed := t.UpdatedAt
		if ts, ok := ParseTimestamp(m["completedAt"]); ok {
			completed = ts
		}
		t.CompletedAt = &completed
	}

	if list, ok := m["attachments"].([]any); ok {
		for _, item := range list {
			a, ok := item.(map[string]any)
			if !ok || str(a, "id") == "" {
				continue
			}
			meta := AttachmentMeta{
				ID:   str(a, "id"),
				Name: str(a, "name"),
				Type: str(a, "type"),
			}
			if size, ok := a["size"].(float64); ok {
				meta.Size = int64(size)
			}
			meta.CreatedAt, _ = ParseTimestamp(a["createdAt"])
			meta.ExpiresAt, _ = ParseTimestamp(a["expiresAt"])
			t.Attachments = append(t.Attachments, meta)
		}
	}

	t.Normalize()
	return t
}
