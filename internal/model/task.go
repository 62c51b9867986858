package model

import "time"

// TaskType separates work tasks from private ones
type TaskType string

const (
	TypeWork    TaskType = "work"
	TypePrivate TaskType = "private"
)

// Valid reports whether t is one of the known task types
func (t TaskType) Valid() bool {
	return t == TypeWork || t == TypePrivate
}

// Badge returns the single-letter marker shown in lists
func (t TaskType) Badge() string {
	if t == TypePrivate {
		return "P"
	}
	return "W"
}

// Task represents a single todo item
type Task struct {
	ID          string           `json:"id"`
	Type        TaskType         `json:"type"`
	Project     string           `json:"project"`
	Todo        string           `json:"todo"`
	Note        string           `json:"note"`
	DueDate     string           `json:"dueDate"` // YYYY-MM-DD local date key, "" when undecided
	DueTime     string           `json:"dueTime"` // HH:MM, only set together with DueDate
	Done        bool             `json:"done"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	CompletedAt *time.Time       `json:"completedAt"`
	Attachments []AttachmentMeta `json:"attachments"`
}

// NewTask creates an active task with fresh timestamps
func NewTask(id string, typ TaskType, project, todo string, now time.Time) Task {
	if !typ.Valid() {
		typ = TypeWork
	}
	return Task{
		ID:          id,
		Type:        typ,
		Project:     project,
		Todo:        todo,
		CreatedAt:   now,
		UpdatedAt:   now,
		Attachments: []AttachmentMeta{},
	}
}

// MarkDone completes the task at now
func (t *Task) MarkDone(now time.Time) {
	t.Done = true
	completed := now
	t.CompletedAt = &completed
	t.UpdatedAt = now
}

// MarkActive reopens the task; CompletedAt is cleared with it
func (t *Task) MarkActive(now time.Time) {
	t.Done = false
	t.CompletedAt = nil
	t.UpdatedAt = now
}

// Normalize repairs invariants on a task read from storage or an import
func (t *Task) Normalize() {
	if !t.Type.Valid() {
		t.Type = TypeWork
	}
	if !t.Done {
		t.CompletedAt = nil
	}
	if t.DueDate == "" {
		t.DueTime = ""
	}
	if t.Attachments == nil {
		t.Attachments = []AttachmentMeta{}
	}
}

// Clone returns a deep copy so callers can mutate snapshots freely
func (t Task) Clone() Task {
	c := t
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		c.CompletedAt = &completed
	}
	c.Attachments = append([]AttachmentMeta{}, t.Attachments...)
	return c
}

// AttachmentIDs lists the ids of the task's attachment references
func (t Task) AttachmentIDs() []string {
	ids := make([]string, 0, len(t.Attachments))
	for _, a := range t.Attachments {
		ids = append(ids, a.ID)
	}
	return ids
}
