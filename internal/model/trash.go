package model

import "time"

// HistoryKind names one of the two recency lists
type HistoryKind string

const (
	HistoryProject HistoryKind = "project"
	HistoryTodo    HistoryKind = "todo"
)

// Valid reports whether k is a known history list
func (k HistoryKind) Valid() bool {
	return k == HistoryProject || k == HistoryTodo
}

// HistoryTrashEntry wraps a removed project or todo name
type HistoryTrashEntry struct {
	Value     string    `json:"value"`
	DeletedAt time.Time `json:"deletedAt"`
}

// Deleted returns the soft-delete timestamp
func (e HistoryTrashEntry) Deleted() time.Time { return e.DeletedAt }

// DoneTrashEntry wraps a snapshot of a completed task removed from the done list
type DoneTrashEntry struct {
	Task      Task      `json:"task"`
	DeletedAt time.Time `json:"deletedAt"`
}

// Deleted returns the soft-delete timestamp
func (e DoneTrashEntry) Deleted() time.Time { return e.DeletedAt }
