// Package storage persists the task, history and trash collections as JSON
// values under fixed keys. Two backends satisfy the same contract: a sqlite
// key/value table and a debounced whole-file snapshot.
package storage

import "context"

// Collection keys
const (
	KeyTasks        = "tm_tasks_v2"
	KeyProjects     = "tm_projects_v1"
	KeyProjectTrash = "tm_projects_trash_v1"
	KeyTodos        = "tm_todos_v1"
	KeyTodoTrash    = "tm_todos_trash_v1"
	KeyDoneTrash    = "tm_done_trash_v1"
	KeyView         = "taskr_view_v1"
)

// Keys lists every collection key in load order
var Keys = []string{KeyTasks, KeyProjects, KeyProjectTrash, KeyTodos, KeyTodoTrash, KeyDoneTrash, KeyView}

// Backend stores opaque JSON values by key
type Backend interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Flush forces pending writes to durable storage
	Flush(ctx context.Context) error
	Close() error
}
