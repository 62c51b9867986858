package task

import "github.com/existflow/taskr/internal/model"

// TypeFilter toggles visibility per task type
type TypeFilter struct {
	Work    bool `json:"work" yaml:"work"`
	Private bool `json:"private" yaml:"private"`
}

// AllTypes shows both types
var AllTypes = TypeFilter{Work: true, Private: true}

// Allows reports whether tasks of typ pass the filter
func (f TypeFilter) Allows(typ model.TaskType) bool {
	if typ == model.TypePrivate {
		return f.Private
	}
	return f.Work
}

// Query selects and orders one of the two task lists
type Query struct {
	Done    bool
	Types   TypeFilter
	Project string // exact match, active list only
	Sort    SortKey
}

// Apply filters tasks by q and returns them sorted
func (s *Sorter) Apply(tasks []model.Task, q Query) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Done != q.Done || !q.Types.Allows(t.Type) {
			continue
		}
		if !q.Done && q.Project != "" && t.Project != q.Project {
			continue
		}
		out = append(out, t)
	}
	key := q.Sort
	if key == "" {
		key = SortDue
		if q.Done {
			key = SortCompleted
		}
	}
	s.Sort(out, key)
	return out
}

// Projects returns the distinct project names of active tasks in first-seen
// order
func Projects(tasks []model.Task) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tasks {
		if t.Done || t.Project == "" || seen[t.Project] {
			continue
		}
		seen[t.Project] = true
		out = append(out, t.Project)
	}
	return out
}
