package task

import (
	"sort"
	"strings"

	"github.com/existflow/taskr/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects a list ordering
type SortKey string

const (
	SortDue       SortKey = "due"
	SortProject   SortKey = "project"
	SortCreated   SortKey = "created"
	SortCompleted SortKey = "completed"
)

// ParseSortKey returns the ordering named s, or def when s is unknown
func ParseSortKey(s string, def SortKey) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortDue:
		return SortDue
	case SortProject:
		return SortProject
	case SortCreated:
		return SortCreated
	case SortCompleted:
		return SortCompleted
	}
	return def
}

// noDueDate sorts undated tasks after every dated one
const noDueDate = "9999-12-31"

// noDueTime sorts untimed tasks after timed ones on the same date
const noDueTime = "99:99"

func dueKey(t model.Task) (string, string) {
	date, tm := t.DueDate, t.DueTime
	if date == "" {
		date = noDueDate
	}
	if tm == "" {
		tm = noDueTime
	}
	return date, tm
}

// LessByDue orders by due date, then due time, then creation
func LessByDue(a, b model.Task) bool {
	ad, at := dueKey(a)
	bd, bt := dueKey(b)
	if ad != bd {
		return ad < bd
	}
	if at != bt {
		return at < bt
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Sorter orders tasks; project names compare with Japanese collation,
// ignoring case
type Sorter struct {
	coll *collate.Collator
}

// NewSorter creates a sorter. Collators are not safe for concurrent use, so
// each caller keeps its own.
func NewSorter() *Sorter {
	return &Sorter{coll: collate.New(language.Japanese, collate.IgnoreCase)}
}

func (s *Sorter) lessByProject(a, b model.Task) bool {
	if c := s.coll.CompareString(a.Project, b.Project); c != 0 {
		return c < 0
	}
	return LessByDue(a, b)
}

// Sort orders tasks in place by key
func (s *Sorter) Sort(tasks []model.Task, key SortKey) {
	var less func(a, b model.Task) bool
	switch key {
	case SortProject:
		less = s.lessByProject
	case SortCreated:
		less = func(a, b model.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortCompleted:
		less = func(a, b model.Task) bool { return completedMillis(a) > completedMillis(b) }
	default:
		less = LessByDue
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
}

// SortNames orders names with the same collation used for projects
func (s *Sorter) SortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return s.coll.CompareString(names[i], names[j]) < 0
	})
}

func completedMillis(t model.Task) int64 {
	if t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.UnixMilli()
}
