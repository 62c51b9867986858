package task

import (
	"testing"
	"time"

	"github.com/existflow/taskr/internal/model"
	"github.com/stretchr/testify/assert"
)

func mk(id, project, date, tm string, created int) model.Task {
	t := model.NewTask(id, model.TypeWork, project, id, t0.Add(time.Duration(created)*time.Minute))
	t.DueDate, t.DueTime = date, tm
	return t
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestSortByDue(t *testing.T) {
	tasks := []model.Task{
		mk("undated", "", "", "", 0),
		mk("untimed", "", "2025-01-02", "", 1),
		mk("late", "", "2025-01-02", "18:00", 2),
		mk("early", "", "2025-01-02", "08:00", 3),
		mk("first", "", "2025-01-01", "", 4),
		mk("untimed-older", "", "2025-01-02", "", 0),
	}
	NewSorter().Sort(tasks, SortDue)
	assert.Equal(t, []string{"first", "early", "late", "untimed-older", "untimed", "undated"}, ids(tasks))
}

func TestSortByProjectIgnoresCase(t *testing.T) {
	tasks := []model.Task{
		mk("b", "beta", "", "", 0),
		mk("A2", "Alpha", "2025-01-05", "", 1),
		mk("a1", "alpha", "2025-01-01", "", 2),
	}
	NewSorter().Sort(tasks, SortProject)
	assert.Equal(t, []string{"a1", "A2", "b"}, ids(tasks))
}

func TestSortCompletedDescending(t *testing.T) {
	a := mk("a", "", "", "", 0)
	a.MarkDone(t0)
	b := mk("b", "", "", "", 0)
	b.MarkDone(t0.Add(time.Hour))
	tasks := []model.Task{a, b}
	NewSorter().Sort(tasks, SortCompleted)
	assert.Equal(t, []string{"b", "a"}, ids(tasks))
}

func TestApplyFilters(t *testing.T) {
	work := mk("w", "P", "", "", 0)
	private := mk("p", "P", "", "", 1)
	private.Type = model.TypePrivate
	other := mk("o", "Q", "", "", 2)
	done := mk("d", "P", "", "", 3)
	done.MarkDone(t0)
	all := []model.Task{work, private, other, done}

	s := NewSorter()
	assert.Equal(t, []string{"w", "p", "o"}, ids(s.Apply(all, Query{Types: AllTypes})))
	assert.Equal(t, []string{"p"}, ids(s.Apply(all, Query{Types: TypeFilter{Private: true}})))
	assert.Equal(t, []string{"w", "p"}, ids(s.Apply(all, Query{Types: AllTypes, Project: "P"})))
	assert.Equal(t, []string{"d"}, ids(s.Apply(all, Query{Done: true, Types: AllTypes, Project: "Q"})))
	assert.Equal(t, []string{"P", "Q"}, Projects(all))
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortProject, ParseSortKey("Project", SortDue))
	assert.Equal(t, SortDue, ParseSortKey("bogus", SortDue))
}
