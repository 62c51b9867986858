package app

import (
	"time"

	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/task"
)

// View is the main screen layout
type View string

const (
	ViewList     View = "list"
	ViewCalendar View = "calendar"
)

// Filters holds the per-type toggles of both lists
type Filters struct {
	Active task.TypeFilter `json:"active"`
	Done   task.TypeFilter `json:"done"`
}

// ViewState is the user's current selection of filters, orderings and view.
// It is persisted so the CLI and TUI share it.
type ViewState struct {
	NewType       model.TaskType `json:"newType"`
	Filters       Filters        `json:"filters"`
	ProjectFilter string         `json:"projectFilter"`
	SortActive    task.SortKey   `json:"sortActive"`
	SortDone      task.SortKey   `json:"sortDone"`
	View          View           `json:"view"`
	CalendarYear  int            `json:"calendarYear"`
	CalendarMonth time.Month     `json:"calendarMonth"`
}

// DefaultViewState shows everything, due-ordered, in the list view on the
// current month
func DefaultViewState(now time.Time) ViewState {
	return ViewState{
		NewType:       model.TypeWork,
		Filters:       Filters{Active: task.AllTypes, Done: task.AllTypes},
		SortActive:    task.SortDue,
		SortDone:      task.SortCompleted,
		View:          ViewList,
		CalendarYear:  now.Year(),
		CalendarMonth: now.Month(),
	}
}

func (v *ViewState) normalize(now time.Time) {
	if !v.NewType.Valid() {
		v.NewType = model.TypeWork
	}
	v.SortActive = task.ParseSortKey(string(v.SortActive), task.SortDue)
	if v.SortActive == task.SortCompleted {
		v.SortActive = task.SortDue
	}
	if v.SortDone != task.SortProject {
		v.SortDone = task.SortCompleted
	}
	if v.View != ViewCalendar {
		v.View = ViewList
	}
	if v.CalendarYear == 0 || v.CalendarMonth < time.January || v.CalendarMonth > time.December {
		v.CalendarYear, v.CalendarMonth = now.Year(), now.Month()
	}
}

// ActiveQuery selects the active list
func (v ViewState) ActiveQuery() task.Query {
	return task.Query{Types: v.Filters.Active, Project: v.ProjectFilter, Sort: v.SortActive}
}

// DoneQuery selects the done list
func (v ViewState) DoneQuery() task.Query {
	return task.Query{Done: true, Types: v.Filters.Done, Sort: v.SortDone}
}
