// Package tui is the interactive terminal front end: the active and done
// lists, the month calendar and the trash, all driven by an app.App.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/model"
)

// Pane represents which list is focused
type Pane int

const (
	PaneActive Pane = iota
	PaneDone
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeEditTask
	ModeProjectFilter
	ModeConfirm
	ModeTrash
	ModeHelp
)

// TrashTab selects which trash the trash panel shows
type TrashTab int

const (
	TrashDone TrashTab = iota
	TrashProjects
	TrashTodos
)

// Form fields
const (
	fieldProject = iota
	fieldTodo
	fieldDueDate
	fieldDueTime
	fieldNote
	fieldCount
)

// Model is the main TUI model
type Model struct {
	app *app.App
	log *logger.Logger

	active []model.Task
	done   []model.Task
	view   app.ViewState
	now    time.Time

	// refreshChan is signalled when background work changed data
	refreshChan chan struct{}

	// UI state
	width    int
	height   int
	pane     Pane
	mode     Mode
	cursors  [2]int
	calDay   int
	trashTab TrashTab
	trashCur int

	// Task form
	fields   []textinput.Model
	focus    int
	formType model.TaskType
	editID   string

	// Single-line input for the project filter
	input textinput.Model

	// Pending confirmation
	confirmText string
	confirmFn   func() error

	message string
}

// NewModel creates a new TUI model over a
func NewModel(a *app.App) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Project (empty clears the filter)"
	ti.CharLimit = 128
	ti.Width = 40
	ti.ShowSuggestions = true

	m := Model{
		app:         a,
		log:         logger.WithFields(logger.F("component", "tui")),
		mode:        ModeNormal,
		input:       ti,
		fields:      newFields(),
		refreshChan: make(chan struct{}, 1),
	}

	ch := m.refreshChan
	a.OnChange(func() {
		// Non-blocking send to trigger UI refresh
		select {
		case ch <- struct{}{}:
		default:
		}
	})

	m.loadData()
	m.log.Debug("TUI model initialized",
		logger.F("active", len(m.active)),
		logger.F("done", len(m.done)))
	return m
}

func newFields() []textinput.Model {
	placeholders := [fieldCount]string{
		fieldProject: "Project",
		fieldTodo:    "Todo",
		fieldDueDate: "Due date YYYY-MM-DD",
		fieldDueTime: "Due time HH:MM",
		fieldNote:    "Note",
	}
	fields := make([]textinput.Model, fieldCount)
	for i := range fields {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 256
		ti.Width = 40
		fields[i] = ti
	}
	fields[fieldProject].ShowSuggestions = true
	fields[fieldTodo].ShowSuggestions = true
	fields[fieldDueDate].CharLimit = 10
	fields[fieldDueTime].CharLimit = 5
	return fields
}

func (m *Model) loadData() {
	m.now = m.app.Now()
	m.view = m.app.View()
	m.active = m.app.ActiveTasks()
	m.done = m.app.DoneTasks()
	m.cursors[PaneActive] = clamp(m.cursors[PaneActive], len(m.active))
	m.cursors[PaneDone] = clamp(m.cursors[PaneDone], len(m.done))
}

func (m *Model) list(p Pane) []model.Task {
	if p == PaneDone {
		return m.done
	}
	return m.active
}

func (m *Model) currentTask() *model.Task {
	tasks := m.list(m.pane)
	c := m.cursors[m.pane]
	if c < len(tasks) {
		return &tasks[c]
	}
	return nil
}

// trashLen returns the entry count of the selected trash
func (m *Model) trashLen() int {
	switch m.trashTab {
	case TrashProjects:
		return len(m.app.Projects.Trash())
	case TrashTodos:
		return len(m.app.Todos.Trash())
	}
	return len(m.app.Tasks.Trash())
}
