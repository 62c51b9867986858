package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/calendar"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/task"
)

// tickMsg is sent every second for countdown updates
type tickMsg time.Time

// refreshMsg is sent when background work changed data
type refreshMsg struct{}

// Init initializes the model with a tick command
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForRefresh())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForRefresh listens for change signals from the app
func (m Model) waitForRefresh() tea.Cmd {
	if m.refreshChan == nil {
		return nil
	}
	return func() tea.Msg {
		<-m.refreshChan
		return refreshMsg{}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// Each render pass purges expired trash and runs a sweep unless one
		// is already in flight
		if _, err := m.app.Refresh(context.Background()); err != nil {
			m.log.Warn("Refresh failed", logger.F("error", err))
		}
		m.loadData()
		return m, tickCmd()

	case refreshMsg:
		m.loadData()
		return m, m.waitForRefresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeAddTask, ModeEditTask:
			return m.updateForm(msg)
		case ModeProjectFilter:
			return m.updateProjectFilter(msg)
		case ModeConfirm:
			return m.updateConfirm(msg)
		case ModeTrash:
			return m.updateTrash(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		if m.view.View == app.ViewCalendar {
			if handled, next, cmd := m.handleCalendarKeys(msg); handled {
				return next, cmd
			}
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		if m.pane == PaneActive {
			m.pane = PaneDone
		} else {
			m.pane = PaneActive
		}

	case key.Matches(msg, keys.Up):
		if m.cursors[m.pane] > 0 {
			m.cursors[m.pane]--
		}

	case key.Matches(msg, keys.Down):
		if m.cursors[m.pane] < len(m.list(m.pane))-1 {
			m.cursors[m.pane]++
		}

	case msg.String() == "G":
		m.cursors[m.pane] = clamp(len(m.list(m.pane))-1, len(m.list(m.pane)))

	case msg.String() == "g":
		m.cursors[m.pane] = 0

	case key.Matches(msg, keys.Add):
		return m.startAddTask()

	case key.Matches(msg, keys.Edit):
		return m.startEditTask()

	case key.Matches(msg, keys.Done), key.Matches(msg, keys.Enter):
		m.handleToggleDone()

	case key.Matches(msg, keys.Delete):
		m.handleDelete()

	case key.Matches(msg, keys.DeleteAll):
		m.handleDeleteAll()

	case key.Matches(msg, keys.Later):
		m.handleReschedule(1)

	case key.Matches(msg, keys.Earlier):
		m.handleReschedule(-1)

	case key.Matches(msg, keys.Duplicate):
		m.handleDuplicate()

	case key.Matches(msg, keys.Sort):
		m.handleSort()

	case key.Matches(msg, keys.Work):
		m.toggleFilter(model.TypeWork)

	case key.Matches(msg, keys.Private):
		m.toggleFilter(model.TypePrivate)

	case key.Matches(msg, keys.NewType):
		m.updateView(func(v *app.ViewState) {
			if v.NewType == model.TypeWork {
				v.NewType = model.TypePrivate
			} else {
				v.NewType = model.TypeWork
			}
		})
		m.message = "New tasks: " + string(m.view.NewType)

	case key.Matches(msg, keys.Project):
		return m.startProjectFilter()

	case key.Matches(msg, keys.Calendar):
		m.updateView(func(v *app.ViewState) {
			if v.View == app.ViewCalendar {
				v.View = app.ViewList
			} else {
				v.View = app.ViewCalendar
			}
		})
		m.calDay = m.todayIndex()

	case key.Matches(msg, keys.Trash):
		m.mode = ModeTrash
		m.trashCur = 0

	case key.Matches(msg, keys.Escape):
		if m.view.ProjectFilter != "" {
			m.updateView(func(v *app.ViewState) { v.ProjectFilter = "" })
			m.message = "Project filter cleared"
		}

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

// handleCalendarKeys moves the day cursor and pages months. Keys it does not
// handle fall through to the list bindings.
func (m Model) handleCalendarKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	grid := m.app.Month()
	n := len(grid.Days)
	switch {
	case key.Matches(msg, keys.Left):
		m.calDay = clamp(m.calDay-1, n)
	case key.Matches(msg, keys.Right):
		m.calDay = clamp(m.calDay+1, n)
	case key.Matches(msg, keys.Up):
		m.calDay = clamp(m.calDay-7, n)
	case key.Matches(msg, keys.Down):
		m.calDay = clamp(m.calDay+7, n)
	case key.Matches(msg, keys.PrevMonth):
		m.shiftMonth(-1)
	case key.Matches(msg, keys.NextMonth):
		m.shiftMonth(1)
	default:
		return false, m, nil
	}
	return true, m, nil
}

func (m *Model) shiftMonth(delta int) {
	if _, err := m.app.ShiftMonth(context.Background(), delta); err != nil {
		m.fail("Failed to change month", err)
		return
	}
	m.loadData()
	m.calDay = m.todayIndex()
}

// todayIndex returns today's cell in the shown month, or the 1st
func (m *Model) todayIndex() int {
	v := m.app.View()
	if v.CalendarYear == m.now.Year() && v.CalendarMonth == m.now.Month() {
		return m.now.Day() - 1
	}
	return 0
}

func (m *Model) fail(what string, err error) {
	m.log.Warn(what, logger.F("error", err))
	m.message = fmt.Sprintf("%s: %v", what, err)
}

func (m *Model) updateView(fn func(v *app.ViewState)) {
	if _, err := m.app.UpdateView(context.Background(), fn); err != nil {
		m.fail("Failed to save view", err)
	}
	m.loadData()
}

func (m *Model) toggleFilter(typ model.TaskType) {
	m.updateView(func(v *app.ViewState) {
		f := &v.Filters.Active
		if m.pane == PaneDone {
			f = &v.Filters.Done
		}
		if typ == model.TypePrivate {
			f.Private = !f.Private
		} else {
			f.Work = !f.Work
		}
	})
}

func (m *Model) handleSort() {
	m.updateView(func(v *app.ViewState) {
		if m.pane == PaneDone {
			if v.SortDone == task.SortCompleted {
				v.SortDone = task.SortProject
			} else {
				v.SortDone = task.SortCompleted
			}
			return
		}
		switch v.SortActive {
		case task.SortDue:
			v.SortActive = task.SortProject
		case task.SortProject:
			v.SortActive = task.SortCreated
		default:
			v.SortActive = task.SortDue
		}
	})
	if m.pane == PaneDone {
		m.message = "Done list sorted by " + string(m.view.SortDone)
	} else {
		m.message = "Active list sorted by " + string(m.view.SortActive)
	}
}

func (m *Model) handleToggleDone() {
	t := m.currentTask()
	if t == nil {
		return
	}
	ctx := context.Background()
	var err error
	if t.Done {
		_, err = m.app.Tasks.Restore(ctx, t.ID)
		m.message = "Restored: " + t.Todo
	} else {
		_, err = m.app.Tasks.Complete(ctx, t.ID)
		m.message = "Completed: " + t.Todo
	}
	if err != nil {
		m.fail("Failed to update task", err)
	}
	m.loadData()
}

func (m *Model) handleDelete() {
	t := m.currentTask()
	if t == nil {
		return
	}
	if !t.Done {
		m.message = "Only completed tasks can be deleted"
		return
	}
	id, name := t.ID, t.Todo
	m.ask(fmt.Sprintf("Move %q to the trash?", name), func() error {
		return m.app.Tasks.Delete(context.Background(), id)
	})
}

func (m *Model) handleDeleteAll() {
	if len(m.done) == 0 {
		m.message = "No completed tasks"
		return
	}
	ids := make([]string, len(m.done))
	for i, t := range m.done {
		ids[i] = t.ID
	}
	m.ask(fmt.Sprintf("Move %d completed tasks to the trash?", len(ids)), func() error {
		return m.app.Tasks.Delete(context.Background(), ids...)
	})
}

func (m *Model) handleReschedule(delta int) {
	t := m.currentTask()
	if t == nil {
		return
	}
	updated, ok, err := m.app.Tasks.Reschedule(context.Background(), t.ID, delta)
	switch {
	case err != nil:
		m.fail("Failed to reschedule", err)
	case ok:
		m.message = "Due " + calendar.FormatDate(updated.DueDate, updated.DueTime)
	}
	m.loadData()
}

func (m *Model) handleDuplicate() {
	t := m.currentTask()
	if t == nil {
		return
	}
	dup, res, err := m.app.Tasks.Duplicate(context.Background(), t.ID)
	if err != nil {
		m.fail("Failed to duplicate", err)
		return
	}
	m.message = "Duplicated: " + dup.Todo
	if res.Produced < res.Attempted {
		m.message += fmt.Sprintf(" (%d of %d attachments copied)", res.Produced, res.Attempted)
	}
	m.loadData()
}

// ask switches to the confirmation prompt; fn runs on "y"
func (m *Model) ask(question string, fn func() error) {
	m.mode = ModeConfirm
	m.confirmText = question
	m.confirmFn = fn
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fn := m.confirmFn
	back := ModeNormal
	if m.confirmText == clearTrashQuestion {
		back = ModeTrash
	}
	m.mode = back
	m.confirmFn = nil
	m.confirmText = ""

	if key.Matches(msg, keys.Yes) && fn != nil {
		if err := fn(); err != nil {
			m.fail("Failed", err)
		} else {
			m.message = "Done"
		}
		m.loadData()
		m.trashCur = clamp(m.trashCur, m.trashLen())
	} else {
		m.message = "Cancelled"
	}
	return m, nil
}

func (m Model) startAddTask() (tea.Model, tea.Cmd) {
	m.mode = ModeAddTask
	m.editID = ""
	m.formType = m.view.NewType
	for i := range m.fields {
		m.fields[i].SetValue("")
	}
	return m.openForm()
}

func (m Model) startEditTask() (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	m.mode = ModeEditTask
	m.editID = t.ID
	m.formType = t.Type
	m.fields[fieldProject].SetValue(t.Project)
	m.fields[fieldTodo].SetValue(t.Todo)
	m.fields[fieldDueDate].SetValue(t.DueDate)
	m.fields[fieldDueTime].SetValue(t.DueTime)
	m.fields[fieldNote].SetValue(t.Note)
	return m.openForm()
}

func (m Model) openForm() (tea.Model, tea.Cmd) {
	m.fields[fieldProject].SetSuggestions(m.app.Projects.Values())
	m.fields[fieldTodo].SetSuggestions(m.app.Todos.Values())
	m.focus = fieldProject
	if m.mode == ModeAddTask && m.view.ProjectFilter != "" {
		m.fields[fieldProject].SetValue(m.view.ProjectFilter)
		m.focus = fieldTodo
	}
	m.focusField()
	return m, textinput.Blink
}

func (m *Model) focusField() {
	for i := range m.fields {
		if i == m.focus {
			m.fields[i].Focus()
			m.fields[i].CursorEnd()
		} else {
			m.fields[i].Blur()
		}
	}
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.ToggleType):
		if m.formType == model.TypeWork {
			m.formType = model.TypePrivate
		} else {
			m.formType = model.TypeWork
		}
		return m, nil

	case msg.Type == tea.KeyTab && m.focus != fieldProject && m.focus != fieldTodo,
		msg.Type == tea.KeyDown:
		m.focus = (m.focus + 1) % fieldCount
		m.focusField()
		return m, nil

	case key.Matches(msg, keys.ShiftTab), msg.Type == tea.KeyUp:
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		m.focusField()
		return m, nil

	case key.Matches(msg, keys.Enter):
		return m.submitForm()
	}

	// Tab in the project and todo fields accepts the suggestion first
	if msg.Type == tea.KeyTab {
		before := m.fields[m.focus].Value()
		var cmd tea.Cmd
		m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
		if m.fields[m.focus].Value() == before {
			m.focus = (m.focus + 1) % fieldCount
			m.focusField()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m Model) formInput() task.Input {
	return task.Input{
		Type:    m.formType,
		Project: m.fields[fieldProject].Value(),
		Todo:    m.fields[fieldTodo].Value(),
		Note:    m.fields[fieldNote].Value(),
		DueDate: m.fields[fieldDueDate].Value(),
		DueTime: m.fields[fieldDueTime].Value(),
	}
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	in := m.formInput()
	if strings.TrimSpace(in.Todo) == "" {
		m.message = "Todo is required"
		return m, nil
	}
	if d := strings.TrimSpace(in.DueDate); d != "" {
		if _, err := calendar.ParseDateKey(d); err != nil {
			m.message = "Due date must be YYYY-MM-DD"
			return m, nil
		}
	}
	if t := strings.TrimSpace(in.DueTime); t != "" && !calendar.ValidTime(t) {
		m.message = "Due time must be HH:MM"
		return m, nil
	}

	ctx := context.Background()
	if m.mode == ModeEditTask {
		current, ok := m.app.Tasks.Get(m.editID)
		if !ok {
			m.mode = ModeNormal
			m.message = "Task no longer exists"
			m.loadData()
			return m, nil
		}
		if _, err := m.app.Tasks.Edit(ctx, m.editID, in, current.AttachmentIDs(), nil); err != nil {
			m.fail("Failed to edit task", err)
			return m, nil
		}
		m.message = "Updated: " + strings.TrimSpace(in.Todo)
	} else {
		if _, err := m.app.CreateTask(ctx, in, nil); err != nil {
			m.fail("Failed to add task", err)
			return m, nil
		}
		m.message = "Added: " + strings.TrimSpace(in.Todo)
	}

	m.mode = ModeNormal
	m.loadData()
	return m, nil
}

func (m Model) startProjectFilter() (tea.Model, tea.Cmd) {
	m.mode = ModeProjectFilter
	m.input.SetValue(m.view.ProjectFilter)
	m.input.SetSuggestions(task.Projects(m.app.Tasks.All()))
	m.input.Focus()
	m.input.CursorEnd()
	return m, textinput.Blink
}

func (m Model) updateProjectFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := strings.TrimSpace(m.input.Value())
		m.updateView(func(v *app.ViewState) { v.ProjectFilter = value })
		m.mode = ModeNormal
		if value == "" {
			m.message = "Project filter cleared"
		} else {
			m.message = "Project: " + value
		}
		m.cursors[PaneActive] = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

const clearTrashQuestion = "Permanently empty every trash?"

func (m Model) updateTrash(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch {
	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Trash):
		m.mode = ModeNormal

	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Right):
		m.trashTab = (m.trashTab + 1) % 3
		m.trashCur = 0

	case key.Matches(msg, keys.Left):
		m.trashTab = (m.trashTab + 2) % 3
		m.trashCur = 0

	case key.Matches(msg, keys.Up):
		if m.trashCur > 0 {
			m.trashCur--
		}

	case key.Matches(msg, keys.Down):
		if m.trashCur < m.trashLen()-1 {
			m.trashCur++
		}

	case key.Matches(msg, keys.Restore):
		if m.trashLen() == 0 {
			return m, nil
		}
		var err error
		switch m.trashTab {
		case TrashProjects:
			var v string
			v, err = m.app.Projects.Restore(ctx, m.trashCur)
			m.message = "Restored project: " + v
		case TrashTodos:
			var v string
			v, err = m.app.Todos.Restore(ctx, m.trashCur)
			m.message = "Restored todo: " + v
		default:
			var t model.Task
			t, err = m.app.Tasks.RestoreFromTrash(ctx, m.trashCur)
			m.message = "Restored: " + t.Todo
		}
		if err != nil {
			m.fail("Failed to restore", err)
		}
		m.loadData()
		m.trashCur = clamp(m.trashCur, m.trashLen())

	case key.Matches(msg, keys.ClearTrash):
		m.ask(clearTrashQuestion, func() error {
			return m.app.ClearTrash(ctx)
		})
	}
	return m, nil
}
