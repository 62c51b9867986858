package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/calendar"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/retention"
	"github.com/existflow/taskr/internal/task"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var mainContent string
	if m.view.View == app.ViewCalendar {
		mainContent = m.renderCalendar()
	} else {
		mainContent = m.renderLists()
	}

	var modal string
	switch m.mode {
	case ModeAddTask, ModeEditTask:
		modal = m.renderForm()
	case ModeProjectFilter:
		modal = m.renderProjectFilter()
	case ModeConfirm:
		modal = ModalStyle.Render(m.confirmText + "\n\n" + HelpStyle.Render("y:yes  any other key:no"))
	case ModeTrash:
		modal = m.renderTrash()
	case ModeHelp:
		mainContent = m.renderHelp()
	}
	if modal != "" {
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			modal,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), mainContent, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("taskr")
	clock := HelpStyle.Render(m.now.Format("2006-01-02 15:04:05"))
	info := fmt.Sprintf("new:%s", FormatType(m.view.NewType))
	if m.view.ProjectFilter != "" {
		info += "  project:" + m.view.ProjectFilter
	}
	line := title + "  " + clock + "  " + info
	if next, ok := m.app.NextExpiry(); ok {
		line += HelpStyle.Render("  trash purge in " + next.Sub(m.now).Round(time.Second).String())
	}
	return line
}

func filterLabel(f task.TypeFilter) string {
	var parts []string
	if f.Work {
		parts = append(parts, "W")
	}
	if f.Private {
		parts = append(parts, "P")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "+")
}

func (m Model) renderLists() string {
	half := m.width/2 - 2
	height := m.height - 5
	active := m.renderList(PaneActive, half, height,
		fmt.Sprintf("Active (%d)  [%s · %s]", len(m.active), filterLabel(m.view.Filters.Active), m.view.SortActive))
	done := m.renderList(PaneDone, m.width-half-4, height,
		fmt.Sprintf("Done (%d)  [%s · %s]", len(m.done), filterLabel(m.view.Filters.Done), m.view.SortDone))
	return lipgloss.JoinHorizontal(lipgloss.Top, active, done)
}

func (m Model) renderList(p Pane, width, height int, header string) string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(header) + "\n")
	s.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 1))) + "\n")

	tasks := m.list(p)
	if len(tasks) == 0 {
		if p == PaneActive {
			s.WriteString(HelpStyle.Render("No tasks. Press 'a' to add one."))
		} else {
			s.WriteString(HelpStyle.Render("Nothing completed yet."))
		}
	}

	// Scroll so the cursor stays visible
	rows := max(height-3, 1)
	start := 0
	if c := m.cursors[p]; c >= rows {
		start = c - rows + 1
	}
	for i := start; i < len(tasks) && i < start+rows; i++ {
		s.WriteString(m.renderTaskLine(tasks[i], i == m.cursors[p] && p == m.pane, width-4) + "\n")
	}

	style := PaneStyle
	if p == m.pane {
		style = PaneFocusedStyle
	}
	return style.Width(width).Height(height).Render(s.String())
}

func (m Model) renderTaskLine(t model.Task, selected bool, width int) string {
	cursor := "  "
	style := TaskItemStyle
	if selected {
		cursor = "❯ "
		style = TaskItemSelectedStyle
	}

	icon := "[ ]"
	if t.Done {
		icon = "[x]"
	}

	label := t.Todo
	if t.Project != "" {
		label = t.Project + " / " + t.Todo
	}
	if len(t.Attachments) > 0 {
		label += fmt.Sprintf(" 📎%d", len(t.Attachments))
	}

	var due string
	if t.Done {
		due = HelpStyle.Render(pad(calendar.FormatDate(t.DueDate, t.DueTime), 18))
		label = TaskDoneStyle.Render(truncate(label, max(width-28, 8)))
	} else {
		risk := calendar.RiskLabel(t.DueDate, m.now)
		due = RiskStyle(risk.Class).Render(pad(risk.Text, 8)) + " " +
			pad(calendar.FormatDate(t.DueDate, t.DueTime), 18)
		label = truncate(label, max(width-38, 8))
	}

	return style.Render(cursor+icon+" ") + FormatType(t.Type) + " " + due + " " + label
}

func (m Model) renderCalendar() string {
	grid := m.app.Month()
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(grid.Title) + HelpStyle.Render("   [ / ] month  ←↑↓→ day") + "\n\n")

	holiday := lipgloss.NewStyle().Foreground(HolidayColor)
	saturday := lipgloss.NewStyle().Foreground(SaturdayColor)
	for i, wd := range []string{"月", "火", "水", "木", "金", "土", "日"} {
		cell := DayCellStyle
		switch i {
		case 5:
			cell = cell.Inherit(saturday)
		case 6:
			cell = cell.Inherit(holiday)
		}
		s.WriteString(cell.Render(wd))
	}
	s.WriteString("\n")

	var row []string
	for i := 0; i < grid.Leading; i++ {
		row = append(row, DayCellStyle.Render(""))
	}
	today := calendar.ToLocalDateKey(m.now)
	for i, d := range grid.Days {
		text := fmt.Sprintf("%2d", d.Date.Day())
		if d.Key == today {
			text = "*" + strings.TrimSpace(text)
		}
		if n := len(d.Tasks); n > 0 {
			text += fmt.Sprintf(" •%d", n)
		}
		cell := DayCellStyle
		if i == m.calDay {
			cell = DayCellSelectedStyle
		}
		switch {
		case d.Holiday:
			cell = cell.Inherit(holiday)
		case d.Saturday:
			cell = cell.Inherit(saturday)
		}
		row = append(row, cell.Render(text))
		if len(row) == 7 {
			s.WriteString(strings.Join(row, "") + "\n")
			row = row[:0]
		}
	}
	if len(row) > 0 {
		s.WriteString(strings.Join(row, "") + "\n")
	}

	if m.calDay < len(grid.Days) {
		d := grid.Days[m.calDay]
		s.WriteString("\n" + HeaderStyle.Render(fmt.Sprintf("%s(%s)", d.Key, d.Weekday)) + "\n")
		if len(d.Tasks) == 0 {
			s.WriteString(HelpStyle.Render("No tasks due") + "\n")
		}
		for _, t := range d.Tasks {
			when := t.DueTime
			if when == "" {
				when = "--:--"
			}
			s.WriteString(fmt.Sprintf("  %s %s %s  %s\n", FormatType(t.Type), when,
				truncate(t.Todo, m.width-30), HelpStyle.Render(calendar.RemindText(t.DueDate, t.DueTime, m.now))))
		}
	}
	return PaneFocusedStyle.Width(m.width - 2).Height(m.height - 5).Render(s.String())
}

func (m Model) renderForm() string {
	title := "Add Task"
	if m.mode == ModeEditTask {
		title = "Edit Task"
	}
	content := lipgloss.NewStyle().Bold(true).Render(title) + "  " + FormatType(m.formType) + "\n\n"
	labels := [fieldCount]string{"Project", "Todo", "Due", "Time", "Note"}
	for i, f := range m.fields {
		content += pad(labels[i], 8) + f.View() + "\n"
	}
	content += "\n" + HelpStyle.Render("Tab/↓:next  ctrl+t:work/private  Enter:save  Esc:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderProjectFilter() string {
	content := lipgloss.NewStyle().Bold(true).Render("Filter by project") + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Tab:complete  Enter:apply  Esc:cancel")
	return ModalStyle.Render(content)
}

// remaining renders the time left before a trash entry is purged
func (m Model) remaining(deletedAt time.Time, ttl time.Duration) string {
	left := deletedAt.Add(ttl).Sub(m.now)
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("%ds", int(left.Round(time.Second)/time.Second))
}

func (m Model) renderTrash() string {
	modalWidth := 64
	tabs := []string{"Tasks", "Projects", "Todos"}
	var header []string
	for i, t := range tabs {
		if TrashTab(i) == m.trashTab {
			header = append(header, HeaderStyle.Render("["+t+"]"))
		} else {
			header = append(header, HelpStyle.Render(" "+t+" "))
		}
	}
	content := lipgloss.NewStyle().Bold(true).Render("Trash") + "  " + strings.Join(header, " ") + "\n\n"

	var lines []string
	switch m.trashTab {
	case TrashProjects, TrashTodos:
		repo := m.app.Projects
		if m.trashTab == TrashTodos {
			repo = m.app.Todos
		}
		for _, e := range repo.Trash() {
			lines = append(lines, fmt.Sprintf("%-5s %s", m.remaining(e.DeletedAt, retention.HistoryTTL), truncate(e.Value, modalWidth-16)))
		}
	default:
		for _, e := range m.app.Tasks.Trash() {
			label := e.Task.Todo
			if e.Task.Project != "" {
				label = e.Task.Project + " / " + label
			}
			lines = append(lines, fmt.Sprintf("%-5s %s %s", m.remaining(e.DeletedAt, retention.DoneTTL), e.Task.Type.Badge(), truncate(label, modalWidth-18)))
		}
	}

	if len(lines) == 0 {
		content += HelpStyle.Render("Empty") + "\n"
	}
	for i, l := range lines {
		if i == m.trashCur {
			content += TaskItemSelectedStyle.Render("❯ "+l) + "\n"
		} else {
			content += "  " + l + "\n"
		}
	}

	content += "\n" + HelpStyle.Render("Tab:switch  r/Enter:restore  C:empty all  Esc:close")
	return ModalStyle.Width(modalWidth).Render(content)
}

func (m Model) renderStatusBar() string {
	if m.message != "" {
		return StatusBarStyle.Width(m.width).Render(m.message)
	}
	help := "a:add  e:edit  x:done  d:del  +/-:due  c:dup  s:sort  w/p:type  /:project  v:calendar  t:trash  ?:help  q:quit"
	return StatusBarStyle.Width(m.width).Render(truncate(help, m.width-2))
}

func (m Model) renderHelp() string {
	help := `
╭──────── Keyboard Shortcuts ────────╮
│                                    │
│  Navigation                        │
│  ──────────                        │
│  j/k ↑/↓   Move                    │
│  Tab h/l   Switch list             │
│  g/G       Top / bottom            │
│  v         List / calendar         │
│  [ ]       Previous / next month   │
│                                    │
│  Tasks                             │
│  ─────                             │
│  a         Add task                │
│  e         Edit task               │
│  x/Enter   Toggle done             │
│  + / -     Due date +1 / -1 day    │
│  c         Duplicate               │
│  d / D     Delete done / all done  │
│                                    │
│  Lists                             │
│  ─────                             │
│  s         Cycle sort              │
│  w / p     Toggle work / private   │
│  T         Default type for new    │
│  /         Project filter          │
│  t         Trash                   │
│                                    │
│  ?         Toggle help             │
│  q         Quit                    │
│                                    │
╰────────────────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
