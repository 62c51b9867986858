package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Enter      key.Binding
	Add        key.Binding
	Edit       key.Binding
	Done       key.Binding
	Delete     key.Binding
	DeleteAll  key.Binding
	Later      key.Binding
	Earlier    key.Binding
	Duplicate  key.Binding
	Sort       key.Binding
	Work       key.Binding
	Private    key.Binding
	NewType    key.Binding
	Project    key.Binding
	Calendar   key.Binding
	PrevMonth  key.Binding
	NextMonth  key.Binding
	Trash      key.Binding
	Restore    key.Binding
	ClearTrash key.Binding
	ToggleType key.Binding
	Help       key.Binding
	Quit       key.Binding
	Escape     key.Binding
	Yes        key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch list")),
	ShiftTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle done")),
	Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Done:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete done task")),
	DeleteAll:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete all done")),
	Later:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "due +1 day")),
	Earlier:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "due -1 day")),
	Duplicate:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "duplicate")),
	Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
	Work:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "toggle work")),
	Private:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "toggle private")),
	NewType:    key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "default type")),
	Project:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "project filter")),
	Calendar:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "list/calendar")),
	PrevMonth:  key.NewBinding(key.WithKeys("[", "<"), key.WithHelp("[", "previous month")),
	NextMonth:  key.NewBinding(key.WithKeys("]", ">"), key.WithHelp("]", "next month")),
	Trash:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trash")),
	Restore:    key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "restore")),
	ClearTrash: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "empty trash")),
	ToggleType: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "work/private")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Yes:        key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
}
