package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/taskr/internal/calendar"
	"github.com/existflow/taskr/internal/model"
)

// Color palette
var (
	// Risk colors
	RiskPast   = lipgloss.Color("#FF6B6B") // Red
	RiskUrgent = lipgloss.Color("#FFB347") // Orange
	RiskSoon   = lipgloss.Color("#FFE66D") // Yellow
	RiskNormal = lipgloss.Color("#888888") // Gray

	// Type colors
	WorkColor    = lipgloss.Color("#4ECDC4")
	PrivateColor = lipgloss.Color("#C39BD3")

	// Calendar colors
	HolidayColor  = lipgloss.Color("#FF6B6B")
	SaturdayColor = lipgloss.Color("#6FA8DC")

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	Completed = lipgloss.Color("#95E1A3")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	PaneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	PaneFocusedStyle = PaneStyle.
				BorderForeground(Primary)

	TaskItemStyle = lipgloss.NewStyle()

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	DayCellStyle = lipgloss.NewStyle().
			Width(8).
			Align(lipgloss.Left)

	DayCellSelectedStyle = DayCellStyle.
				Background(Surface).
				Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// RiskStyle returns the color for a due-date risk class
func RiskStyle(class string) lipgloss.Style {
	switch class {
	case calendar.RiskPast:
		return lipgloss.NewStyle().Foreground(RiskPast).Bold(true)
	case calendar.RiskUrgent:
		return lipgloss.NewStyle().Foreground(RiskUrgent).Bold(true)
	case calendar.RiskSoon:
		return lipgloss.NewStyle().Foreground(RiskSoon)
	default:
		return lipgloss.NewStyle().Foreground(RiskNormal)
	}
}

// FormatType renders the colored type badge
func FormatType(t model.TaskType) string {
	if t == model.TypePrivate {
		return lipgloss.NewStyle().Foreground(PrivateColor).Render(t.Badge())
	}
	return lipgloss.NewStyle().Foreground(WorkColor).Render(t.Badge())
}
