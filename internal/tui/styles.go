package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/protask/internal/model"
)

// Color palette
var (
	// Priority colors
	PriorityUrgent = lipgloss.Color("#FF6B6B")
	PriorityHigh   = lipgloss.Color("#FFB347")
	PriorityMedium = lipgloss.Color("#FFE66D")
	PriorityLow    = lipgloss.Color("#4ECDC4")

	// Status colors
	Completed  = lipgloss.Color("#95E1A3")
	InProgress = lipgloss.Color("#6C9EFF")
	Pending    = lipgloss.Color("#FFE66D")
	Delayed    = lipgloss.Color("#FF6B6B")
	Rejected   = lipgloss.Color("#6C757D")

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	Text      = lipgloss.Color("#FFFFFF")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Alert     = lipgloss.Color("#FF6B6B")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Surface).
			Bold(true).
			Padding(0, 1)

	// KPI cards
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1).
			Width(16)

	CardAlertStyle = CardStyle.
			BorderForeground(Alert).
			Foreground(Alert)

	CardValueStyle = lipgloss.NewStyle().Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginTop(1)

	// Task list
	TaskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	FilterStyle = lipgloss.NewStyle().
			Foreground(Primary)

	// Status bar
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

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)

	OverloadStyle = lipgloss.NewStyle().Foreground(Alert).Bold(true)
)

// PriorityStyle returns the style for a given priority
func PriorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityUrgent:
		return lipgloss.NewStyle().Foreground(PriorityUrgent).Bold(true)
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(PriorityHigh).Bold(true)
	case model.PriorityMedium:
		return lipgloss.NewStyle().Foreground(PriorityMedium)
	default:
		return lipgloss.NewStyle().Foreground(PriorityLow)
	}
}

// StatusStyle returns the style for a status; delayed wins over the status color
func StatusStyle(s model.Status, delayed bool) lipgloss.Style {
	if delayed {
		return lipgloss.NewStyle().Foreground(Delayed).Bold(true)
	}
	switch s {
	case model.StatusCompleted:
		return lipgloss.NewStyle().Foreground(Completed)
	case model.StatusInProgress:
		return lipgloss.NewStyle().Foreground(InProgress)
	case model.StatusRejected:
		return lipgloss.NewStyle().Foreground(Rejected)
	default:
		return lipgloss.NewStyle().Foreground(Pending)
	}
}
