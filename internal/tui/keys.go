package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Tab      key.Binding
	Enter    key.Binding
	Cards    key.Binding
	Search   key.Binding
	Status   key.Binding
	Priority key.Binding
	Delayed  key.Binding
	Delete   key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
	Logout   key.Binding
	Refresh  key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "dashboard/tasks")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next status")),
	Cards:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "open KPI")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Status:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status filter")),
	Priority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority filter")),
	Delayed:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "delayed only")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filters")),
	Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Refresh:  key.NewBinding(key.WithKeys("R", "r"), key.WithHelp("r", "refresh")),
}
