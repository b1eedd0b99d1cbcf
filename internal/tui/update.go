package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/model"
)

// tickMsg is sent every second for time updates
type tickMsg time.Time

// snapshotMsg carries a snapshot pushed by the refresher
type snapshotMsg aggregate.Snapshot

// logoutMsg reports the result of a logout request
type logoutMsg struct{ err error }

// Init starts the clock and listens for refreshed snapshots
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForSnapshot())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForSnapshot listens for refresher updates
func (m Model) waitForSnapshot() tea.Cmd {
	if m.refreshChan == nil {
		return nil
	}
	ch := m.refreshChan
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// Delay state depends on the clock
		m.dash.Status = aggregate.ComputeStatusCounts(m.snap.Tasks, m.now())
		if m.criteria.Delayed {
			m.applyFilter()
		}
		return m, tickCmd()

	case snapshotMsg:
		m.setSnapshot(aggregate.Snapshot(msg))
		m.message = "Refreshed " + m.now().Format("15:04:05")
		return m, m.waitForSnapshot()

	case logoutMsg:
		if msg.err != nil {
			m.message = "Logout failed: " + msg.err.Error()
			return m, nil
		}
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeConfirmDelete:
			return m.updateConfirm(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Tab):
		if m.view == ViewDashboard {
			m.enterTasks()
		} else {
			m.view = ViewDashboard
		}

	case key.Matches(msg, keys.Refresh):
		m.loadData()
		m.message = "Refreshed"

	case key.Matches(msg, keys.Logout):
		if m.opts.Logout == nil {
			m.message = "Local backend has no session"
			return m, nil
		}
		logout := m.opts.Logout
		m.message = "Logging out..."
		return m, func() tea.Msg {
			return logoutMsg{err: logout(context.Background())}
		}

	case m.view == ViewDashboard:
		return m.handleDashboardKeys(msg)

	default:
		return m.handleListKeys(msg)
	}
	return m, nil
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := msg.String()
	if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(kpiTokens) {
		t := kpiTokens[s[0]-'1']
		logger.Debug("KPI card selected", logger.F("token", string(t)))
		m.dispatch(t)
		return m, nil
	}
	if key.Matches(msg, keys.Enter) {
		m.enterTasks()
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}

	case msg.String() == "g":
		m.cursor = 0

	case msg.String() == "G":
		if len(m.visible) > 0 {
			m.cursor = len(m.visible) - 1
		}

	case key.Matches(msg, keys.Escape):
		m.criteria = aggregate.Criteria{}
		m.input.SetValue("")
		m.applyFilter()
		m.message = "Filters cleared"

	case key.Matches(msg, keys.Search):
		m.mode = ModeSearch
		m.input.SetValue(m.criteria.Search)
		m.input.Focus()

	case key.Matches(msg, keys.Status):
		m.criteria.Status = nextStatus(m.criteria.Status)
		m.applyFilter()

	case key.Matches(msg, keys.Priority):
		m.criteria.Priority = nextPriority(m.criteria.Priority)
		m.applyFilter()

	case key.Matches(msg, keys.Delayed):
		m.criteria.Delayed = !m.criteria.Delayed
		m.applyFilter()

	case key.Matches(msg, keys.Enter):
		m.cycleStatus()

	case key.Matches(msg, keys.Delete):
		t := m.currentTask()
		if t == nil {
			return m, nil
		}
		if m.opts.ConfirmDelete {
			m.mode = ModeConfirmDelete
			m.message = fmt.Sprintf("Delete %q? (y/n)", t.Title)
			return m, nil
		}
		m.deleteCurrent()
	}
	return m, nil
}

// updateSearch edits the search query, filtering live
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.input.Blur()
		m.input.SetValue("")
		m.criteria.Search = ""
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.criteria.Search = m.input.Value()
	m.cursor = 0
	m.applyFilter()
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		m.deleteCurrent()
	default:
		m.message = "Delete cancelled"
	}
	return m, nil
}

// cycleStatus moves the selected task to the next workflow status
func (m *Model) cycleStatus() {
	t := m.currentTask()
	if t == nil {
		return
	}
	task := *t
	next := nextStatus(task.Status)
	if next == "" {
		next = model.Statuses[0]
	}
	if err := m.svc.ChangeStatus(context.Background(), &task, next); err != nil {
		logger.Error("Failed to change status", logger.F("task_id", task.ID), logger.F("error", err))
		m.message = "Error: " + err.Error()
		return
	}
	m.replaceTask(task)
	m.notify(fmt.Sprintf("%s → %s", task.Title, next.Label()))
}

func (m *Model) deleteCurrent() {
	t := m.currentTask()
	if t == nil {
		return
	}
	id := t.ID
	if err := m.svc.RemoveTask(context.Background(), id); err != nil {
		logger.Error("Failed to delete task", logger.F("task_id", id), logger.F("error", err))
		m.message = "Error: " + err.Error()
		return
	}
	tasks := make([]model.Task, 0, len(m.snap.Tasks))
	for _, task := range m.snap.Tasks {
		if task.ID != id {
			tasks = append(tasks, task)
		}
	}
	snap := m.snap
	snap.Tasks = tasks
	m.setSnapshot(snap)
	m.notify("Task deleted")
}

// replaceTask swaps one task in the snapshot and recomputes the dashboard
func (m *Model) replaceTask(t model.Task) {
	tasks := make([]model.Task, len(m.snap.Tasks))
	copy(tasks, m.snap.Tasks)
	for i := range tasks {
		if tasks[i].ID == t.ID {
			tasks[i] = t
		}
	}
	snap := m.snap
	snap.Tasks = tasks
	m.setSnapshot(snap)
}

// nextStatus cycles "" → Pending → … → Rejected → ""
func nextStatus(s model.Status) model.Status {
	for i, st := range model.Statuses {
		if st == s {
			if i+1 < len(model.Statuses) {
				return model.Statuses[i+1]
			}
			return ""
		}
	}
	return model.Statuses[0]
}

// nextPriority cycles "" → Low → … → Urgent → ""
func nextPriority(p model.Priority) model.Priority {
	for i, pr := range model.Priorities {
		if pr == p {
			if i+1 < len(model.Priorities) {
				return model.Priorities[i+1]
			}
			return ""
		}
	}
	return model.Priorities[0]
}
