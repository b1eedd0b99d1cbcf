package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/remote"
	"github.com/existflow/protask/internal/store"
)

// View is the screen currently shown
type View int

const (
	ViewDashboard View = iota
	ViewTasks
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeConfirmDelete
	ModeHelp
)

// Options tune the TUI
type Options struct {
	ConfirmDelete bool
	Logout        func(context.Context) error // nil when the backend has no session
}

// kpiTokens maps the dashboard cards, in display order, to the quick filter
// each one raises
var kpiTokens = []aggregate.Token{
	aggregate.TokenCompleted,
	aggregate.TokenInProgress,
	aggregate.TokenPending,
	aggregate.TokenDelayed,
	aggregate.TokenUrgent,
}

// Model is the main TUI model
type Model struct {
	svc  *store.Service
	opts Options

	// Data
	snap    aggregate.Snapshot
	dash    aggregate.Dashboard
	visible []model.Task

	// Filters
	quick    *aggregate.QuickFilter
	criteria aggregate.Criteria

	// Refresh
	refreshChan chan aggregate.Snapshot

	// UI state
	width   int
	height  int
	view    View
	mode    Mode
	cursor  int
	input   textinput.Model
	message string

	now func() time.Time
}

// NewModel creates a new TUI model. The refresher may be nil.
func NewModel(svc *store.Service, refresher *remote.Refresher, opts Options) Model {
	logger.Info("Initializing TUI model")

	m := newModel(svc, opts, time.Now)

	if refresher != nil {
		ch := m.refreshChan
		refresher.SetOnChange(func(snap aggregate.Snapshot) {
			logger.Debug("Refresh callback triggered")
			// Keep only the newest snapshot
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		})
	}

	if m.loadData() && refresher != nil {
		refresher.Seed(m.snap)
	}
	logger.Debug("TUI model initialized",
		logger.F("tasks", len(m.snap.Tasks)),
		logger.F("members", len(m.snap.Members)))
	return m
}

func newModel(svc *store.Service, opts Options, now func() time.Time) Model {
	ti := textinput.New()
	ti.Placeholder = "Search title or project..."
	ti.CharLimit = 128
	ti.Width = 40

	return Model{
		svc:         svc,
		opts:        opts,
		quick:       &aggregate.QuickFilter{},
		refreshChan: make(chan aggregate.Snapshot, 1),
		view:        ViewDashboard,
		mode:        ModeNormal,
		input:       ti,
		now:         now,
	}
}

// loadData reloads the snapshot from the provider and reports success
func (m *Model) loadData() bool {
	snap, err := store.LoadSnapshot(context.Background(), m.svc, m.svc.OwnerID)
	if err != nil {
		logger.Error("Failed to load snapshot", logger.F("error", err))
		m.message = "Load failed: " + err.Error()
		return false
	}
	m.setSnapshot(snap)
	return true
}

// setSnapshot replaces the data and recomputes every statistic
func (m *Model) setSnapshot(snap aggregate.Snapshot) {
	m.snap = snap
	m.dash = aggregate.Compute(snap, m.now())
	m.applyFilter()
}

func (m *Model) applyFilter() {
	m.visible = aggregate.FilterTasks(m.snap.Tasks, m.criteria, m.now())
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// dispatch raises a quick filter from a dashboard card and opens the list
func (m *Model) dispatch(t aggregate.Token) {
	m.quick.Set(t)
	m.enterTasks()
}

// enterTasks switches to the task list, consuming a pending quick filter once
func (m *Model) enterTasks() {
	m.view = ViewTasks
	if c, ok := m.criteria.Consume(m.quick); ok {
		m.criteria = c
		m.cursor = 0
		m.input.SetValue("")
	}
	m.applyFilter()
}

func (m *Model) currentTask() *model.Task {
	if m.cursor >= 0 && m.cursor < len(m.visible) {
		return &m.visible[m.cursor]
	}
	return nil
}

// notify shows the newest service notification, if any
func (m *Model) notify(fallback string) {
	if msgs := m.svc.Notifications(); len(msgs) > 0 {
		m.message = msgs[0]
		return
	}
	m.message = fallback
}
