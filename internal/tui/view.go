package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var main string
	switch {
	case m.mode == ModeHelp:
		main = m.renderHelp()
	case m.view == ViewDashboard:
		main = m.renderDashboard()
	default:
		main = m.renderTaskList()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), main, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	dash, tasks := TabStyle, TabStyle
	if m.view == ViewDashboard {
		dash = TabActiveStyle
	} else {
		tasks = TabActiveStyle
	}
	title := HeaderStyle.Render("ProTask")
	clock := HelpStyle.Render(m.now().Format("15:04:05"))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, dash.Render("Dashboard"), tasks.Render("Tasks"), " ", clock)
}

func (m Model) renderDashboard() string {
	d := m.dash
	var b strings.Builder

	// KPI cards, numbered as their keys
	cards := []string{
		m.renderCard(1, "Completed", d.Status.Completed, false),
		m.renderCard(2, "In Progress", d.Status.InProgress, false),
		m.renderCard(3, "Pending", d.Status.Pending, false),
		m.renderCard(4, "Delayed", d.Status.Delayed, d.Status.Delayed > 0),
		m.renderUnplannedCard(),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n")

	b.WriteString(SectionStyle.Render("Delivery"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  On time %d · Late %d · %d%% on time\n",
		d.Delivery.OnTime, d.Delivery.Late, d.Delivery.OnTimePercentage)
	fmt.Fprintf(&b, "  Planned %d · Unplanned %d of %d tasks\n",
		d.Planning.Planned, d.Planning.Unplanned, d.Total)

	b.WriteString(SectionStyle.Render("Departments"))
	b.WriteString("\n")
	if len(d.Departments) == 0 {
		b.WriteString(HelpStyle.Render("  No department has tasks"))
		b.WriteString("\n")
	}
	maxCount := 0
	for _, dc := range d.Departments {
		if dc.Count > maxCount {
			maxCount = dc.Count
		}
	}
	for _, dc := range d.Departments {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(dc.Department.Color))
		fmt.Fprintf(&b, "  %-16s %s %d\n", Truncate(dc.Department.Name, 16),
			swatch.Render(Bar(float64(dc.Count), float64(maxCount), 20)), dc.Count)
	}

	b.WriteString(SectionStyle.Render(fmt.Sprintf("Workload (capacity %dh)", aggregate.WeeklyCapacity)))
	b.WriteString("\n")
	if len(d.Workload) == 0 {
		b.WriteString(HelpStyle.Render("  No team members"))
		b.WriteString("\n")
	}
	for _, l := range d.Workload {
		line := fmt.Sprintf("  %-16s %s %5.1fh", Truncate(l.Member.Name, 16),
			Bar(l.Hours, float64(l.Capacity), 20), l.Hours)
		if l.Overloaded() {
			line = OverloadStyle.Render(line + " overloaded")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderCard(n int, label string, value int, alert bool) string {
	style := CardStyle
	if alert {
		style = CardAlertStyle
	}
	return style.Render(fmt.Sprintf("%s %s\n%s",
		HelpStyle.Render(fmt.Sprintf("[%d]", n)), label,
		CardValueStyle.Render(fmt.Sprintf("%d", value))))
}

func (m Model) renderUnplannedCard() string {
	p := m.dash.Planning
	style := CardStyle
	label := "Unplanned"
	if p.Alert {
		style = CardAlertStyle
		label += " ⚠"
	}
	return style.Render(fmt.Sprintf("%s %s\n%s",
		HelpStyle.Render("[5]"), label,
		CardValueStyle.Render(fmt.Sprintf("%d%%", p.UnplannedPercentage))))
}

func (m Model) renderFilterBar() string {
	c := m.criteria
	part := func(name, value string) string {
		if value == "" {
			return HelpStyle.Render(name + ": any")
		}
		return FilterStyle.Render(name + ": " + value)
	}

	status := ""
	if c.Status != "" {
		status = c.Status.Label()
	}
	delayed := ""
	if c.Delayed {
		delayed = "yes"
	}
	search := c.Search
	if m.mode == ModeSearch {
		search = m.input.View()
	}

	return strings.Join([]string{
		part("[s]tatus", status),
		part("[p]riority", string(c.Priority)),
		part("[o]verdue", delayed),
		part("[/]search", search),
	}, "  ")
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		if m.criteria.IsEmpty() {
			b.WriteString(HelpStyle.Render("No tasks yet. Add one with: protask task add \"Title\""))
		} else {
			b.WriteString(HelpStyle.Render("No tasks match the filters (esc to clear)"))
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	// Keep the cursor on screen
	rows := m.height - 8
	if rows < 5 {
		rows = 5
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := start + rows
	if end > len(m.visible) {
		end = len(m.visible)
	}

	now := m.now()
	for i := start; i < end; i++ {
		t := &m.visible[i]
		delayed := t.IsDelayed(now)

		status := t.Status.Label()
		if delayed {
			status = "Delayed"
		}
		line := fmt.Sprintf("%-10s %-8s %-36s %-14s %-16s %s",
			Truncate(t.ProjectID, 10),
			PriorityStyle(t.Priority).Render(fmt.Sprintf("%-8s", t.Priority)),
			Truncate(t.Title, 36),
			Truncate(m.snap.AssigneeName(t), 14),
			StatusStyle(t.Status, delayed).Render(fmt.Sprintf("%-16s", status)),
			FormatDay(t.EndDate),
		)

		style := TaskItemStyle
		switch {
		case i == m.cursor:
			style = TaskItemSelectedStyle
		case t.Status == model.StatusCompleted || t.Status == model.StatusRejected:
			style = TaskDoneStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if len(m.visible) > rows {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(m.visible))))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 1).Render(b.String())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.message != "":
		left = m.message
	case m.view == ViewDashboard:
		left = fmt.Sprintf("%d tasks · %d members · %d departments",
			len(m.snap.Tasks), len(m.snap.Members), len(m.snap.Departments))
	default:
		left = fmt.Sprintf("%d of %d tasks", len(m.visible), len(m.snap.Tasks))
	}

	help := "1-5 KPI · tab tasks · r refresh · ? help · q quit"
	if m.view == ViewTasks {
		help = "enter status · d delete · esc clear · tab dashboard · ? help"
	}

	width := m.width - 2
	gap := width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 1 {
		gap = 1
	}
	return StatusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + help)
}

func (m Model) renderHelp() string {
	bindings := []struct {
		section string
		keys    []string
	}{
		{"Dashboard", []string{
			keyHelp(keys.Cards), keyHelp(keys.Tab), keyHelp(keys.Refresh),
		}},
		{"Tasks", []string{
			keyHelp(keys.Up), keyHelp(keys.Down), keyHelp(keys.Enter), keyHelp(keys.Delete),
			keyHelp(keys.Status), keyHelp(keys.Priority), keyHelp(keys.Delayed),
			keyHelp(keys.Search), keyHelp(keys.Escape),
		}},
		{"General", []string{
			keyHelp(keys.Logout), keyHelp(keys.Help), keyHelp(keys.Quit),
		}},
	}

	var b strings.Builder
	for _, s := range bindings {
		b.WriteString(SectionStyle.Render(s.section))
		b.WriteString("\n")
		for _, k := range s.keys {
			b.WriteString("  " + k + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Press any key to close"))

	return lipgloss.Place(m.width, m.height-3, lipgloss.Center, lipgloss.Center,
		ModalStyle.Render(b.String()))
}

func keyHelp(k key.Binding) string {
	h := k.Help()
	return fmt.Sprintf("%-8s %s", h.Key, h.Desc)
}
