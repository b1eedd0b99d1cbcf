package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/tui"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	alertStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
)

var priorityStyles = map[model.Priority]lipgloss.Style{
	model.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB347")).Bold(true),
	model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D")),
	model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")),
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return "[x]"
	case model.StatusInProgress:
		return "[~]"
	case model.StatusRejected:
		return "[-]"
	default:
		return "[ ]"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printTasks(snap aggregate.Snapshot, tasks []model.Task, now time.Time) {
	fmt.Printf("\n%s\n", headingStyle.Render(fmt.Sprintf("Tasks (%d of %d)", len(tasks), len(snap.Tasks))))
	fmt.Println(strings.Repeat("─", 96))

	for i := range tasks {
		t := &tasks[i]
		due := tui.FormatDay(t.EndDate)
		if t.IsDelayed(now) {
			due = alertStyle.Render(fmt.Sprintf("%-8s", due))
		} else {
			due = fmt.Sprintf("%-8s", due)
		}
		priority := priorityStyles[t.Priority].Render(fmt.Sprintf("%-6s", t.Priority))

		fmt.Printf("  %s  %-8s  %-36s  %-14s  %-14s  %s  %s\n",
			statusIcon(t.Status), shortID(t.ID), tui.Truncate(t.Title, 36),
			tui.Truncate(snap.AssigneeName(t), 14), tui.Truncate(snap.DepartmentName(t), 14), due, priority)
	}
	fmt.Println()
}

func printTaskDetail(snap aggregate.Snapshot, t *model.Task) {
	fmt.Println(headingStyle.Render(t.Title))
	for _, r := range detailRows(snap, t) {
		fmt.Printf("  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-11s", r[0])), r[1])
	}
	if t.Description != "" {
		fmt.Println()
		fmt.Println("  " + t.Description)
	}
}

// detailRows lists the labelled fields of a task, custom fields last in
// key order
func detailRows(snap aggregate.Snapshot, t *model.Task) [][2]string {
	rows := [][2]string{
		{"ID", t.ID},
		{"Project", t.ProjectID},
		{"Status", t.Status.Label()},
		{"Priority", string(t.Priority)},
		{"Assignee", snap.AssigneeName(t)},
		{"Department", snap.DepartmentName(t)},
		{"Estimate", fmt.Sprintf("%gh", t.EstimatedHours)},
		{"Start", tui.FormatDay(t.StartDate)},
		{"Deadline", tui.FormatDay(t.EndDate)},
		{"Completed", tui.FormatDay(t.CompletedDate)},
	}
	if t.ImageURL != "" {
		rows = append(rows, [2]string{"Image", t.ImageURL})
	}
	for _, k := range slices.Sorted(maps.Keys(t.CustomFields)) {
		rows = append(rows, [2]string{k, t.CustomFields[k]})
	}
	return rows
}

func printDashboard(d aggregate.Dashboard) {
	fmt.Printf("\n%s  %s\n", headingStyle.Render("ProTask dashboard"),
		mutedStyle.Render(d.ComputedAt.Local().Format("2006-01-02 15:04")))
	fmt.Println(strings.Repeat("─", 60))

	unplanned := fmt.Sprintf("%d%%", d.Planning.UnplannedPercentage)
	if d.Planning.Alert {
		unplanned = alertStyle.Render(unplanned + " ALERT")
	}
	fmt.Printf("  Total %d   Completed %d   In progress %d   Pending %d   Delayed %d   Unplanned %s\n\n",
		d.Total, d.Status.Completed, d.Status.InProgress, d.Status.Pending, d.Status.Delayed, unplanned)

	fmt.Println(headingStyle.Render("Delivery"))
	fmt.Printf("  On time %d   Late %d   %s\n\n", d.Delivery.OnTime, d.Delivery.Late,
		okStyle.Render(fmt.Sprintf("%d%% on time", d.Delivery.OnTimePercentage)))

	fmt.Println(headingStyle.Render("Planning"))
	fmt.Printf("  Planned %d   Unplanned %d\n\n", d.Planning.Planned, d.Planning.Unplanned)

	fmt.Println(headingStyle.Render("Departments"))
	if len(d.Departments) == 0 {
		fmt.Println(mutedStyle.Render("  No departments"))
	}
	maxCount := 0
	for _, dc := range d.Departments {
		if dc.Count > maxCount {
			maxCount = dc.Count
		}
	}
	for _, dc := range d.Departments {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(dc.Department.Color))
		fmt.Printf("  %-16s %s %d\n", tui.Truncate(dc.Department.Name, 16),
			style.Render(tui.Bar(float64(dc.Count), float64(maxCount), 24)), dc.Count)
	}
	fmt.Println()

	fmt.Println(headingStyle.Render("Workload"))
	if len(d.Workload) == 0 {
		fmt.Println(mutedStyle.Render("  No team members"))
	}
	for _, l := range d.Workload {
		style := okStyle
		if l.Overloaded() {
			style = alertStyle
		}
		fmt.Printf("  %-16s %s %gh / %dh\n", tui.Truncate(l.Member.Name, 16),
			style.Render(tui.Bar(l.Hours, float64(l.Capacity), 24)), l.Hours, l.Capacity)
	}
	fmt.Println()
}
