// Package aggregate derives dashboard KPIs and filtered task lists from a
// read-only snapshot of tasks, members and departments.
//
// Every function here is pure: it reads its input, never mutates it and
// never fails. Callers recompute from scratch whenever the snapshot changes.
package aggregate

import (
	"time"

	"github.com/existflow/protask/internal/model"
)

const (
	// WeeklyCapacity is the reference number of hours a member can carry.
	// It is only drawn next to the workload, never enforced.
	WeeklyCapacity = 40

	// UnplannedAlertThreshold is the unplanned percentage above which the
	// planning mix is flagged.
	UnplannedAlertThreshold = 20
)

// StatusCounts is the KPI strip. Rejected tasks fall in no bucket and
// Delayed overlaps the other three.
type StatusCounts struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
	Delayed    int `json:"delayed"`
}

// DeliveryStats describes how closed tasks met their deadlines
type DeliveryStats struct {
	OnTime           int `json:"on_time"`
	Late             int `json:"late"`
	OnTimePercentage int `json:"on_time_percentage"`
}

// PlanningMix compares planned work with urgent, unplanned work
type PlanningMix struct {
	Planned             int  `json:"planned"`
	Unplanned           int  `json:"unplanned"`
	UnplannedPercentage int  `json:"unplanned_percentage"`
	Alert               bool `json:"alert"`
}

// DepartmentCount is one slice of the department distribution
type DepartmentCount struct {
	Department model.Department `json:"department"`
	Count      int              `json:"count"`
}

// MemberLoad is the open workload of one member
type MemberLoad struct {
	Member   model.TeamMember `json:"member"`
	Hours    float64          `json:"hours"`
	Capacity int              `json:"capacity"`
}

// Overloaded reports whether the member carries more than the reference capacity
func (l MemberLoad) Overloaded() bool {
	return l.Hours > float64(l.Capacity)
}

// ComputeStatusCounts counts tasks per status and flags delayed ones
func ComputeStatusCounts(tasks []model.Task, now time.Time) StatusCounts {
	var c StatusCounts
	for i := range tasks {
		t := &tasks[i]
		switch t.Status {
		case model.StatusCompleted:
			c.Completed++
		case model.StatusInProgress:
			c.InProgress++
		case model.StatusPending:
			c.Pending++
		}
		if t.IsDelayed(now) {
			c.Delayed++
		}
	}
	return c
}

// ComputeDeliveryStats splits completed tasks into on-time and late-closed
func ComputeDeliveryStats(tasks []model.Task) DeliveryStats {
	var d DeliveryStats
	for i := range tasks {
		switch {
		case tasks[i].IsOnTime():
			d.OnTime++
		case tasks[i].IsLateClosed():
			d.Late++
		}
	}
	d.OnTimePercentage = percent(d.OnTime, d.OnTime+d.Late)
	return d
}

// ComputePlanningMix measures the share of urgent work
func ComputePlanningMix(tasks []model.Task) PlanningMix {
	var p PlanningMix
	for i := range tasks {
		if tasks[i].IsUnplanned() {
			p.Unplanned++
		}
	}
	p.Planned = len(tasks) - p.Unplanned
	p.UnplannedPercentage = percent(p.Unplanned, len(tasks))
	p.Alert = p.UnplannedPercentage > UnplannedAlertThreshold
	return p
}

// ComputeDepartmentDistribution counts tasks per department, in department
// order, leaving out departments without tasks. Tasks pointing at unknown
// departments are not counted anywhere.
func ComputeDepartmentDistribution(tasks []model.Task, departments []model.Department) []DepartmentCount {
	counts := make(map[string]int, len(departments))
	for i := range tasks {
		if id := tasks[i].DepartmentID; id != "" {
			counts[id]++
		}
	}

	out := []DepartmentCount{}
	for _, d := range departments {
		if n := counts[d.ID]; n > 0 {
			out = append(out, DepartmentCount{Department: d, Count: n})
		}
	}
	return out
}

// ComputeWorkload sums estimated hours of open tasks for every member.
// Members without open work get a zero-hour entry.
func ComputeWorkload(tasks []model.Task, members []model.TeamMember) []MemberLoad {
	hours := make(map[string]float64, len(members))
	for i := range tasks {
		t := &tasks[i]
		if t.AssignedTo != "" && t.IsOpen() {
			hours[t.AssignedTo] += t.EstimatedHours
		}
	}

	out := make([]MemberLoad, 0, len(members))
	for _, m := range members {
		out = append(out, MemberLoad{Member: m, Hours: hours[m.ID], Capacity: WeeklyCapacity})
	}
	return out
}

// percent returns round(part/whole*100) rounding half up, or 0 for an empty whole
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}
