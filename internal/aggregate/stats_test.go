package aggregate

import (
	"testing"
	"time"

	"github.com/existflow/protask/internal/model"
)

var (
	now       = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	yesterday = now.Add(-24 * time.Hour)
	tomorrow  = now.Add(24 * time.Hour)
)

func at(t time.Time) *time.Time { return &t }

func task(id string, status model.Status, priority model.Priority) model.Task {
	return model.Task{ID: id, Title: "Task " + id, Status: status, Priority: priority}
}

func TestStatusCountsDelayedOverlapsPending(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Status: model.StatusPending, EndDate: at(yesterday)},
		{ID: "2", Status: model.StatusCompleted, EndDate: at(yesterday), CompletedDate: at(yesterday)},
		{ID: "3", Status: model.StatusCompleted, EndDate: at(yesterday), CompletedDate: at(now)},
	}

	c := ComputeStatusCounts(tasks, now)
	if c.Delayed != 1 {
		t.Errorf("Expected 1 delayed, got %d", c.Delayed)
	}
	// The delayed task is still counted as pending
	if c.Pending != 1 || c.Completed != 2 || c.InProgress != 0 {
		t.Errorf("Unexpected counts: %+v", c)
	}

	d := ComputeDeliveryStats(tasks)
	if d.OnTime != 1 || d.Late != 1 || d.OnTimePercentage != 50 {
		t.Errorf("Unexpected delivery stats: %+v", d)
	}
}

func TestStatusCountsExcludeRejected(t *testing.T) {
	tasks := []model.Task{
		task("1", model.StatusPending, model.PriorityLow),
		task("2", model.StatusInProgress, model.PriorityLow),
		task("3", model.StatusCompleted, model.PriorityLow),
		task("4", model.StatusRejected, model.PriorityLow),
	}

	c := ComputeStatusCounts(tasks, now)
	sum := c.Completed + c.InProgress + c.Pending
	if sum != 3 {
		t.Errorf("Expected 3 tasks in status buckets, got %d", sum)
	}

	c = ComputeStatusCounts(tasks[:3], now)
	if c.Completed+c.InProgress+c.Pending != 3 {
		t.Errorf("Expected buckets to cover every task without rejected ones, got %+v", c)
	}
}

func TestEmptySnapshot(t *testing.T) {
	members := []model.TeamMember{{ID: "m1", Name: "Ana"}, {ID: "m2", Name: "Carlos"}}
	d := Compute(Snapshot{Members: members, Departments: []model.Department{{ID: "d1"}}}, now)

	if d.Total != 0 || d.Status != (StatusCounts{}) {
		t.Errorf("Expected zero counts, got total=%d status=%+v", d.Total, d.Status)
	}
	if d.Delivery.OnTimePercentage != 0 || d.Planning.UnplannedPercentage != 0 {
		t.Errorf("Expected zero percentages, got %+v %+v", d.Delivery, d.Planning)
	}
	if d.Planning.Alert {
		t.Error("Expected no alert for empty input")
	}
	if d.Departments == nil || len(d.Departments) != 0 {
		t.Errorf("Expected empty distribution, got %v", d.Departments)
	}
	if len(d.Workload) != 2 {
		t.Fatalf("Expected one workload row per member, got %d", len(d.Workload))
	}
	for _, l := range d.Workload {
		if l.Hours != 0 || l.Capacity != WeeklyCapacity {
			t.Errorf("Expected zero hours against capacity %d, got %+v", WeeklyCapacity, l)
		}
	}
}

func TestDeliveryNoCompletedTasks(t *testing.T) {
	tasks := []model.Task{task("1", model.StatusPending, model.PriorityHigh)}
	if d := ComputeDeliveryStats(tasks); d.OnTimePercentage != 0 {
		t.Errorf("Expected 0%%, got %d", d.OnTimePercentage)
	}
}

func TestPlanningMix(t *testing.T) {
	tests := []struct {
		name      string
		urgent    int
		total     int
		wantPct   int
		wantAlert bool
	}{
		{"none", 0, 4, 0, false},
		{"exactly threshold", 1, 5, 20, false},
		{"above threshold", 1, 4, 25, true},
		{"rounds half up", 1, 8, 13, false},
		{"all urgent", 3, 3, 100, true},
		{"one third", 1, 3, 33, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tasks []model.Task
			for i := 0; i < tt.total; i++ {
				p := model.PriorityMedium
				if i < tt.urgent {
					p = model.PriorityUrgent
				}
				tasks = append(tasks, task(string(rune('a'+i)), model.StatusPending, p))
			}

			mix := ComputePlanningMix(tasks)
			if mix.UnplannedPercentage != tt.wantPct {
				t.Errorf("Expected %d%%, got %d%%", tt.wantPct, mix.UnplannedPercentage)
			}
			if mix.Alert != tt.wantAlert {
				t.Errorf("Expected alert=%v, got %v", tt.wantAlert, mix.Alert)
			}
			if mix.Planned+mix.Unplanned != tt.total {
				t.Errorf("Expected planned+unplanned=%d, got %+v", tt.total, mix)
			}
		})
	}
}

func TestPercentRounding(t *testing.T) {
	tests := []struct{ part, whole, want int }{
		{0, 0, 0},
		{1, 2, 50},
		{1, 200, 1},  // 0.5 rounds up
		{1, 201, 0},  // 0.497 rounds down
		{2, 3, 67},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := percent(tt.part, tt.whole); got != tt.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tt.part, tt.whole, got, tt.want)
		}
	}
}

func TestDepartmentDistribution(t *testing.T) {
	depts := []model.Department{
		{ID: "d1", Name: "Quality"},
		{ID: "d2", Name: "Maintenance"},
		{ID: "d3", Name: "Safety"},
	}
	tasks := []model.Task{
		{ID: "1", DepartmentID: "d3"},
		{ID: "2", DepartmentID: "d1"},
		{ID: "3", DepartmentID: "d3"},
		{ID: "4", DepartmentID: "gone"},
		{ID: "5"},
	}

	got := ComputeDepartmentDistribution(tasks, depts)
	if len(got) != 2 {
		t.Fatalf("Expected 2 departments, got %d: %+v", len(got), got)
	}
	if got[0].Department.ID != "d1" || got[0].Count != 1 {
		t.Errorf("Expected d1=1 first, got %+v", got[0])
	}
	if got[1].Department.ID != "d3" || got[1].Count != 2 {
		t.Errorf("Expected d3=2 second, got %+v", got[1])
	}
	for _, dc := range got {
		if dc.Count == 0 {
			t.Errorf("Zero-count department in distribution: %+v", dc)
		}
	}
}

func TestWorkloadIgnoresClosedTasks(t *testing.T) {
	members := []model.TeamMember{{ID: "m1", Name: "Ana García"}, {ID: "m2", Name: "Elena"}}
	tasks := []model.Task{
		{ID: "1", AssignedTo: "m1", Status: model.StatusPending, EstimatedHours: 8},
		{ID: "2", AssignedTo: "m1", Status: model.StatusInProgress, EstimatedHours: 4.5},
		{ID: "3", AssignedTo: "m1", Status: model.StatusRejected, EstimatedHours: 10},
		{ID: "4", AssignedTo: "ghost", Status: model.StatusPending, EstimatedHours: 3},
	}

	before := ComputeWorkload(tasks, members)
	if before[0].Hours != 12.5 {
		t.Errorf("Expected 12.5 hours for m1, got %v", before[0].Hours)
	}
	if before[1].Hours != 0 {
		t.Errorf("Expected 0 hours for m2, got %v", before[1].Hours)
	}

	tasks = append(tasks, model.Task{ID: "5", AssignedTo: "m1", Status: model.StatusCompleted, EstimatedHours: 20})
	after := ComputeWorkload(tasks, members)
	if after[0].Hours != before[0].Hours {
		t.Errorf("Completed task changed workload: %v -> %v", before[0].Hours, after[0].Hours)
	}
	if after[0].Overloaded() {
		t.Error("Expected m1 under capacity")
	}
}

func TestComputeDoesNotMutateSnapshot(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Title: "b", Status: model.StatusPending, EndDate: at(yesterday)},
		{ID: "2", Title: "a", Status: model.StatusCompleted, CompletedDate: at(now)},
	}
	snap := Snapshot{Tasks: tasks}

	_ = Compute(snap, now)
	_ = FilterTasks(tasks, Criteria{Delayed: true}, now)

	if tasks[0].ID != "1" || tasks[1].ID != "2" || tasks[0].Status != model.StatusPending {
		t.Errorf("Snapshot was modified: %+v", tasks)
	}
}

func TestSnapshotDanglingReferences(t *testing.T) {
	snap := Snapshot{
		Members:     []model.TeamMember{{ID: "m1", Name: "Ana"}},
		Departments: []model.Department{{ID: "d1", Name: "Quality"}},
	}
	tk := model.Task{AssignedTo: "m9", DepartmentID: "d9"}
	if got := snap.AssigneeName(&tk); got != "Unassigned" {
		t.Errorf("Expected Unassigned, got %s", got)
	}
	if got := snap.DepartmentName(&tk); got != "No department" {
		t.Errorf("Expected No department, got %s", got)
	}
	tk.AssignedTo, tk.DepartmentID = "m1", "d1"
	if snap.AssigneeName(&tk) != "Ana" || snap.DepartmentName(&tk) != "Quality" {
		t.Errorf("Expected resolved names, got %s / %s", snap.AssigneeName(&tk), snap.DepartmentName(&tk))
	}
}

func TestTomorrowDeadlineNotDelayed(t *testing.T) {
	tasks := []model.Task{{ID: "1", Status: model.StatusInProgress, EndDate: at(tomorrow)}}
	if c := ComputeStatusCounts(tasks, now); c.Delayed != 0 {
		t.Errorf("Expected no delayed task, got %d", c.Delayed)
	}
}
