package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTaskCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	task := &model.Task{
		ProjectID:      "PRJ-42",
		Title:          "Replace pump seals",
		Description:    "Line 3",
		AssignedTo:     "m1",
		DepartmentID:   "d1",
		CreatedBy:      "owner",
		Priority:       model.PriorityHigh,
		Status:         model.StatusPending,
		EstimatedHours: 6.5,
		StartDate:      &start,
		EndDate:        &end,
		CustomFields:   map[string]string{"machine": "P-3"},
		CreatedAt:      start,
		UpdatedAt:      start,
	}

	if err := db.CreateTask(ctx, "owner", task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if len(task.ID) != 36 {
		t.Errorf("Expected uuid id, got %q", task.ID)
	}

	fetched, err := db.GetTask(ctx, "owner", task.ID)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if fetched.Title != task.Title || fetched.EstimatedHours != 6.5 || fetched.Priority != model.PriorityHigh {
		t.Errorf("Unexpected task: %+v", fetched)
	}
	if fetched.EndDate == nil || !fetched.EndDate.Equal(end) {
		t.Errorf("Expected end date %v, got %v", end, fetched.EndDate)
	}
	if fetched.CompletedDate != nil {
		t.Errorf("Expected no completed date, got %v", fetched.CompletedDate)
	}
	if fetched.CustomFields["machine"] != "P-3" {
		t.Errorf("Expected custom field, got %v", fetched.CustomFields)
	}

	fetched.SetStatus(model.StatusCompleted, end)
	if err := db.UpdateTask(ctx, "owner", &fetched); err != nil {
		t.Fatalf("Failed to update task: %v", err)
	}
	updated, _ := db.GetTask(ctx, "owner", task.ID)
	if updated.Status != model.StatusCompleted || updated.CompletedDate == nil {
		t.Errorf("Expected completed task, got %+v", updated)
	}

	// Other owners cannot see or touch the task
	if _, err := db.GetTask(ctx, "intruder", task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for other owner, got %v", err)
	}
	if err := db.DeleteTask(ctx, "intruder", task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting for other owner, got %v", err)
	}

	if err := db.DeleteTask(ctx, "owner", task.ID); err != nil {
		t.Fatalf("Failed to delete task: %v", err)
	}
	tasks, err := db.ListTasks(ctx, "owner")
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected no tasks, got %d", len(tasks))
	}
}

func TestUnparsableDatesReadAsAbsent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO tasks (id, owner_id, title, end_date, created_at, updated_at)
		VALUES ('t1', 'owner', 'Legacy row', 'next week', '2024-01-01', '2024-01-01')`)
	if err != nil {
		t.Fatalf("Failed to insert raw row: %v", err)
	}

	tasks, err := db.ListTasks(ctx, "owner")
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	if tasks[0].EndDate != nil {
		t.Errorf("Expected unparsable end date to be nil, got %v", tasks[0].EndDate)
	}
	if tasks[0].Status != model.StatusPending || tasks[0].Priority != model.PriorityMedium {
		t.Errorf("Expected column defaults, got %s/%s", tasks[0].Status, tasks[0].Priority)
	}
}

func TestMembersAndDepartments(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Ana García", "Carlos López"} {
		if err := db.CreateMember(ctx, "owner", &model.TeamMember{Name: name, Email: "x@example.com", Role: "Engineer"}); err != nil {
			t.Fatalf("Failed to create member: %v", err)
		}
	}
	for _, name := range []string{"Quality", "Maintenance"} {
		if err := db.CreateDepartment(ctx, "owner", &model.Department{Name: name}); err != nil {
			t.Fatalf("Failed to create department: %v", err)
		}
	}

	members, err := db.ListMembers(ctx, "owner")
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 2 || members[0].Name != "Ana García" {
		t.Errorf("Expected members in creation order, got %+v", members)
	}

	depts, err := db.ListDepartments(ctx, "owner")
	if err != nil {
		t.Fatalf("Failed to list departments: %v", err)
	}
	if len(depts) != 2 || depts[1].Name != "Maintenance" || depts[0].Color != model.DefaultDepartmentColor {
		t.Errorf("Unexpected departments: %+v", depts)
	}

	if err := db.DeleteMember(ctx, "owner", members[0].ID); err != nil {
		t.Fatalf("Failed to delete member: %v", err)
	}
	if err := db.DeleteDepartment(ctx, "owner", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	others, _ := db.ListMembers(ctx, "someone-else")
	if len(others) != 0 {
		t.Errorf("Expected owner scoping, got %d members", len(others))
	}
}

func TestSnapshotFromDatabase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	svc := store.NewService(db, "owner")

	member := &model.TeamMember{Name: "Elena Rodríguez"}
	dept := &model.Department{Name: "Quality"}
	if err := svc.AddMember(ctx, member); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddDepartment(ctx, dept); err != nil {
		t.Fatal(err)
	}

	for i, hours := range []float64{8, 4} {
		tk := &model.Task{Title: "Audit " + string(rune('A'+i)), AssignedTo: member.ID, DepartmentID: dept.ID, EstimatedHours: hours, Priority: model.PriorityUrgent}
		if err := svc.AddTask(ctx, tk, []model.TeamMember{*member}); err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
	}

	snap, err := store.LoadSnapshot(ctx, db, "owner")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	d := aggregate.Compute(snap, time.Now())
	if d.Total != 2 || d.Status.Pending != 2 {
		t.Errorf("Unexpected dashboard counts: %+v", d.Status)
	}
	if len(d.Departments) != 1 || d.Departments[0].Count != 2 {
		t.Errorf("Unexpected distribution: %+v", d.Departments)
	}
	if len(d.Workload) != 1 || d.Workload[0].Hours != 12 {
		t.Errorf("Unexpected workload: %+v", d.Workload)
	}
	if !d.Planning.Alert {
		t.Error("Expected unplanned alert with only urgent tasks")
	}
}

func TestAttachImage(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "protask.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	task := &model.Task{Title: "Photo evidence", Priority: model.PriorityLow, Status: model.StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := db.CreateTask(ctx, "owner", task); err != nil {
		t.Fatal(err)
	}

	url, err := db.AttachImage(ctx, "owner", task.ID, "Leak.PNG", strings.NewReader("fake image"))
	if err != nil {
		t.Fatalf("AttachImage failed: %v", err)
	}
	if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, ".png") {
		t.Errorf("Unexpected url %s", url)
	}

	data, err := os.ReadFile(strings.TrimPrefix(url, "file://"))
	if err != nil || string(data) != "fake image" {
		t.Errorf("Expected stored bytes, got %q (%v)", data, err)
	}

	fetched, _ := db.GetTask(ctx, "owner", task.ID)
	if fetched.ImageURL != url {
		t.Errorf("Expected image url on task, got %q", fetched.ImageURL)
	}
}
