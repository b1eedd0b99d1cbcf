package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
)

func TestListCriteria(t *testing.T) {
	tests := []struct {
		name    string
		opts    listOptions
		check   func(t *testing.T, c aggregate.Criteria)
		wantErr bool
	}{
		{
			name: "status and priority",
			opts: listOptions{status: "in-progress", priority: "urgent"},
			check: func(t *testing.T, c aggregate.Criteria) {
				if c.Status != model.StatusInProgress || c.Priority != model.PriorityUrgent {
					t.Errorf("Expected In Progress/Urgent, got %s/%s", c.Status, c.Priority)
				}
			},
		},
		{
			name: "to date covers the whole day",
			opts: listOptions{from: "2024-06-01", to: "2024-06-30"},
			check: func(t *testing.T, c aggregate.Criteria) {
				if c.From == nil || c.From.Day() != 1 {
					t.Errorf("Unexpected from %v", c.From)
				}
				if c.To == nil || c.To.Hour() != 23 || c.To.Day() != 30 {
					t.Errorf("Expected end of June 30, got %v", c.To)
				}
			},
		},
		{
			name: "quick filter replaces other flags",
			opts: listOptions{status: "Pending", search: "pump", delayed: true, quick: "urgent"},
			check: func(t *testing.T, c aggregate.Criteria) {
				if c.Priority != model.PriorityUrgent || c.Status != "" || c.Search != "" || c.Delayed {
					t.Errorf("Expected only the urgent filter, got %+v", c)
				}
			},
		},
		{
			name: "quick delayed",
			opts: listOptions{quick: "Delayed"},
			check: func(t *testing.T, c aggregate.Criteria) {
				if !c.Delayed {
					t.Errorf("Expected delayed filter, got %+v", c)
				}
			},
		},
		{name: "bad status", opts: listOptions{status: "Done-ish"}, wantErr: true},
		{name: "bad date", opts: listOptions{from: "yesterday"}, wantErr: true},
		{name: "bad quick token", opts: listOptions{quick: "Overdue"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.opts.criteria()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestResolveMember(t *testing.T) {
	members := []model.TeamMember{
		{ID: "5b1c0000-aaaa", Name: "Ana García"},
		{ID: "9f3e0000-bbbb", Name: "Carlos López"},
	}

	tests := []struct {
		in   string
		want string
	}{
		{"5b1c0000-aaaa", "5b1c0000-aaaa"},
		{"ana garcía", "5b1c0000-aaaa"},
		{"Carlos", "9f3e0000-bbbb"},
		{"9f3e", "9f3e0000-bbbb"},
	}
	for _, tt := range tests {
		got, err := resolveMember(members, tt.in)
		if err != nil || got != tt.want {
			t.Errorf("resolveMember(%q): expected %s, got %s (%v)", tt.in, tt.want, got, err)
		}
	}

	if _, err := resolveMember(members, "Elena"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResolveDepartment(t *testing.T) {
	departments := []model.Department{{ID: "d-quality", Name: "Quality"}}

	if id, err := resolveDepartment(departments, "quality"); err != nil || id != "d-quality" {
		t.Errorf("Expected d-quality, got %s (%v)", id, err)
	}
	if _, err := resolveDepartment(departments, "Sales"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := confirm(strings.NewReader(tt.input), "")
		if err != nil || got != tt.want {
			t.Errorf("confirm(%q): expected %v, got %v (%v)", tt.input, tt.want, got, err)
		}
	}
}

func TestDetailRowsSortCustomFields(t *testing.T) {
	task := model.NewTask("t1", "P-1", "Audit")
	task.CustomFields = map[string]string{"zone": "B", "asset": "press-4", "line": "2", "batch": "77"}

	want := []string{"asset", "batch", "line", "zone"}
	for run := 0; run < 20; run++ {
		rows := detailRows(aggregate.Snapshot{}, &task)
		got := rows[len(rows)-len(want):]
		for i, k := range want {
			if got[i][0] != k || got[i][1] != task.CustomFields[k] {
				t.Fatalf("Run %d: expected custom fields in key order %v, got %v", run, want, got)
			}
		}
	}
}
