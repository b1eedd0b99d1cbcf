package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority levels for tasks
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent" // Unplanned work
)

// Priorities lists every priority, lowest first
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Status of a task
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusRejected   Status = "Rejected"
)

// Statuses lists every status in workflow order
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusRejected}

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns a human readable status name
func (s Status) Label() string {
	if s == StatusInProgress {
		return "In Progress"
	}
	return string(s)
}

// ParsePriority matches a priority name case-insensitively
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// ParseStatus matches a status name case-insensitively.
// "in-progress", "in_progress" and "in progress" are accepted too.
func ParseStatus(s string) (Status, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	for _, st := range Statuses {
		if strings.EqualFold(string(st), norm) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Task represents a unit of team work
type Task struct {
	ID             string            `json:"id"`
	ProjectID      string            `json:"project_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	AssignedTo     string            `json:"assigned_to"`
	DepartmentID   string            `json:"department_id,omitempty"`
	CreatedBy      string            `json:"created_by"`
	Priority       Priority          `json:"priority"`
	Status         Status            `json:"status"`
	EstimatedHours float64           `json:"estimated_hours"`
	StartDate      *time.Time        `json:"start_date,omitempty"`
	EndDate        *time.Time        `json:"end_date,omitempty"`
	CompletedDate  *time.Time        `json:"completed_date,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	CustomFields   map[string]string `json:"custom_fields,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewTask creates a pending task with defaults
func NewTask(id, projectID, title string) Task {
	now := time.Now()
	return Task{
		ID:           id,
		ProjectID:    projectID,
		Title:        title,
		Priority:     PriorityMedium,
		Status:       StatusPending,
		StartDate:    &now,
		CustomFields: map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks the fields required before persisting
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title is required")
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	if t.EstimatedHours < 0 {
		return fmt.Errorf("estimated hours must not be negative")
	}
	if t.CompletedDate != nil && t.Status != StatusCompleted {
		return fmt.Errorf("completed date set on a %s task", t.Status.Label())
	}
	return nil
}

// SetStatus changes the status and keeps CompletedDate in step with it
func (t *Task) SetStatus(s Status, now time.Time) {
	if s == StatusCompleted {
		if t.Status != StatusCompleted || t.CompletedDate == nil {
			done := now
			t.CompletedDate = &done
		}
	} else {
		t.CompletedDate = nil
	}
	t.Status = s
	t.UpdatedAt = now
}

// IsOpen returns true while the task still consumes capacity
func (t *Task) IsOpen() bool {
	return t.Status != StatusCompleted && t.Status != StatusRejected
}

// IsDelayed returns true if the task is not completed and its deadline has passed
func (t *Task) IsDelayed(now time.Time) bool {
	if t.Status == StatusCompleted || t.EndDate == nil {
		return false
	}
	return t.EndDate.Before(now)
}

// IsOnTime returns true if the task was completed by its deadline (or had none)
func (t *Task) IsOnTime() bool {
	if t.Status != StatusCompleted || t.CompletedDate == nil {
		return false
	}
	if t.EndDate == nil {
		return true
	}
	return !t.CompletedDate.After(*t.EndDate)
}

// IsLateClosed returns true if the task was completed after its deadline
func (t *Task) IsLateClosed() bool {
	if t.Status != StatusCompleted || t.CompletedDate == nil || t.EndDate == nil {
		return false
	}
	return t.CompletedDate.After(*t.EndDate)
}

// IsUnplanned returns true for urgent, reactive work
func (t *Task) IsUnplanned() bool {
	return t.Priority == PriorityUrgent
}
