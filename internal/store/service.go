package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/model"
	"github.com/google/uuid"
)

// Service is the application layer on top of a Provider. It fills in ids
// and timestamps, keeps the completed-date invariant and raises
// notifications for the UI.
type Service struct {
	Provider
	OwnerID string

	mu            sync.Mutex
	notifications []string
	now           func() time.Time
}

// NewService wraps a provider for one owner
func NewService(p Provider, ownerID string) *Service {
	return &Service{Provider: p, OwnerID: ownerID, now: time.Now}
}

// Notify records a user-facing message
func (s *Service) Notify(msg string) {
	s.mu.Lock()
	s.notifications = append([]string{msg}, s.notifications...)
	s.mu.Unlock()
	logger.Info("Notification", logger.F("message", msg))
}

// Notifications drains pending messages, newest first
func (s *Service) Notifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notifications
	s.notifications = nil
	return out
}

// AddTask validates and stores a new pending task
func (s *Service) AddTask(ctx context.Context, t *model.Task, members []model.TeamMember) error {
	now := s.now()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	t.Status = model.StatusPending
	t.CompletedDate = nil
	t.CreatedBy = s.OwnerID
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.StartDate == nil {
		t.StartDate = &now
	}
	if err := t.Validate(); err != nil {
		return err
	}

	if err := s.CreateTask(ctx, s.OwnerID, t); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	for _, m := range members {
		if m.ID == t.AssignedTo {
			s.Notify(fmt.Sprintf("Mail sent to %s: new task assigned %q", m.Name, t.Title))
			break
		}
	}
	return nil
}

// ChangeStatus moves a task to a new status
func (s *Service) ChangeStatus(ctx context.Context, t *model.Task, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	updated := *t
	updated.SetStatus(status, s.now())
	if err := s.UpdateTask(ctx, s.OwnerID, &updated); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	*t = updated

	if status == model.StatusCompleted {
		s.Notify("Task completed!")
	}
	return nil
}

// SaveTask stores edits to an existing task
func (s *Service) SaveTask(ctx context.Context, t *model.Task) error {
	t.UpdatedAt = s.now()
	if t.Status != model.StatusCompleted {
		t.CompletedDate = nil
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.UpdateTask(ctx, s.OwnerID, t); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// RemoveTask deletes a task
func (s *Service) RemoveTask(ctx context.Context, id string) error {
	if err := s.DeleteTask(ctx, s.OwnerID, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.Notify("Task deleted")
	return nil
}

// AddMember validates and stores a team member
func (s *Service) AddMember(ctx context.Context, m *model.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.CreateMember(ctx, s.OwnerID, m); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	s.Notify(fmt.Sprintf("Member added: %s", m.Name))
	return nil
}

// AddDepartment validates and stores a department
func (s *Service) AddDepartment(ctx context.Context, d *model.Department) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Color == "" {
		d.Color = model.DefaultDepartmentColor
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.CreateDepartment(ctx, s.OwnerID, d); err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	s.Notify(fmt.Sprintf("Department created: %s", d.Name))
	return nil
}

// FindTask resolves a task by full id or unique id prefix
func FindTask(tasks []model.Task, id string) (*model.Task, error) {
	var found *model.Task
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
		if len(id) >= 4 && len(tasks[i].ID) > len(id) && tasks[i].ID[:len(id)] == id {
			if found != nil {
				return nil, fmt.Errorf("task id %q is ambiguous", id)
			}
			found = &tasks[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return found, nil
}
