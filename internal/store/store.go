// Package store defines the data provider the dashboard reads its snapshot
// from and the mutations the application layer performs on it.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist for the owner
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the provider rejects the credentials
	ErrUnauthorized = errors.New("unauthorized")
)

// Reader lists the records owned by one user
type Reader interface {
	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	ListMembers(ctx context.Context, ownerID string) ([]model.TeamMember, error)
	ListDepartments(ctx context.Context, ownerID string) ([]model.Department, error)
}

// Writer mutates records. The aggregator never calls it.
type Writer interface {
	CreateTask(ctx context.Context, ownerID string, t *model.Task) error
	UpdateTask(ctx context.Context, ownerID string, t *model.Task) error
	DeleteTask(ctx context.Context, ownerID, id string) error
	AttachImage(ctx context.Context, ownerID, taskID, filename string, r io.Reader) (string, error)

	CreateMember(ctx context.Context, ownerID string, m *model.TeamMember) error
	DeleteMember(ctx context.Context, ownerID, id string) error

	CreateDepartment(ctx context.Context, ownerID string, d *model.Department) error
	DeleteDepartment(ctx context.Context, ownerID, id string) error
}

// Provider is a complete backend for the dashboard
type Provider interface {
	Reader
	Writer
	Close() error
}

// LoadSnapshot resolves tasks, members and departments for one owner.
// Any failure discards the partial result.
func LoadSnapshot(ctx context.Context, r Reader, ownerID string) (aggregate.Snapshot, error) {
	tasks, err := r.ListTasks(ctx, ownerID)
	if err != nil {
		return aggregate.Snapshot{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	members, err := r.ListMembers(ctx, ownerID)
	if err != nil {
		return aggregate.Snapshot{}, fmt.Errorf("failed to list members: %w", err)
	}
	departments, err := r.ListDepartments(ctx, ownerID)
	if err != nil {
		return aggregate.Snapshot{}, fmt.Errorf("failed to list departments: %w", err)
	}

	return aggregate.Snapshot{
		Tasks:       tasks,
		Members:     members,
		Departments: departments,
		LoadedAt:    time.Now(),
	}, nil
}
