package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
	"github.com/google/uuid"
)

const taskColumns = `id, project_id, title, description, assigned_to, department_id, created_by,
	priority, status, estimated_hours, start_date, end_date, completed_date,
	image_url, custom_fields, created_at, updated_at`

var _ store.Provider = (*DB)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (model.Task, error) {
	var (
		t                                   model.Task
		description, assignedTo, department sql.NullString
		createdBy, imageURL, customFields   sql.NullString
		startDate, endDate, completedDate   sql.NullString
		createdAt, updatedAt                string
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &description, &assignedTo, &department, &createdBy,
		&t.Priority, &t.Status, &t.EstimatedHours, &startDate, &endDate, &completedDate,
		&imageURL, &customFields, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}

	t.Description = description.String
	t.AssignedTo = assignedTo.String
	t.DepartmentID = department.String
	t.CreatedBy = createdBy.String
	t.ImageURL = imageURL.String
	t.StartDate = model.ParseDate(startDate.String)
	t.EndDate = model.ParseDate(endDate.String)
	t.CompletedDate = model.ParseDate(completedDate.String)
	if p := model.ParseDate(createdAt); p != nil {
		t.CreatedAt = *p
	}
	if p := model.ParseDate(updatedAt); p != nil {
		t.UpdatedAt = *p
	}
	if customFields.String != "" {
		// Corrupt JSON is treated like an empty map
		_ = json.Unmarshal([]byte(customFields.String), &t.CustomFields)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeFields(fields map[string]string) (sql.NullString, error) {
	if len(fields) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode custom fields: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ListTasks returns the owner's tasks, newest first
func (db *DB) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask returns a single task
func (db *DB) GetTask(ctx context.Context, ownerID, id string) (model.Task, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? AND id = ?`, ownerID, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return t, fmt.Errorf("task %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a task
func (db *DB) CreateTask(ctx context.Context, ownerID string, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	fields, err := encodeFields(t.CustomFields)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, project_id, title, description, assigned_to, department_id,
			created_by, priority, status, estimated_hours, start_date, end_date, completed_date,
			image_url, custom_fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, ownerID, t.ProjectID, t.Title, nullString(t.Description), nullString(t.AssignedTo),
		nullString(t.DepartmentID), nullString(t.CreatedBy), t.Priority, t.Status, t.EstimatedHours,
		nullString(model.FormatDate(t.StartDate)), nullString(model.FormatDate(t.EndDate)),
		nullString(model.FormatDate(t.CompletedDate)), nullString(t.ImageURL), fields,
		t.CreatedAt.UTC().Format(time.RFC3339), t.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// UpdateTask replaces every mutable column of a task
func (db *DB) UpdateTask(ctx context.Context, ownerID string, t *model.Task) error {
	fields, err := encodeFields(t.CustomFields)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE tasks SET project_id = ?, title = ?, description = ?, assigned_to = ?, department_id = ?,
			priority = ?, status = ?, estimated_hours = ?, start_date = ?, end_date = ?,
			completed_date = ?, image_url = ?, custom_fields = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?`,
		t.ProjectID, t.Title, nullString(t.Description), nullString(t.AssignedTo), nullString(t.DepartmentID),
		t.Priority, t.Status, t.EstimatedHours, nullString(model.FormatDate(t.StartDate)),
		nullString(model.FormatDate(t.EndDate)), nullString(model.FormatDate(t.CompletedDate)),
		nullString(t.ImageURL), fields, t.UpdatedAt.UTC().Format(time.RFC3339),
		ownerID, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return expectOne(res, "task", t.ID)
}

// DeleteTask removes a task
func (db *DB) DeleteTask(ctx context.Context, ownerID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectOne(res, "task", id)
}

// AttachImage copies an image next to the database and records its path on the task
func (db *DB) AttachImage(ctx context.Context, ownerID, taskID, filename string, r io.Reader) (string, error) {
	if db.attachDir == "" {
		return "", fmt.Errorf("attachments are not available for in-memory databases")
	}
	t, err := db.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(db.attachDir, ownerID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create attachment directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(dir, uuid.New().String()+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	url := "file://" + filepath.ToSlash(path)
	t.ImageURL = url
	t.UpdatedAt = time.Now()
	if err := db.UpdateTask(ctx, ownerID, &t); err != nil {
		return "", err
	}
	return url, nil
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}
