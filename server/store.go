package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
	"github.com/google/uuid"
)

const taskColumns = `id, project_id, title, description, assigned_to, department_id, created_by,
	priority, status, estimated_hours, start_date, end_date, completed_date,
	image_url, custom_fields, created_at, updated_at`

// pgStore is the Postgres implementation of store.Provider. Every query is
// scoped by owner_id, which is always the session user.
type pgStore struct {
	db *sql.DB
}

var _ store.Provider = (*pgStore)(nil)

// attachment is an uploaded image as stored in Postgres
type attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (p *pgStore) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var (
			t                                 model.Task
			startDate, endDate, completedDate sql.NullTime
			customFields                      []byte
		)
		err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.AssignedTo, &t.DepartmentID,
			&t.CreatedBy, &t.Priority, &t.Status, &t.EstimatedHours, &startDate, &endDate, &completedDate,
			&t.ImageURL, &customFields, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.StartDate = timePtr(startDate)
		t.EndDate = timePtr(endDate)
		t.CompletedDate = timePtr(completedDate)
		if len(customFields) > 0 {
			_ = json.Unmarshal(customFields, &t.CustomFields)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func encodeFields(fields map[string]string) ([]byte, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	return json.Marshal(fields)
}

func (p *pgStore) CreateTask(ctx context.Context, ownerID string, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	fields, err := encodeFields(t.CustomFields)
	if err != nil {
		return fmt.Errorf("failed to encode custom fields: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, project_id, title, description, assigned_to, department_id,
			created_by, priority, status, estimated_hours, start_date, end_date, completed_date,
			image_url, custom_fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		t.ID, ownerID, t.ProjectID, t.Title, t.Description, t.AssignedTo, t.DepartmentID,
		t.CreatedBy, t.Priority, t.Status, t.EstimatedHours, nullTime(t.StartDate), nullTime(t.EndDate),
		nullTime(t.CompletedDate), t.ImageURL, fields, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (p *pgStore) UpdateTask(ctx context.Context, ownerID string, t *model.Task) error {
	fields, err := encodeFields(t.CustomFields)
	if err != nil {
		return fmt.Errorf("failed to encode custom fields: %w", err)
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE tasks SET project_id = $1, title = $2, description = $3, assigned_to = $4,
			department_id = $5, priority = $6, status = $7, estimated_hours = $8, start_date = $9,
			end_date = $10, completed_date = $11, image_url = $12, custom_fields = $13, updated_at = $14
		WHERE owner_id = $15 AND id = $16`,
		t.ProjectID, t.Title, t.Description, t.AssignedTo, t.DepartmentID, t.Priority, t.Status,
		t.EstimatedHours, nullTime(t.StartDate), nullTime(t.EndDate), nullTime(t.CompletedDate),
		t.ImageURL, fields, t.UpdatedAt, ownerID, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return expectOne(res, "task", t.ID)
}

func (p *pgStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if err := expectOne(res, "task", id); err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `DELETE FROM attachments WHERE owner_id = $1 AND task_id = $2`, ownerID, id)
	return err
}

// AttachImage stores the upload as a row and points the task at it
func (p *pgStore) AttachImage(ctx context.Context, ownerID, taskID, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	contentType := http.DetectContentType(data)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO attachments (owner_id, task_id, filename, content_type, data)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		ownerID, taskID, filename, contentType, data,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert attachment: %w", err)
	}

	url := "/api/v1/attachments/" + id
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks SET image_url = $1, updated_at = NOW() WHERE owner_id = $2 AND id = $3`,
		url, ownerID, taskID)
	if err != nil {
		return "", fmt.Errorf("failed to update task: %w", err)
	}
	if err := expectOne(res, "task", taskID); err != nil {
		return "", err
	}

	return url, tx.Commit()
}

func (p *pgStore) attachment(ctx context.Context, ownerID, id string) (attachment, error) {
	var a attachment
	err := p.db.QueryRowContext(ctx, `
		SELECT filename, content_type, data FROM attachments WHERE owner_id = $1 AND id::text = $2`,
		ownerID, id,
	).Scan(&a.Filename, &a.ContentType, &a.Data)
	if err == sql.ErrNoRows {
		return a, fmt.Errorf("attachment %s: %w", id, store.ErrNotFound)
	}
	return a, err
}

func (p *pgStore) ListMembers(ctx context.Context, ownerID string) ([]model.TeamMember, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, email, role, avatar FROM team_members
		WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []model.TeamMember{}
	for rows.Next() {
		var m model.TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (p *pgStore) CreateMember(ctx context.Context, ownerID string, m *model.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO team_members (id, owner_id, name, email, role, avatar)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, ownerID, m.Name, m.Email, m.Role, m.Avatar)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func (p *pgStore) DeleteMember(ctx context.Context, ownerID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM team_members WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return expectOne(res, "member", id)
}

func (p *pgStore) ListDepartments(ctx context.Context, ownerID string) ([]model.Department, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, color FROM departments
		WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	departments := []model.Department{}
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Color); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (p *pgStore) CreateDepartment(ctx context.Context, ownerID string, d *model.Department) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Color == "" {
		d.Color = model.DefaultDepartmentColor
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO departments (id, owner_id, name, color) VALUES ($1, $2, $3, $4)`,
		d.ID, ownerID, d.Name, d.Color)
	if err != nil {
		return fmt.Errorf("failed to insert department: %w", err)
	}
	return nil
}

func (p *pgStore) DeleteDepartment(ctx context.Context, ownerID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM departments WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return expectOne(res, "department", id)
}

// Close is a no-op; the Server owns the connection pool
func (p *pgStore) Close() error {
	return nil
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

// attachmentSource is implemented by providers that can serve stored uploads
type attachmentSource interface {
	attachment(ctx context.Context, ownerID, id string) (attachment, error)
}

