package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/existflow/protask/internal/model"
	"github.com/google/uuid"
)

// ListMembers returns the owner's team members in creation order
func (db *DB) ListMembers(ctx context.Context, ownerID string) ([]model.TeamMember, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, email, role, avatar FROM team_members
		WHERE owner_id = ? ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []model.TeamMember{}
	for rows.Next() {
		var m model.TeamMember
		var email, role, avatar sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &email, &role, &avatar); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Email, m.Role, m.Avatar = email.String, role.String, avatar.String
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateMember inserts a team member
func (db *DB) CreateMember(ctx context.Context, ownerID string, m *model.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO team_members (id, owner_id, name, email, role, avatar, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, ownerID, m.Name, nullString(m.Email), nullString(m.Role), nullString(m.Avatar),
		time.Now().UTC().Format(sortableTime),
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// DeleteMember removes a team member. Their tasks become unassigned.
func (db *DB) DeleteMember(ctx context.Context, ownerID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM team_members WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return expectOne(res, "member", id)
}

// ListDepartments returns the owner's departments in creation order
func (db *DB) ListDepartments(ctx context.Context, ownerID string) ([]model.Department, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, color FROM departments
		WHERE owner_id = ? ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	departments := []model.Department{}
	for rows.Next() {
		var d model.Department
		var color sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &color); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		d.Color = color.String
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// CreateDepartment inserts a department
func (db *DB) CreateDepartment(ctx context.Context, ownerID string, d *model.Department) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Color == "" {
		d.Color = model.DefaultDepartmentColor
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO departments (id, owner_id, name, color, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, ownerID, d.Name, d.Color, time.Now().UTC().Format(sortableTime),
	)
	if err != nil {
		return fmt.Errorf("failed to insert department: %w", err)
	}
	return nil
}

// DeleteDepartment removes a department. Its tasks keep a dangling reference.
func (db *DB) DeleteDepartment(ctx context.Context, ownerID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM departments WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return expectOne(res, "department", id)
}
