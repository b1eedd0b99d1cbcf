package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateDepartments,
		migrationCreateMembers,
		migrationCreateTasks,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationCreateDepartments = `
CREATE TABLE IF NOT EXISTS departments (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    color TEXT DEFAULT '#3B82F6',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_departments_owner ON departments(owner_id);
`

const migrationCreateMembers = `
CREATE TABLE IF NOT EXISTS team_members (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT,
    role TEXT,
    avatar TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_members_owner ON team_members(owner_id);
`

// assigned_to and department_id may dangle after a member or department is
// removed; readers treat them as unassigned.
const migrationCreateTasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    project_id TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    description TEXT,
    assigned_to TEXT,
    department_id TEXT,
    created_by TEXT,
    priority TEXT NOT NULL DEFAULT 'Medium',
    status TEXT NOT NULL DEFAULT 'Pending',
    estimated_hours REAL NOT NULL DEFAULT 0,
    start_date TEXT,
    end_date TEXT,
    completed_date TEXT,
    image_url TEXT,
    custom_fields TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`
