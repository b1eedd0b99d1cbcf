package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/existflow/protask/internal/logger"
	_ "modernc.org/sqlite"
)

// sortableTime is a fixed-width timestamp so ORDER BY on text follows time
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps the SQLite database connection and implements store.Provider
type DB struct {
	*sql.DB
	attachDir string
}

// Open opens or creates the SQLite database. ":memory:" gives a private
// in-memory database.
func Open(dbPath string) (*DB, error) {
	attachDir := ""
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		attachDir = filepath.Join(dir, "attachments")
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := &DB{DB: sqlDB, attachDir: attachDir}
	if err := db.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Database opened", logger.F("path", dbPath))
	return db, nil
}

// SetAttachmentDir overrides where task images are copied to
func (db *DB) SetAttachmentDir(dir string) {
	db.attachDir = dir
}
