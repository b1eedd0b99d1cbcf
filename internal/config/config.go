package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names
const (
	BackendLocal  = "local"  // SQLite file on this machine
	BackendRemote = "remote" // ProTask server over HTTP
)

// Config holds user preferences
type Config struct {
	Backend         string        `yaml:"backend" json:"backend"`                   // local or remote
	OwnerID         string        `yaml:"owner_id" json:"owner_id"`                 // Owner of local records
	DBPath          string        `yaml:"db_path" json:"db_path"`                   // SQLite file for the local backend
	ServerURL       string        `yaml:"server_url" json:"server_url"`             // Base URL for the remote backend
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"` // Snapshot polling period for the TUI
	ConfirmDelete   bool          `yaml:"confirm_delete" json:"confirm_delete"`     // Require confirmation for delete

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	dir string
}

// Dir returns the ProTask home directory (~/.protask unless PROTASK_HOME is set)
func Dir() (string, error) {
	if dir := os.Getenv("PROTASK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".protask"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	dbPath, logPath := "", ""
	if dir != "" {
		dbPath = filepath.Join(dir, "protask.db")
		logPath = filepath.Join(dir, "logs", "protask.log")
	}

	return &Config{
		Backend:         getEnv("PROTASK_BACKEND", BackendLocal),
		OwnerID:         getEnv("PROTASK_OWNER", "local"),
		DBPath:          getEnv("PROTASK_DB", dbPath),
		ServerURL:       getEnv("PROTASK_SERVER", "http://localhost:8080"),
		RefreshInterval: getEnvDuration("PROTASK_REFRESH", 30*time.Second),
		ConfirmDelete:   true,
		LogLevel:        getEnv("PROTASK_LOG_LEVEL", "INFO"),
		LogFile:         getEnv("PROTASK_LOG_FILE", logPath),
		LogConsole:      getEnv("PROTASK_LOG_CONSOLE", "false") == "true",
		dir:             dir,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// Validate rejects settings the application cannot run with
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for the local backend")
		}
	case BackendRemote:
		if c.ServerURL == "" {
			return fmt.Errorf("server_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendLocal, BackendRemote)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval must not be negative")
	}
	return nil
}

// Path returns the config file location
func (c *Config) Path() string {
	return filepath.Join(c.dir, "config.yaml")
}

// Load loads config from ~/.protask/config.yaml
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if cfg.dir == "" {
		return nil, fmt.Errorf("failed to resolve config directory")
	}
	return LoadFile(cfg, cfg.Path())
}

// LoadFile overlays the YAML file at path onto cfg. A missing file leaves cfg as is.
func LoadFile(cfg *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves config to ~/.protask/config.yaml
func (c *Config) Save() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.Path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
