package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROTASK_HOME", dir)
	t.Setenv("PROTASK_BACKEND", "")
	t.Setenv("PROTASK_REFRESH", "45")

	cfg := DefaultConfig()
	if cfg.Backend != BackendLocal {
		t.Errorf("Expected local backend, got %s", cfg.Backend)
	}
	if cfg.DBPath != filepath.Join(dir, "protask.db") {
		t.Errorf("Unexpected db path %s", cfg.DBPath)
	}
	if cfg.RefreshInterval != 45*time.Second {
		t.Errorf("Expected 45s refresh, got %v", cfg.RefreshInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("PROTASK_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without file failed: %v", err)
	}

	cfg.Backend = BackendRemote
	cfg.ServerURL = "https://protask.example.com"
	cfg.RefreshInterval = time.Minute
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend != BackendRemote || loaded.ServerURL != cfg.ServerURL {
		t.Errorf("Expected remote config, got %+v", loaded)
	}
	if loaded.RefreshInterval != time.Minute {
		t.Errorf("Expected 1m refresh, got %v", loaded.RefreshInterval)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROTASK_HOME", dir)

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: supabase\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
