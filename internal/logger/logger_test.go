package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"DEBUG":  DEBUG,
		"warn":   WARN,
		" Error": ERROR,
		"":       INFO,
		"trace":  INFO,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if Level(42).String() != "UNKNOWN" {
		t.Error("Expected UNKNOWN for out of range level")
	}
}

func TestWriterLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, INFO)

	l.Debug("hidden")
	l.WithFields(F("owner", "u1")).Info("snapshot loaded", F("tasks", 3))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug line written at INFO level: %q", out)
	}
	if !strings.Contains(out, "INFO logger_test.go:") {
		t.Errorf("Expected caller of the log call, got %q", out)
	}
	if !strings.Contains(out, "snapshot loaded | owner=u1 tasks=3") {
		t.Errorf("Expected structured fields, got %q", out)
	}
}

func TestFileRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "protask.log")

	l, err := New(Config{Level: DEBUG, FilePath: path, MaxSize: 64, MaxAge: 7, MaxBackups: 2})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	for i := 0; i < 5; i++ {
		l.Info("a line long enough to push the file past its size limit")
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("Expected rotated backup: %v", err)
	}
	if _, err := os.Stat(path + ".3"); err == nil {
		t.Error("Expected at most 2 backups")
	}
}
