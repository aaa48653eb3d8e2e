package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		sessionID string
		wantErr   bool
	}{
		{
			name:      "valid directory and session ID",
			baseDir:   t.TempDir(),
			sessionID: "huddle-test-123",
			wantErr:   false,
		},
		{
			name:      "creates directories if not exist",
			baseDir:   filepath.Join(t.TempDir(), "nested", "path"),
			sessionID: "huddle-456",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.baseDir, tt.sessionID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer logger.Close()

			if logger.sessionID != tt.sessionID {
				t.Errorf("sessionID = %v, want %v", logger.sessionID, tt.sessionID)
			}
			if logger.minLevel != LevelInfo {
				t.Errorf("minLevel = %v, want %v", logger.minLevel, LevelInfo)
			}
		})
	}
}

func TestLogWritesSessionFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "capture-session")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	if err := logger.Info(CategoryCapture, "screenshot_saved", "saved frame", map[string]any{"sequence": 3}); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := filepath.Join(dir, "sessions", "capture-session.jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open session log: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("session log should contain one event")
	}

	var event Event
	if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Category != CategoryCapture {
		t.Errorf("Category = %v, want %v", event.Category, CategoryCapture)
	}
	if event.EventType != "screenshot_saved" {
		t.Errorf("EventType = %v, want screenshot_saved", event.EventType)
	}
	if event.SessionID != "capture-session" {
		t.Errorf("SessionID = %v, want capture-session", event.SessionID)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be stamped by the logger")
	}
}

func TestErrorsAlsoGoToErrorLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "s1")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	_ = logger.Error(CategoryAnalysis, "analysis_failed", "vision call failed", nil)
	_ = logger.Info(CategoryAnswer, "answer_sent", "ok", nil)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "errors.jsonl"))
	if err != nil {
		t.Fatalf("read error log: %v", err)
	}

	var event Event
	if err := json.Unmarshal(data[:len(data)-1], &event); err != nil {
		t.Fatalf("error log should contain exactly one JSON line: %v", err)
	}
	if event.Level != LevelError {
		t.Errorf("Level = %v, want %v", event.Level, LevelError)
	}
}

func TestMinLevelFiltersDebug(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "s2")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	_ = logger.Debug(CategoryRealtime, "message_received", "filtered", nil)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sessions", "s2.jsonl"))
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("debug event should be filtered at default min level, got %q", data)
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := Nop()
	if err := logger.Info(CategorySession, "started", "ok", nil); err != nil {
		t.Errorf("Nop logger Info should not error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Nop logger Close should not error: %v", err)
	}
}
