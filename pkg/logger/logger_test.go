package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Get().Info(context.Background(), "risk computed", String("student_id", "s-1"), Int("score", 99))

	line := buf.String()
	if !strings.Contains(line, "risk computed") {
		t.Fatalf("expected message in output, got %q", line)
	}
	if !strings.Contains(line, "student_id=s-1") || !strings.Contains(line, "score=99") {
		t.Fatalf("expected fields in output, got %q", line)
	}
	if !strings.Contains(line, "logger_test.go") {
		t.Fatalf("expected caller source in output, got %q", line)
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetFormat(FormatJSON); err != nil {
		t.Fatalf("set format: %v", err)
	}
	defer func() {
		_ = SetFormat(FormatText)
		SetOutput(nil)
	}()

	Named("worker").Warn(context.Background(), "queue full", Int("capacity", 10))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "queue full" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["logger"] != "worker" {
		t.Errorf("unexpected logger name: %v", entry["logger"])
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		SetOutput(nil)
		_ = SetLevelString("info")
	}()

	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Get().Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := SetFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
