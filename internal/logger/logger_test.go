package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetFormat(FormatText)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	output := buf.String()
	if !strings.Contains(output, "level=DEBUG") {
		t.Errorf("expected debug level in output: %q", output)
	}
	if !strings.Contains(output, `msg="test message arg"`) {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Section("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}
}

func TestWarnAndError_AlwaysPrinted(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("disk %d%% full", 90)
	Error("upsert failed: %v", "boom")

	output := buf.String()
	if !strings.Contains(output, "level=WARN") || !strings.Contains(output, "disk 90% full") {
		t.Errorf("expected warning in output: %q", output)
	}
	if !strings.Contains(output, "level=ERROR") || !strings.Contains(output, "upsert failed: boom") {
		t.Errorf("expected error in output: %q", output)
	}
}

func TestSection_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Answer Query")

	if !strings.Contains(buf.String(), "=== Answer Query ===") {
		t.Errorf("expected section marker, got %q", buf.String())
	}
}

func TestSetFormat_JSON(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat(FormatJSON)
	SetVerbose(true)

	Info("indexed %d entities", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "indexed 3 entities" {
		t.Errorf("unexpected msg: %v", record["msg"])
	}
	if record["level"] != "INFO" {
		t.Errorf("unexpected level: %v", record["level"])
	}
}

func TestSlog_SharesOutput(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Slog().Warn("from library", "component", "gateway")

	if !strings.Contains(buf.String(), "component=gateway") {
		t.Errorf("expected structured attribute, got %q", buf.String())
	}
}
