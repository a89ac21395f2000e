package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

func TestNewJSONWriter_WritesKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(LevelInfo, &buf).Named("feed")

	logger.Info("cycle resolved", "feed", "live-matches", "error", errors.New("boom"))
	logger.Debug("filtered out")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got=%d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := jsoniter.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "cycle resolved" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["component"] != "feed" {
		t.Fatalf("unexpected component: %v", entry["component"])
	}
	if entry["feed"] != "live-matches" {
		t.Fatalf("unexpected feed field: %v", entry["feed"])
	}
	if entry["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", entry["error"])
	}
}

func TestZapFields_OddArgsAndNonStringKeys(t *testing.T) {
	fields := zapFields([]any{42, "value", "dangling"})
	if len(fields) != 2 {
		t.Fatalf("expected two fields, got=%d", len(fields))
	}
	if fields[0].Key != "arg" {
		t.Fatalf("expected fallback key arg, got=%s", fields[0].Key)
	}
	if fields[1].Key != "dangling" {
		t.Fatalf("expected dangling key, got=%s", fields[1].Key)
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected non-nil logger from nil receiver")
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelDebug, Format: FormatConsole, Writer: &buf})

	logger.Debug("probe finished", "connected", true)

	out := buf.String()
	if !strings.Contains(out, "probe finished") || !strings.Contains(out, `"connected": true`) {
		t.Fatalf("unexpected console output: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("console output must not be a JSON object: %q", out)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if ParseLevel(" WARNING ") != LevelWarn || ParseLevel("verbose") != LevelInfo {
		t.Fatalf("unexpected level parsing")
	}
	if f, err := ParseFormat("Console"); err != nil || f != FormatConsole {
		t.Fatalf("expected console format, got %q err=%v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatJSON {
		t.Fatalf("expected json default, got %q err=%v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
