package logging

import (
	"bytes"
	"strings"
	"testing"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Debug(format string, args ...any) { r.lines = append(r.lines, "D") }
func (r *recordingLogger) Info(format string, args ...any)  { r.lines = append(r.lines, "I") }
func (r *recordingLogger) Warn(format string, args ...any)  { r.lines = append(r.lines, "W") }
func (r *recordingLogger) Error(format string, args ...any) { r.lines = append(r.lines, "E") }

func TestOrNopWithNil(t *testing.T) {
	logger := OrNop(nil)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	// Must not panic.
	logger.Info("hello %s", "world")

	var typed *recordingLogger
	if got := OrNop(typed); IsNil(got) {
		t.Error("OrNop returned a nil-wrapping logger")
	}
}

func TestWriterLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn, "test")

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept %d", 1)
	logger.Error("kept %d", 2)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("low-severity lines were not filtered: %q", out)
	}
	if !strings.Contains(out, "kept 1") || !strings.Contains(out, "kept 2") {
		t.Errorf("missing expected lines: %q", out)
	}
	if !strings.Contains(out, "[test]") {
		t.Errorf("missing component tag: %q", out)
	}
}

func TestMultiFlattensAndSkipsNil(t *testing.T) {
	first := &recordingLogger{}
	second := &recordingLogger{}
	inner := Multi(first, nil)
	logger := Multi(inner, second)

	logger.Info("x")
	logger.Error("y")

	if len(first.lines) != 2 || len(second.lines) != 2 {
		t.Fatalf("expected both loggers to receive 2 calls, got %d and %d",
			len(first.lines), len(second.lines))
	}
}

func TestMultiEmptyIsNop(t *testing.T) {
	logger := Multi(nil, nil)
	if logger == nil {
		t.Fatal("expected nop logger")
	}
	logger.Warn("no panic")
}
