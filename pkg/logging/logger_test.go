package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{" Warn ", WarnLevel},
		{"warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"verbose", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel("warn") || !ValidLevel("DEBUG") {
		t.Error("known levels should be valid")
	}
	if ValidLevel("verbose") {
		t.Error("verbose should not be a valid level")
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("Failed to unmarshal %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestJSONLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("translated", Path("a.json"), Nodes(3), Bool("compressed", true))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != "INFO" || e.Message != "translated" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Fields["path"] != "a.json" {
		t.Errorf("path = %v", e.Fields["path"])
	}
	if e.Fields["nodes"] != float64(3) {
		t.Errorf("nodes = %v", e.Fields["nodes"])
	}
	if e.Fields["compressed"] != true {
		t.Errorf("compressed = %v", e.Fields["compressed"])
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("levels = %s, %s", entries[0].Level, entries[1].Level)
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(Component("sbom"))

	parent.SetLevel(ErrorLevel)
	child.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatal("child should follow parent's level")
	}

	child.Error("kept", Path("x"))
	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Fields["component"] != "sbom" || entries[0].Fields["path"] != "x" {
		t.Errorf("fields = %v", entries[0].Fields)
	}
}

func TestJSONLogger_WithDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	a := parent.With(String("a", "1"))
	b := a.With(String("b", "2"))
	a.Info("from a")
	b.Info("from b")

	entries := decodeLines(t, &buf)
	if _, ok := entries[0].Fields["b"]; ok {
		t.Error("sibling fields leaked into parent")
	}
	if entries[1].Fields["a"] != "1" || entries[1].Fields["b"] != "2" {
		t.Errorf("child fields = %v", entries[1].Fields)
	}
}

func TestJSONLogger_ConcurrentLinesAreWhole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.With(Int("worker", n)).Info("tick")
		}(i)
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != 20 {
		t.Errorf("expected 20 entries, got %d", got)
	}
}

func TestErrorField(t *testing.T) {
	if f := Error(errors.New("boom")); f.Value != "boom" {
		t.Errorf("Error() = %+v", f)
	}
	if f := Error(nil); f.Value != nil {
		t.Errorf("Error(nil) = %+v", f)
	}
	if f := Duration("d", 2*time.Second); f.Value != "2s" {
		t.Errorf("Duration() = %+v", f)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "parse", Path("a")).End(Edges(4))
	StartTimer(logger, "parse", Path("b")).EndError(errors.New("bad"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Fields["edges"] != float64(4) || entries[0].Fields["latency"] == nil {
		t.Errorf("End fields = %v", entries[0].Fields)
	}
	if entries[1].Message != "parse failed" || entries[1].Fields["error"] != "bad" {
		t.Errorf("EndError entry = %+v", entries[1])
	}
}

func TestDefaultLoggerOverride(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))

	Debug("d")
	Info("i")
	Warn("w")
	ErrorLog("e")
	With(Component("cli")).Info("child")

	entries := decodeLines(t, &buf)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	if entries[4].Fields["component"] != "cli" {
		t.Errorf("component = %v", entries[4].Fields["component"])
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NewNopLogger()
	l.With(Component("x")).Error("ignored")
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
