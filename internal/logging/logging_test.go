package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("ParseLevel(loud) returned nil error")
	}
}

func TestNew_ConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("pipeline cleanup failed", slog.Int64("pipeline_id", 21))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("output contains info record: %q", out)
	}
	if !strings.Contains(out, "pipeline cleanup failed") || !strings.Contains(out, "pipeline_id=21") {
		t.Fatalf("output = %q, want warn record with pipeline_id", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("output has colour codes for a non-terminal writer: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeFn()

	logger.Info("connected to server", slog.String("address", "http://127.0.0.1:8080"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "connected to server" || rec["address"] != "http://127.0.0.1:8080" {
		t.Fatalf("record = %v", rec)
	}
}

func TestNew_FileReceivesDebugJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "dbspctl.log")
	logger, closeFn, err := New(Options{Level: "info", File: path, Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With(slog.String("op", "list projects")).Debug("request completed")
	if err := closeFn(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	if buf.Len() != 0 {
		t.Fatalf("console got debug record: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, data)
	}
	if rec["level"] != "DEBUG" || rec["op"] != "list projects" {
		t.Fatalf("record = %v", rec)
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("New returned nil error for unknown format")
	}
}
