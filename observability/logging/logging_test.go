package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	logger, err := SetupWithOptions("passaged", "test", Options{
		Level:  slog.LevelDebug,
		Output: &buf,
		File:   &FileSink{Path: filepath.Join(dir, "logs", "passaged.log"), MaxSizeMB: 1},
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	logger.Info("executed", slog.String("kind", "buy"), MaskField("jwtSecret", "hunter2"))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["message"] != "executed" || line["severity"] != "INFO" {
		t.Fatalf("unexpected keys: %v", line)
	}
	if line["service"] != "passaged" || line["env"] != "test" {
		t.Fatalf("missing identity attrs: %v", line)
	}
	if line["jwtSecret"] != RedactedValue {
		t.Fatalf("secret leaked: %v", line["jwtSecret"])
	}
	if line["kind"] != "buy" {
		t.Fatalf("allowlisted key masked: %v", line["kind"])
	}
	if _, err := os.Stat(filepath.Join(dir, "logs", "passaged.log")); err != nil {
		t.Fatalf("file sink not written: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
