package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docchat.log")
	logger, err := New(Config{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("log line missing: %q", data)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestQuietWithoutFileIsNop(t *testing.T) {
	logger, err := New(Config{Quiet: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Fatalf("expected a no-op logger")
	}
}
