package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"docchat/internal/domain"
)

var conversation = []domain.Message{
	{Role: domain.RoleUser, Text: "What is the capital of France?"},
	{Role: domain.RoleModel, Text: "Paris."},
}

func TestRender(t *testing.T) {
	want := "[User]\nWhat is the capital of France?\n\n---\n\n[Assistant]\nParis."
	if got := Render(conversation); got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.FixedZone("CET", 3600))
	if got := FileName(ts); got != "chat-history-2024-03-09T13-05-07.123Z.txt" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := Write(dir, conversation, ts)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != Render(conversation) {
		t.Fatalf("file content differs: %q", data)
	}
	if _, err := Write(dir, nil, ts); err == nil {
		t.Fatalf("expected an error for an empty conversation")
	}
}
