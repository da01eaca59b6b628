// Package transcript exports a conversation as plain text.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docchat/internal/domain"
)

// Delimiter separates turns in an exported transcript.
const Delimiter = "\n\n---\n\n"

var prefixes = map[domain.Role]string{
	domain.RoleUser:  "[User]",
	domain.RoleModel: "[Assistant]",
}

// Render formats messages in order, one block per message.
func Render(messages []domain.Message) string {
	blocks := make([]string, 0, len(messages))
	for _, m := range messages {
		prefix, ok := prefixes[m.Role]
		if !ok {
			prefix = "[" + string(m.Role) + "]"
		}
		blocks = append(blocks, prefix+"\n"+m.Text)
	}
	return strings.Join(blocks, Delimiter)
}

// FileName is the export name for a transcript written at t.
func FileName(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return "chat-history-" + strings.ReplaceAll(stamp, ":", "-") + ".txt"
}

// Write renders messages into dir and returns the file path.
func Write(dir string, messages []domain.Message, t time.Time) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("transcript: nothing to export")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(t))
	if err := os.WriteFile(path, []byte(Render(messages)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
