// Package extract turns user files into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrPasswordProtected = errors.New("document is password protected")
	ErrExtractionFailed  = errors.New("text extraction failed")
)

// Extractor reads the text content of one file.
type Extractor interface {
	Extract(path string) (string, error)
}

// FileExtractor handles PDF and plain text files, chosen by extension.
type FileExtractor struct {
	// MaxBytes caps the size of a file that will be read. Zero means no cap.
	MaxBytes int64
}

func NewFileExtractor(maxBytes int64) *FileExtractor {
	return &FileExtractor{MaxBytes: maxBytes}
}

// Supported reports whether path has an extension the extractor reads.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// Extract returns the text of path. Every error wraps ErrPasswordProtected
// or ErrExtractionFailed.
func (e *FileExtractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtractionFailed, path, err)
	}
	if e.MaxBytes > 0 && info.Size() > e.MaxBytes {
		return "", fmt.Errorf("%w: %s: file larger than %d bytes", ErrExtractionFailed, path, e.MaxBytes)
	}
	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = readPDF(path)
	case ".txt", ".md", ".markdown":
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s: unsupported file type", ErrExtractionFailed, path)
	}
	if err != nil {
		if errors.Is(err, ErrPasswordProtected) {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrExtractionFailed, path, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s: no text found", ErrExtractionFailed, path)
	}
	return text, nil
}

func readPDF(path string) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	f, rdr, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(strings.ToLower(err.Error()), "encrypted") {
			return "", ErrPasswordProtected
		}
		return "", err
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	return buf.String(), nil
}
