package extractive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"docchat/internal/domain"
	"docchat/internal/summarizer"
)

func drain(t *testing.T, s interface {
	Next() (domain.StreamChunk, error)
}) (string, domain.StreamChunk) {
	t.Helper()
	var b strings.Builder
	var last domain.StreamChunk
	for {
		ch, err := s.Next()
		if errors.Is(err, io.EOF) {
			return b.String(), last
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		b.WriteString(ch.TextDelta)
		last = ch
	}
}

func TestStreamAnswersFromContext(t *testing.T) {
	c := NewClient(summarizer.NewFrequencySummarizer(), Config{MaxSentences: 1})
	req := domain.GenerationRequest{
		Context: "--- geo.txt ---\n\nParis is the capital of France. Berlin is the capital of Germany.",
		Query:   "capital of France",
	}
	s, err := c.OpenStream(context.Background(), "", req)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	text, last := drain(t, s)
	if text != "Paris is the capital of France." {
		t.Fatalf("unexpected answer %q", text)
	}
	if !last.Final || last.Usage == nil || last.Usage.TotalTokens <= 0 {
		t.Fatalf("final chunk must carry usage, got %+v", last)
	}
	if len(last.Sources) != 1 || last.Sources[0].Title != "geo.txt" {
		t.Fatalf("unexpected sources %+v", last.Sources)
	}
}

func TestStreamStopsOnContextCancel(t *testing.T) {
	c := NewClient(summarizer.NewFrequencySummarizer(), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	s, err := c.OpenStream(ctx, "", domain.GenerationRequest{Context: "One. Two. Three.", Query: "one"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cancel()
	if _, err := s.Next(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
