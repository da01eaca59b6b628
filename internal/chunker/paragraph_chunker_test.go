package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\n", " \n \n\t"} {
		if chunks := Chunk(in, 100); len(chunks) != 0 {
			t.Fatalf("expected no chunks for %q, got %d", in, len(chunks))
		}
	}
}

func TestChunkParagraphsFitInOneChunk(t *testing.T) {
	text := "Paris is the capital of France.\n\nBerlin is the capital of Germany."
	chunks := Chunk(text, 2000)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := "Paris is the capital of France.\n\nBerlin is the capital of Germany."
	if chunks[0].Text != want {
		t.Fatalf("chunk text = %q, want %q", chunks[0].Text, want)
	}
	if chunks[0].Index != 0 {
		t.Fatalf("expected index 0, got %d", chunks[0].Index)
	}
}

func TestChunkStartsNewBufferWhenLimitExceeded(t *testing.T) {
	chunks := Chunk("aaaaa\n\nbbbbb\n\n\n\nccc", 10)
	want := []string{"aaaaa", "bbbbb\n\nccc"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, ch := range chunks {
		if ch.Text != want[i] {
			t.Errorf("chunk %d text = %q, want %q", i, ch.Text, want[i])
		}
		if ch.Index != i {
			t.Errorf("chunk %d index = %d", i, ch.Index)
		}
	}
}

func TestChunkParagraphExactlyAtLimit(t *testing.T) {
	chunks := Chunk("abcdefghij\n\nxy", 10)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "abcdefghij" {
		t.Fatalf("first chunk = %q", chunks[0].Text)
	}
}

func TestChunkSplitsOversizedParagraphBySentence(t *testing.T) {
	text := "One two three. Four five six. Seven eight."
	chunks := Chunk(text, 20)
	want := []string{"One two three.", "Four five six.", "Seven eight."}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, ch := range chunks {
		if ch.Text != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, ch.Text, want[i])
		}
	}
}

func TestChunkPacksSentencesWithSingleSpaces(t *testing.T) {
	text := "A b. C d! E f? G h."
	chunks := Chunk(text, 12)
	want := []string{"A b. C d!", "E f? G h."}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, ch := range chunks {
		if ch.Text != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, ch.Text, want[i])
		}
	}
}

func TestChunkKeepsIrreducibleSentence(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := Chunk("short.\n\n"+long, 10)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].Text != long {
		t.Fatalf("expected the long sentence to be kept whole, got %q", chunks[1].Text)
	}
}

func TestChunkBoundsAndOrder(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 40; i++ {
		paragraphs = append(paragraphs, strings.Repeat("word ", i%7+1)+"end. Another sentence here.")
	}
	text := strings.Join(paragraphs, "\n\n")
	for _, limit := range []int{40, 64, 200, 2000} {
		chunks := Chunk(text, limit)
		if len(chunks) == 0 {
			t.Fatalf("limit %d: expected chunks", limit)
		}
		pos := 0
		for i, ch := range chunks {
			if strings.TrimSpace(ch.Text) == "" {
				t.Fatalf("limit %d: chunk %d is empty", limit, i)
			}
			if ch.Index != i {
				t.Fatalf("limit %d: chunk %d has index %d", limit, i, ch.Index)
			}
			if n := utf8.RuneCountInString(ch.Text); n > limit {
				t.Fatalf("limit %d: chunk %d has %d chars", limit, i, n)
			}
			first := strings.Fields(ch.Text)[0]
			next := strings.Index(text[pos:], first)
			if next < 0 {
				t.Fatalf("limit %d: chunk %d out of order", limit, i)
			}
			pos += next
		}
	}
}

func TestChunkReconstructsParagraphs(t *testing.T) {
	text := "First paragraph.\n\n\nSecond paragraph.\n   \nThird paragraph."
	chunks := Chunk(text, 2000)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	got := strings.Split(chunks[0].Text, "\n\n")
	want := []string{"First paragraph.", "Second paragraph.", "Third paragraph."}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got paragraphs %q, want %q", got, want)
	}
}

func TestParagraphChunkerDefaultsLimit(t *testing.T) {
	c := NewParagraphChunker(0)
	text := strings.Repeat("a", DefaultMaxChunkChars) + "\n\nb"
	chunks := c.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks with default limit, got %d", len(chunks))
	}
}
