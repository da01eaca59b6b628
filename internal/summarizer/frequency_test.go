package summarizer

import (
	"strings"
	"testing"
)

const sample = "Go has goroutines. Goroutines are cheap. Channels connect goroutines. " +
	"The weather was mild. Paris is the capital of France."

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize(sample, 2)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	first := strings.Index(out, "Go has goroutines.")
	second := strings.Index(out, "Channels connect goroutines.")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected the two goroutine sentences in order, got %q", out)
	}
}

func TestSummarizeForPrefersQueryWords(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.SummarizeFor(sample, "What is the capital of France?", 1)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "Paris is the capital of France." {
		t.Fatalf("unexpected summary %q", out)
	}
}

func TestSummarizeWithoutSentenceEnd(t *testing.T) {
	s := NewFrequencySummarizer()
	out, _ := s.Summarize("  just a fragment  ", 3)
	if out != "just a fragment" {
		t.Fatalf("unexpected summary %q", out)
	}
}
