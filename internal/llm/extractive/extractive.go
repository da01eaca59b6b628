// Package extractive is a local generation backend. It answers with the
// context sentences that best match the query, streamed word by word.
package extractive

import (
	"context"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"docchat/internal/domain"
	"docchat/internal/llm"
)

// QuerySummarizer picks the sentences of text most relevant to query.
type QuerySummarizer interface {
	SummarizeFor(text, query string, maxSentences int) (string, error)
}

type Config struct {
	MaxSentences int
	// Delay is the pause between emitted words.
	Delay time.Duration
}

type Client struct {
	summarizer QuerySummarizer
	cfg        Config
}

func NewClient(s QuerySummarizer, cfg Config) *Client {
	if cfg.MaxSentences <= 0 {
		cfg.MaxSentences = 3
	}
	return &Client{summarizer: s, cfg: cfg}
}

func (c *Client) Name() string { return "extractive" }

var docHeader = regexp.MustCompile(`(?m)^--- (.+) ---$`)

// OpenStream summarizes req.Context. Document headers found in the context
// are reported as sources on the final chunk.
func (c *Client) OpenStream(ctx context.Context, _ string, req domain.GenerationRequest) (llm.Stream, error) {
	body := docHeader.ReplaceAllString(req.Context, "")
	answer, err := c.summarizer.SummarizeFor(body, req.Query, c.cfg.MaxSentences)
	if err != nil {
		return nil, err
	}
	var sources []domain.Source
	seen := map[string]bool{}
	for _, m := range docHeader.FindAllStringSubmatch(req.Context, -1) {
		name := strings.TrimSpace(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, domain.Source{URI: "file://" + name, Title: name})
	}
	prompt := approxTokens(req.SystemInstruction) + approxTokens(req.Query)
	completion := approxTokens(answer)
	return &stream{
		ctx:   ctx,
		words: strings.Fields(answer),
		delay: c.cfg.Delay,
		usage: domain.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
		sources: sources,
	}, nil
}

// approxTokens uses the common four-characters-per-token rule of thumb.
func approxTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + 3) / 4
}

type stream struct {
	ctx     context.Context
	words   []string
	pos     int
	delay   time.Duration
	usage   domain.Usage
	sources []domain.Source
	done    bool
}

func (s *stream) Next() (domain.StreamChunk, error) {
	if s.done {
		return domain.StreamChunk{}, io.EOF
	}
	if err := s.wait(); err != nil {
		return domain.StreamChunk{}, err
	}
	var out domain.StreamChunk
	if s.pos < len(s.words) {
		out.TextDelta = s.words[s.pos]
		if s.pos > 0 {
			out.TextDelta = " " + out.TextDelta
		}
		s.pos++
	}
	if s.pos >= len(s.words) {
		usage := s.usage
		out.Final = true
		out.Usage = &usage
		out.Sources = s.sources
		s.done = true
	}
	return out, nil
}

func (s *stream) wait() error {
	if s.delay <= 0 {
		return s.ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *stream) Close() error {
	s.done = true
	return nil
}
