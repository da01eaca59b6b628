package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"docchat/internal/domain"
)

// DefaultMaxChunkChars is the chunk size limit used when none is configured.
const DefaultMaxChunkChars = 2000

var (
	blankLines  = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)
)

// ParagraphChunker packs paragraphs into chunks of bounded size.
type ParagraphChunker struct {
	maxChunkChars int
}

func NewParagraphChunker(maxChunkChars int) *ParagraphChunker {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	return &ParagraphChunker{maxChunkChars: maxChunkChars}
}

func (c *ParagraphChunker) Chunk(text string) []domain.Chunk {
	return Chunk(text, c.maxChunkChars)
}

// Chunk splits text on blank lines and greedily packs the paragraphs into
// chunks of at most maxChunkChars characters. A paragraph that alone exceeds
// the limit is re-split on sentence boundaries. A single sentence longer than
// the limit is kept whole.
func Chunk(text string, maxChunkChars int) []domain.Chunk {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	var paragraphs []string
	for _, p := range blankLines.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	var chunks []domain.Chunk
	for _, packed := range pack(paragraphs, "\n\n", maxChunkChars) {
		pieces := []string{packed}
		if utf8.RuneCountInString(packed) > maxChunkChars {
			pieces = pack(splitSentences(packed), " ", maxChunkChars)
		}
		for _, piece := range pieces {
			chunks = append(chunks, domain.Chunk{Index: len(chunks), Text: piece})
		}
	}
	return chunks
}

// pack joins parts with sep, starting a new buffer whenever the next part
// would push the current one past limit.
func pack(parts []string, sep string, limit int) []string {
	var (
		out    []string
		buf    strings.Builder
		bufLen int
	)
	sepLen := utf8.RuneCountInString(sep)
	for _, p := range parts {
		pLen := utf8.RuneCountInString(p)
		if bufLen > 0 && bufLen+sepLen+pLen > limit {
			out = append(out, buf.String())
			buf.Reset()
			bufLen = 0
		}
		if bufLen > 0 {
			buf.WriteString(sep)
			bufLen += sepLen
		}
		buf.WriteString(p)
		bufLen += pLen
	}
	if bufLen > 0 {
		out = append(out, buf.String())
	}
	return out
}

func splitSentences(text string) []string {
	var sentences []string
	prev := 0
	for _, m := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[prev:m[1]]); s != "" {
			sentences = append(sentences, s)
		}
		prev = m[1]
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
