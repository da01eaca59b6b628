package ranker

import (
	"regexp"
	"sort"
	"strings"

	"docchat/internal/domain"
)

const (
	// DefaultTopK is the number of chunks kept when the caller passes topK <= 0.
	DefaultTopK = 5
	// Separator joins the selected chunks in the assembled context.
	Separator = "\n\n---\n\n"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Select scores every chunk by the number of distinct query tokens it
// contains and returns the topK non-zero matches in ascending index order.
// Equal scores are ordered by ascending index before the cut.
func Select(query string, chunks []domain.Chunk, topK int) []domain.ScoredChunk {
	qset := tokenSet(query)
	if len(qset) == 0 || len(chunks) == 0 {
		return nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	scored := make([]domain.ScoredChunk, len(chunks))
	for i, ch := range chunks {
		scored[i] = domain.ScoredChunk{Chunk: ch, Score: overlap(qset, ch.Text)}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Index < scored[j].Chunk.Index
	})
	if topK > len(scored) {
		topK = len(scored)
	}
	out := make([]domain.ScoredChunk, 0, topK)
	for _, sc := range scored[:topK] {
		if sc.Score > 0 {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chunk.Index < out[j].Chunk.Index })
	return out
}

// Rank returns the relevant context for query: the selected chunks in
// document order joined by Separator. It is empty when nothing overlaps.
func Rank(query string, chunks []domain.Chunk, topK int) string {
	return Join(Select(query, chunks, topK))
}

// Join concatenates scored chunks with Separator.
func Join(selected []domain.ScoredChunk) string {
	texts := make([]string, len(selected))
	for i, sc := range selected {
		texts[i] = sc.Chunk.Text
	}
	return strings.Join(texts, Separator)
}

// Tokens returns the lower-cased alphanumeric runs of s.
func Tokens(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

func tokenSet(s string) map[string]struct{} {
	tokens := Tokens(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlap(qset map[string]struct{}, text string) int {
	score := 0
	for t := range tokenSet(text) {
		if _, ok := qset[t]; ok {
			score++
		}
	}
	return score
}
