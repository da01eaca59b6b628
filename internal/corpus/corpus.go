// Package corpus holds the documents of a session and the chunk set built
// from them.
package corpus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"docchat/internal/domain"
	"docchat/internal/kvstore"
)

// Render joins documents into the knowledge string. Each document starts
// with a "--- name ---" header and documents are separated by a blank line.
func Render(docs []domain.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		parts = append(parts, "--- "+d.Name+" ---\n\n"+text)
	}
	return strings.Join(parts, "\n\n")
}

// Snapshot is an immutable view of the corpus. A turn keeps using the
// snapshot it started with even if the index is rebuilt meanwhile.
type Snapshot struct {
	Documents []domain.Document
	Text      string
	Chunks    []domain.Chunk
}

// Empty reports whether the snapshot has nothing to retrieve from.
func (s *Snapshot) Empty() bool { return s == nil || len(s.Chunks) == 0 }

// Index owns the current Snapshot. Readers never block; writers rebuild the
// whole chunk set and swap it in.
type Index struct {
	chunker domain.Chunker
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

func NewIndex(chunker domain.Chunker) *Index {
	idx := &Index{chunker: chunker}
	idx.current.Store(&Snapshot{})
	return idx
}

// Current returns the latest snapshot. It is never nil.
func (i *Index) Current() *Snapshot { return i.current.Load() }

// Replace rebuilds the chunk set from docs.
func (i *Index) Replace(docs []domain.Document) *Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.swap(docs)
}

// Add merges docs into the corpus. A document whose name is already present
// replaces the old one in place.
func (i *Index) Add(docs []domain.Document) *Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	merged := append([]domain.Document(nil), i.current.Load().Documents...)
	pos := make(map[string]int, len(merged))
	for j, d := range merged {
		pos[d.Name] = j
	}
	for _, d := range docs {
		if j, ok := pos[d.Name]; ok {
			merged[j] = d
			continue
		}
		pos[d.Name] = len(merged)
		merged = append(merged, d)
	}
	return i.swap(merged)
}

func (i *Index) swap(docs []domain.Document) *Snapshot {
	text := Render(docs)
	snap := &Snapshot{
		Documents: docs,
		Text:      text,
		Chunks:    i.chunker.Chunk(text),
	}
	i.current.Store(snap)
	return snap
}

// Load restores the persisted documents and rebuilds the index. It reports
// false when nothing was persisted.
func (i *Index) Load(ctx context.Context, kv kvstore.Store) (bool, error) {
	var docs []domain.Document
	ok, err := kvstore.GetJSON(ctx, kv, kvstore.KeyCorpus, &docs)
	if err != nil {
		return false, fmt.Errorf("load corpus: %w", err)
	}
	if !ok {
		return false, nil
	}
	i.Replace(docs)
	return true, nil
}

// Save persists the documents of the current snapshot.
func (i *Index) Save(ctx context.Context, kv kvstore.Store) error {
	docs := i.Current().Documents
	if docs == nil {
		docs = []domain.Document{}
	}
	if err := kvstore.SetJSON(ctx, kv, kvstore.KeyCorpus, docs); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}
	return nil
}
