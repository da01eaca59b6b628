package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docchat/internal/budget"
	"docchat/internal/corpus"
	"docchat/internal/domain"
	"docchat/internal/errclass"
	"docchat/internal/extract"
	"docchat/internal/kvstore"
	"docchat/internal/metrics"
	"docchat/internal/prompt"
	"docchat/internal/ranker"
	"docchat/internal/stream"
	"docchat/internal/transcript"
)

var (
	ErrNoDocuments = errors.New("no documents could be loaded")
	ErrEmptyQuery  = errors.New("query is empty")
	ErrBusy        = errors.New("a turn is already in progress")
)

// CredentialStore is the part of the credential store the service touches.
type CredentialStore interface {
	Set(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Deps are the collaborators of a ChatService. Store, Credentials, Metrics
// and Logger are optional.
type Deps struct {
	Extractor    extract.Extractor
	Index        *corpus.Index
	Summarizer   domain.Summarizer
	Orchestrator *stream.Orchestrator
	Budget       *budget.Tracker
	Store        kvstore.Store
	Credentials  CredentialStore
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// Options tune retrieval and reporting.
type Options struct {
	Settings               domain.Settings
	TopK                   int
	EstimatedTokensPerTurn int
	SummarySentences       int
	ExportDir              string
}

// ChatService runs one conversation over the loaded corpus.
type ChatService struct {
	deps Deps
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	messages []domain.Message
}

func NewChatService(deps Deps, opts Options) *ChatService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = ranker.DefaultTopK
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = 3
	}
	if opts.Settings.SystemInstruction == "" {
		opts.Settings.SystemInstruction = prompt.DefaultSystemInstruction
	}
	return &ChatService{deps: deps, opts: opts, log: deps.Logger}
}

// FileFailure records one file that could not be ingested.
type FileFailure struct {
	Path    string
	Failure errclass.Failure
	Err     error
}

// IngestReport summarizes an ingestion run.
type IngestReport struct {
	Loaded   []string
	Failures []FileFailure
	Chunks   int
}

// IngestDocuments extracts every path (globs allowed) and merges the results
// into the corpus. A file that fails is reported and skipped.
func (s *ChatService) IngestDocuments(ctx context.Context, paths []string) (IngestReport, error) {
	var report IngestReport
	var documents []domain.Document
	for _, p := range paths {
		matches, err := expand(p)
		if err != nil {
			s.log.Warn("bad path pattern", zap.String("pattern", p), zap.Error(err))
			s.deps.Metrics.ExtractionFailed()
			report.Failures = append(report.Failures, FileFailure{Path: p, Failure: errclass.ExtractionFailure, Err: err})
			continue
		}
		for _, m := range matches {
			text, err := s.deps.Extractor.Extract(m)
			if err != nil {
				s.log.Warn("extraction failed", zap.String("path", m), zap.Error(err))
				s.deps.Metrics.ExtractionFailed()
				report.Failures = append(report.Failures, FileFailure{Path: m, Failure: errclass.ExtractionFailure, Err: err})
				continue
			}
			documents = append(documents, domain.Document{Name: filepath.Base(m), Text: text})
			report.Loaded = append(report.Loaded, m)
		}
	}
	if len(documents) == 0 {
		return report, ErrNoDocuments
	}
	snap := s.deps.Index.Add(documents)
	report.Chunks = len(snap.Chunks)
	s.log.Info("corpus rebuilt",
		zap.Int("documents", len(snap.Documents)),
		zap.Int("chunks", len(snap.Chunks)),
		zap.Int("failures", len(report.Failures)))
	if s.deps.Store != nil {
		if err := s.deps.Index.Save(ctx, s.deps.Store); err != nil {
			return report, err
		}
	}
	return report, nil
}

// expand resolves a glob to the supported files it matches. A path with no
// matches is returned as is so that the extractor reports it.
func expand(p string) ([]string, error) {
	matches, err := filepath.Glob(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", extract.ErrExtractionFailed, p, err)
	}
	if len(matches) == 0 {
		return []string{p}, nil
	}
	if len(matches) == 1 && matches[0] == p {
		return matches, nil
	}
	kept := matches[:0]
	for _, m := range matches {
		if extract.Supported(m) {
			kept = append(kept, m)
		}
	}
	sort.Strings(kept)
	return kept, nil
}

// Load restores the persisted corpus and budget. It reports whether a corpus
// was found.
func (s *ChatService) Load(ctx context.Context) (bool, error) {
	if s.deps.Store == nil {
		return false, nil
	}
	var snap budget.Snapshot
	ok, err := kvstore.GetJSON(ctx, s.deps.Store, kvstore.KeyBudget, &snap)
	if err != nil {
		return false, err
	}
	if ok {
		s.deps.Budget.Restore(snap)
	}
	return s.deps.Index.Load(ctx, s.deps.Store)
}

// Summary is a short extractive summary of the current corpus.
func (s *ChatService) Summary() (string, error) {
	snap := s.deps.Index.Current()
	if snap.Empty() || s.deps.Summarizer == nil {
		return "", nil
	}
	var b strings.Builder
	for _, d := range snap.Documents {
		b.WriteString(d.Text)
		b.WriteString("\n\n")
	}
	return s.deps.Summarizer.Summarize(b.String(), s.opts.SummarySentences)
}

// Documents lists the names of the loaded documents.
func (s *ChatService) Documents() []string {
	docs := s.deps.Index.Current().Documents
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names
}

// Ask starts a turn for query. The user message and an empty model message
// are appended immediately; the returned Turn fills in the model message.
// When nothing in the corpus is relevant the turn is answered locally with
// prompt.NoContextReply and costs nothing.
func (s *ChatService) Ask(ctx context.Context, query string, cancel *stream.CancelToken) (*Turn, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if s.deps.Orchestrator.Generating() {
		return nil, ErrBusy
	}
	snap := s.deps.Index.Current()
	selected := ranker.Select(query, snap.Chunks, s.opts.TopK)
	s.deps.Metrics.Retrieved(len(selected))
	found := ranker.Join(selected)

	s.mu.Lock()
	s.messages = append(s.messages,
		domain.Message{ID: uuid.NewString(), Role: domain.RoleUser, Text: query},
		domain.Message{ID: uuid.NewString(), Role: domain.RoleModel},
	)
	t := &Turn{svc: s, pos: len(s.messages) - 1}
	s.mu.Unlock()

	if found == "" {
		s.log.Info("no relevant context, answering locally", zap.Int("chunks", len(snap.Chunks)))
		s.update(t.pos, func(m *domain.Message) { m.Text = prompt.NoContextReply })
		s.deps.Metrics.Turn(metrics.OutcomeRefused)
		t.finish(OutcomeRefused, errclass.EmptyOrIrrelevantContext)
		return t, nil
	}

	req := prompt.Assemble(s.opts.Settings, found, query)
	s.log.Debug("turn started", zap.Int("selected_chunks", len(selected)), zap.Int("context_chars", len(found)))
	t.events = s.deps.Orchestrator.Run(ctx, req, cancel)
	return t, nil
}

// Messages returns a copy of the conversation.
func (s *ChatService) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear drops the conversation and resets the session budget.
func (s *ChatService) Clear(ctx context.Context) error {
	if s.deps.Orchestrator.Generating() {
		return ErrBusy
	}
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
	s.deps.Budget.Reset()
	return s.saveBudget(ctx)
}

// Export writes the conversation transcript and returns its path.
func (s *ChatService) Export(now time.Time) (string, error) {
	return transcript.Write(s.opts.ExportDir, s.Messages(), now)
}

// SetAPIKey stores the credential used by later turns.
func (s *ChatService) SetAPIKey(ctx context.Context, key string) error {
	if s.deps.Credentials == nil {
		return fmt.Errorf("this generator does not use an API key")
	}
	return s.deps.Credentials.Set(ctx, key)
}

// BudgetStatus is what the UI shows about the token budget.
type BudgetStatus struct {
	budget.Snapshot
	Remaining      int
	RemainingTurns int
	OverLimit      bool
}

func (s *ChatService) Budget() BudgetStatus {
	b := s.deps.Budget
	return BudgetStatus{
		Snapshot:       b.Snapshot(),
		Remaining:      b.Remaining(),
		RemainingTurns: b.EstimateRemainingTurns(s.opts.EstimatedTokensPerTurn),
		OverLimit:      b.OverLimit(),
	}
}

func (s *ChatService) update(pos int, fn func(m *domain.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos < len(s.messages) {
		fn(&s.messages[pos])
	}
}

func (s *ChatService) message(pos int) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos < len(s.messages) {
		return s.messages[pos]
	}
	return domain.Message{}
}

func (s *ChatService) saveBudget(ctx context.Context) error {
	if s.deps.Store == nil {
		return nil
	}
	return kvstore.SetJSON(ctx, s.deps.Store, kvstore.KeyBudget, s.deps.Budget.Snapshot())
}
