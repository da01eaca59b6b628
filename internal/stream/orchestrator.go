// Package stream drives one generation call and turns the provider's chunks
// into delta events for the caller.
package stream

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"docchat/internal/credential"
	"docchat/internal/domain"
	"docchat/internal/llm"
)

// State is the lifecycle position of the current run.
type State int32

const (
	Idle State = iota
	Requesting
	Streaming
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// CancelToken is set by the caller to stop a run at the next chunk boundary.
// A nil token is never cancelled.
type CancelToken struct {
	set atomic.Bool
}

func NewCancelToken() *CancelToken { return &CancelToken{} }

func (t *CancelToken) Cancel() {
	if t != nil {
		t.set.Store(true)
	}
}

func (t *CancelToken) Cancelled() bool {
	return t != nil && t.set.Load()
}

// EventKind tells which Event fields are meaningful.
type EventKind int

const (
	EventDelta EventKind = iota
	EventCompleted
	EventCancelled
	EventFailed
)

// Event is one item of a run. Exactly one terminal event (Completed,
// Cancelled or Failed) ends every run.
type Event struct {
	Kind    EventKind
	Text    string
	Usage   *domain.Usage
	Sources []domain.Source
	Err     error
}

// Terminal reports whether e ends the run.
func (e Event) Terminal() bool { return e.Kind != EventDelta }

// UsageRecorder receives the token count of each completed turn.
type UsageRecorder interface {
	RecordUsage(tokens int)
}

// Orchestrator runs generation calls one at a time. Callers must not start a
// new Run before the previous one delivered its terminal event.
type Orchestrator struct {
	client     llm.Client
	creds      credential.Provider
	usage      UsageRecorder
	logger     *zap.Logger
	state      atomic.Int32
	generating atomic.Bool
}

func New(client llm.Client, creds credential.Provider, usage UsageRecorder, logger *zap.Logger) *Orchestrator {
	if creds == nil {
		creds = credential.None{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{client: client, creds: creds, usage: usage, logger: logger}
}

func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Generating is true from Run until just before the terminal event is sent.
func (o *Orchestrator) Generating() bool { return o.generating.Load() }

// Run starts the call and returns its events. The channel is closed after
// the terminal event. If ctx ends while the consumer is not reading, the run
// is abandoned without further sends.
func (o *Orchestrator) Run(ctx context.Context, req domain.GenerationRequest, cancel *CancelToken) <-chan Event {
	out := make(chan Event)
	o.generating.Store(true)
	o.state.Store(int32(Requesting))
	go o.run(ctx, req, cancel, out)
	return out
}

func (o *Orchestrator) run(ctx context.Context, req domain.GenerationRequest, cancel *CancelToken, out chan<- Event) {
	defer close(out)
	log := o.logger.With(zap.String("client", o.client.Name()), zap.String("model", req.Model))

	send := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	finish := func(st State, ev Event) {
		o.state.Store(int32(st))
		o.generating.Store(false)
		send(ev)
	}
	fail := func(err error) {
		log.Warn("generation failed", zap.Error(err))
		finish(Failed, Event{Kind: EventFailed, Err: err})
	}

	key, err := o.creds.APIKey(ctx)
	if err != nil {
		fail(err)
		return
	}

	callCtx, abort := context.WithCancel(ctx)
	defer abort()
	log.Debug("opening stream", zap.Int("context_chars", len(req.Context)))
	s, err := o.client.OpenStream(callCtx, key, req)
	if err != nil {
		fail(err)
		return
	}
	defer s.Close()

	var last *domain.StreamChunk
	received := 0
	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A cancel only takes effect on a received chunk; an error is not one.
			if cancel.Cancelled() {
				log = log.With(zap.Bool("cancel_requested", true))
			}
			fail(err)
			return
		}
		received++
		if received == 1 {
			o.state.Store(int32(Streaming))
		}
		c := chunk
		last = &c
		if cancel.Cancelled() {
			abort()
			log.Debug("stream cancelled", zap.Int("chunks", received))
			finish(Cancelled, Event{Kind: EventCancelled})
			return
		}
		if chunk.TextDelta == "" {
			continue
		}
		if !send(Event{Kind: EventDelta, Text: chunk.TextDelta}) {
			o.state.Store(int32(Failed))
			o.generating.Store(false)
			log.Debug("consumer gone", zap.Error(ctx.Err()))
			return
		}
	}

	if cancel.Cancelled() {
		log.Debug("stream cancelled at end", zap.Int("chunks", received))
		finish(Cancelled, Event{Kind: EventCancelled})
		return
	}

	done := Event{Kind: EventCompleted}
	if last != nil {
		done.Usage = last.Usage
		done.Sources = last.Sources
	}
	if done.Usage != nil && o.usage != nil {
		o.usage.RecordUsage(done.Usage.TotalTokens)
	}
	tokens := 0
	if done.Usage != nil {
		tokens = done.Usage.TotalTokens
	}
	log.Info("generation completed", zap.Int("chunks", received), zap.Int("total_tokens", tokens))
	finish(Completed, done)
}
