package service

import (
	"context"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/errclass"
	"docchat/internal/metrics"
	"docchat/internal/stream"
)

// Outcome is how a turn ended.
type Outcome string

const (
	OutcomePending   Outcome = ""
	OutcomeCompleted Outcome = metrics.OutcomeCompleted
	OutcomeCancelled Outcome = metrics.OutcomeCancelled
	OutcomeFailed    Outcome = metrics.OutcomeFailed
	OutcomeRefused   Outcome = metrics.OutcomeRefused
)

// Turn applies the events of one generation run to its model message.
// Next must be called from one goroutine at a time.
type Turn struct {
	svc     *ChatService
	pos     int
	events  <-chan stream.Event
	outcome Outcome
	failure errclass.Failure
	err     error
}

// Next receives one event and applies it to the model message. It returns
// false once the turn has ended.
func (t *Turn) Next() (stream.Event, bool) {
	if t.events == nil {
		return stream.Event{}, false
	}
	ev, ok := <-t.events
	if !ok {
		t.events = nil
		if t.outcome == OutcomePending {
			// The run was abandoned through its context.
			t.finish(OutcomeCancelled, errclass.CancelledByUser)
		}
		return stream.Event{}, false
	}
	t.apply(ev)
	return ev, true
}

// Wait drains the turn and returns the final model message.
func (t *Turn) Wait() domain.Message {
	for {
		if _, ok := t.Next(); !ok {
			return t.Message()
		}
	}
}

func (t *Turn) Message() domain.Message { return t.svc.message(t.pos) }

func (t *Turn) Outcome() Outcome { return t.outcome }

// Failure is the taxonomy entry for a turn that did not complete normally.
func (t *Turn) Failure() errclass.Failure { return t.failure }

// Err is the underlying error of a failed turn.
func (t *Turn) Err() error { return t.err }

func (t *Turn) Done() bool { return t.outcome != OutcomePending }

func (t *Turn) finish(o Outcome, f errclass.Failure) {
	t.outcome = o
	t.failure = f
}

func (t *Turn) apply(ev stream.Event) {
	s := t.svc
	if !ev.Terminal() {
		s.update(t.pos, func(m *domain.Message) { m.Text += ev.Text })
		return
	}
	switch ev.Kind {
	case stream.EventCompleted:
		s.update(t.pos, func(m *domain.Message) { m.Sources = ev.Sources })
		if ev.Usage != nil {
			s.deps.Metrics.Tokens(ev.Usage.TotalTokens)
		}
		s.deps.Metrics.Turn(metrics.OutcomeCompleted)
		if err := s.saveBudget(context.Background()); err != nil {
			s.log.Warn("saving budget failed", zap.Error(err))
		}
		t.finish(OutcomeCompleted, "")
	case stream.EventCancelled:
		s.deps.Metrics.Turn(metrics.OutcomeCancelled)
		t.finish(OutcomeCancelled, errclass.CancelledByUser)
	case stream.EventFailed:
		res := errclass.ClassifyError(ev.Err)
		s.update(t.pos, func(m *domain.Message) { m.Text = errclass.UserMessage(res.Category) })
		if res.MustReauthenticate && s.deps.Credentials != nil {
			if err := s.deps.Credentials.Clear(context.Background()); err != nil {
				s.log.Warn("clearing credential failed", zap.Error(err))
			}
		}
		s.log.Warn("turn failed", zap.String("category", res.Category.String()), zap.Error(ev.Err))
		s.deps.Metrics.Turn(metrics.OutcomeFailed)
		t.err = ev.Err
		t.finish(OutcomeFailed, res.Category.Failure())
	}
}
