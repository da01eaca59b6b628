package budget

import "sync"

// Snapshot is the persisted form of a Tracker.
type Snapshot struct {
	TotalLimit int `json:"total_limit"`
	Consumed   int `json:"consumed"`
	Turns      int `json:"turns"`
}

// Tracker accumulates consumed tokens across completed turns. Consumed only
// grows until Reset.
type Tracker struct {
	mu         sync.RWMutex
	totalLimit int
	consumed   int
	turns      int
}

func NewTracker(totalLimit int) *Tracker {
	if totalLimit < 0 {
		totalLimit = 0
	}
	return &Tracker{totalLimit: totalLimit}
}

// RecordUsage adds the tokens of one completed turn. Negative values are
// ignored so consumption never decreases.
func (t *Tracker) RecordUsage(tokens int) {
	if tokens < 0 {
		tokens = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consumed += tokens
	t.turns++
}

// Remaining is the unspent budget, floored at zero.
func (t *Tracker) Remaining() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r := t.totalLimit - t.consumed; r > 0 {
		return r
	}
	return 0
}

// OverLimit reports whether consumption has reached the limit.
func (t *Tracker) OverLimit() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.consumed >= t.totalLimit
}

// EstimateRemainingTurns divides the remaining budget by the average cost of
// a turn. The running average is used once a turn has completed; until then
// staticEstimate stands in for it.
func (t *Tracker) EstimateRemainingTurns(staticEstimate int) int {
	t.mu.RLock()
	avg := staticEstimate
	if t.turns > 0 && t.consumed > 0 {
		avg = t.consumed / t.turns
	}
	t.mu.RUnlock()
	if avg <= 0 {
		return 0
	}
	return t.Remaining() / avg
}

func (t *Tracker) Consumed() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.consumed
}

func (t *Tracker) Turns() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.turns
}

func (t *Tracker) TotalLimit() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalLimit
}

// Reset clears consumption. It is the only way consumed goes down.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consumed = 0
	t.turns = 0
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{TotalLimit: t.totalLimit, Consumed: t.consumed, Turns: t.turns}
}

// Restore loads persisted consumption. The configured limit is kept.
func (t *Tracker) Restore(s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s.Consumed > 0 {
		t.consumed = s.Consumed
	}
	if s.Turns > 0 {
		t.turns = s.Turns
	}
}
