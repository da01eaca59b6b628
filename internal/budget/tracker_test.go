package budget

import "testing"

func TestTrackerRemainingNeverNegative(t *testing.T) {
	tr := NewTracker(100)
	for _, n := range []int{30, 50, 40, -20, 1000, 0} {
		tr.RecordUsage(n)
		if tr.Remaining() < 0 {
			t.Fatalf("remaining went negative after %d: %d", n, tr.Remaining())
		}
	}
	if tr.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", tr.Remaining())
	}
	if !tr.OverLimit() {
		t.Fatalf("expected over-limit state")
	}
	if tr.Consumed() != 1120 {
		t.Fatalf("expected consumed 1120, got %d", tr.Consumed())
	}
}

func TestTrackerConsumedIsMonotone(t *testing.T) {
	tr := NewTracker(1000)
	prev := 0
	for _, n := range []int{5, -3, 0, 12, -100} {
		tr.RecordUsage(n)
		if tr.Consumed() < prev {
			t.Fatalf("consumed decreased from %d to %d", prev, tr.Consumed())
		}
		prev = tr.Consumed()
	}
}

func TestTrackerEstimateRemainingTurns(t *testing.T) {
	tr := NewTracker(10000)
	if got := tr.EstimateRemainingTurns(500); got != 20 {
		t.Fatalf("expected static estimate 20 turns, got %d", got)
	}
	tr.RecordUsage(1000)
	tr.RecordUsage(3000)
	// average 2000, remaining 6000
	if got := tr.EstimateRemainingTurns(500); got != 3 {
		t.Fatalf("expected 3 turns from running average, got %d", got)
	}
	if got := NewTracker(100).EstimateRemainingTurns(0); got != 0 {
		t.Fatalf("expected 0 without any estimate, got %d", got)
	}
}

func TestTrackerResetAndRestore(t *testing.T) {
	tr := NewTracker(500)
	tr.RecordUsage(200)
	snap := tr.Snapshot()
	if snap.Consumed != 200 || snap.Turns != 1 || snap.TotalLimit != 500 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	tr.Reset()
	if tr.Consumed() != 0 || tr.Turns() != 0 || tr.Remaining() != 500 {
		t.Fatalf("reset did not clear state: %+v", tr.Snapshot())
	}
	other := NewTracker(800)
	other.Restore(snap)
	if other.Consumed() != 200 || other.Turns() != 1 || other.TotalLimit() != 800 {
		t.Fatalf("unexpected restored state %+v", other.Snapshot())
	}
}
