package statesync

import (
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	clock := newFakeClock()
	d := newDebouncer(clock, 500*time.Millisecond)

	var fired []int
	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger(func() { fired = append(fired, i) })
		clock.Advance(50 * time.Millisecond)
	}

	if len(fired) != 0 {
		t.Fatalf("expected nothing before quiet period, got %v", fired)
	}
	clock.Advance(500 * time.Millisecond)
	if len(fired) != 1 || fired[0] != 5 {
		t.Fatalf("expected only the last call to fire, got %v", fired)
	}
}

func TestDebouncerFiresAgainAfterQuiet(t *testing.T) {
	clock := newFakeClock()
	d := newDebouncer(clock, 500*time.Millisecond)

	calls := 0
	d.Trigger(func() { calls++ })
	clock.Advance(600 * time.Millisecond)
	d.Trigger(func() { calls++ })
	clock.Advance(600 * time.Millisecond)

	if calls != 2 {
		t.Fatalf("expected separate bursts to fire separately, got %d", calls)
	}
}

func TestDebouncerFlushRunsPendingNow(t *testing.T) {
	clock := newFakeClock()
	d := newDebouncer(clock, 500*time.Millisecond)

	calls := 0
	d.Trigger(func() { calls++ })
	d.Flush()
	if calls != 1 {
		t.Fatalf("expected flush to run pending call, got %d", calls)
	}
	clock.Advance(time.Second)
	if calls != 1 {
		t.Fatalf("expected no second run after flush, got %d", calls)
	}
}

func TestDebouncerStopCancels(t *testing.T) {
	clock := newFakeClock()
	d := newDebouncer(clock, 500*time.Millisecond)

	calls := 0
	d.Trigger(func() { calls++ })
	d.Stop()
	clock.Advance(time.Second)
	if calls != 0 {
		t.Fatalf("expected stop to cancel pending call, got %d", calls)
	}
}
