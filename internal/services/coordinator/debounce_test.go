package coordinator

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesRapidTriggers(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)

	var fired atomic.Int64
	var lastGen atomic.Uint64
	fn := func(gen uint64) {
		fired.Add(1)
		lastGen.Store(gen)
	}

	d.trigger(fn)
	d.trigger(fn)
	want := d.trigger(fn)

	time.Sleep(150 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}
	if got := lastGen.Load(); got != want {
		t.Fatalf("fired with generation %d, want %d", got, want)
	}
}

func TestDebouncerStale(t *testing.T) {
	d := newDebouncer(time.Hour)

	gen1 := d.trigger(func(uint64) {})
	if d.stale(gen1) {
		t.Fatal("latest generation reported stale")
	}

	gen2 := d.trigger(func(uint64) {})
	if !d.stale(gen1) {
		t.Fatal("superseded generation not reported stale")
	}
	if d.stale(gen2) {
		t.Fatal("latest generation reported stale after retrigger")
	}
}

func TestDebouncerStopInvalidatesInFlight(t *testing.T) {
	d := newDebouncer(time.Hour)

	gen := d.trigger(func(uint64) {})
	d.stop()

	if !d.stale(gen) {
		t.Fatal("generation still current after stop")
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var fired atomic.Int64
	d.trigger(func(uint64) { fired.Add(1) })
	d.stop()

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("fired %d times after stop, want 0", got)
	}
}
