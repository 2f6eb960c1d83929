package coordinator

import (
	"sync"
	"time"
)

// debouncer coalesces rapid triggers into one callback per idle window and
// tags each trigger with a generation id. A completing query commits its
// result only if its captured generation still matches the current one, which
// gives last-write-wins semantics without cancelling in-flight work.
type debouncer struct {
	mu         sync.Mutex
	window     time.Duration
	timer      *time.Timer
	generation uint64
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window}
}

// trigger schedules fn to run after the idle window, superseding any pending
// trigger. fn receives the generation id of this trigger.
func (d *debouncer) trigger(fn func(generation uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	gen := d.generation

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { fn(gen) })
	return gen
}

// current returns the latest generation id.
func (d *debouncer) current() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

// stale reports whether the given generation has been superseded.
func (d *debouncer) stale(generation uint64) bool {
	return d.current() != generation
}

// stop cancels any pending trigger and invalidates in-flight generations.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
