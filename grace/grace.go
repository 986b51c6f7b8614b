// Package grace implements the startup grace window: a short interval after process start
// during which authorization failures are not allowed to tear down a session.
//
// The window and the session providers' hydration delay protect the same invariant from two
// layers: nothing may act on an authorization failure before the client has established its
// real session state. Keep both.
package grace

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultDuration is how long the window stays open if nobody closes it first.
const DefaultDuration = 2 * time.Second

// Window is open from construction until its timer fires or MarkInitialized is called,
// whichever comes first. It never reopens except through Reset.
type Window struct {
	clock    clock.WithDelayedExecution
	duration time.Duration

	mu    sync.Mutex
	open  bool
	gen   uint64
	timer clock.Timer
}

// Start opens a window that closes itself after d.
func Start(c clock.WithDelayedExecution, d time.Duration) *Window {
	if c == nil {
		c = clock.RealClock{}
	}
	if d <= 0 {
		d = DefaultDuration
	}
	w := &Window{clock: c, duration: d}
	w.Reset()
	return w
}

// Open reports whether authorization failures should still be ignored.
func (w *Window) Open() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// MarkInitialized closes the window now. Calling it again, or after the timer fired, does
// nothing. The pending timer is left to fire as a no-op, so this is safe to call from
// another timer's callback.
func (w *Window) MarkInitialized() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = false
}

// Stop closes the window and cancels its timer.
func (w *Window) Stop() {
	w.mu.Lock()
	w.open = false
	w.gen++
	t := w.timer
	w.timer = nil
	w.mu.Unlock()

	if t != nil {
		t.Stop()
	}
}

// Reset reopens the window and restarts its timer.
func (w *Window) Reset() {
	w.Stop()

	w.mu.Lock()
	w.open = true
	gen := w.gen
	w.mu.Unlock()

	t := w.clock.AfterFunc(w.duration, func() { w.expire(gen) })

	w.mu.Lock()
	if w.gen == gen {
		w.timer = t
	}
	w.mu.Unlock()
}

func (w *Window) expire(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen == gen {
		w.open = false
	}
}

// Duration returns the configured window length.
func (w *Window) Duration() time.Duration {
	return w.duration
}
