// Package netidle tracks in-flight network requests reported by a browser
// engine and waits for a quiescence window without any of them.
package netidle

import (
	"context"
	"sync"
	"time"
)

// Tracker counts in-flight requests by id. It is safe for concurrent use:
// engines report events from their own goroutines while the pipeline waits.
type Tracker struct {
	mu           sync.Mutex
	inflight     map[string]struct{}
	lastActivity time.Time
	changed      chan struct{}
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		inflight:     make(map[string]struct{}),
		lastActivity: time.Now(),
		changed:      make(chan struct{}),
	}
}

// Start records a request as in flight.
func (t *Tracker) Start(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.touch()
}

// Done records a request as finished, failed or cancelled. Unknown ids
// still count as activity.
func (t *Tracker) Done(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, id)
	t.touch()
}

// Reset forgets every in-flight request, e.g. before a new navigation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = make(map[string]struct{})
	t.touch()
}

// InFlight returns the number of requests currently in flight.
func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// touch must be called with mu held.
func (t *Tracker) touch() {
	t.lastActivity = time.Now()
	close(t.changed)
	t.changed = make(chan struct{})
}

// Wait blocks until no request has been in flight for window, measured
// from the later of the call and the last network activity. It returns
// ctx.Err() if ctx ends first.
func (t *Tracker) Wait(ctx context.Context, window time.Duration) error {
	start := time.Now()
	for {
		t.mu.Lock()
		busy := len(t.inflight) > 0
		since := t.lastActivity
		if since.Before(start) {
			since = start
		}
		changed := t.changed
		t.mu.Unlock()

		var tm *time.Timer
		var timer <-chan time.Time
		if !busy {
			remaining := window - time.Since(since)
			if remaining <= 0 {
				return nil
			}
			tm = time.NewTimer(remaining)
			timer = tm.C
		}

		select {
		case <-ctx.Done():
			if tm != nil {
				tm.Stop()
			}
			return ctx.Err()
		case <-changed:
		case <-timer:
		}
		if tm != nil {
			tm.Stop()
		}
	}
}
