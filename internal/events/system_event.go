package events

import (
	"context"
	"sync"
)

// SystemEvent is a manual-clear event: once signaled it stays signaled, and
// every waiter is released, until a consumer calls Clear.
type SystemEvent struct {
	mu       sync.Mutex
	signaled bool
	ch       chan struct{} // closed while signaled
}

// NewSystemEvent returns an event in the cleared state.
func NewSystemEvent() *SystemEvent {
	return &SystemEvent{ch: make(chan struct{})}
}

// Signal raises the event. Signaling an already signaled event is a no-op.
func (e *SystemEvent) Signal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.signaled {
		return
	}
	e.signaled = true
	close(e.ch)
}

// Clear lowers the event so later waiters block until the next Signal.
func (e *SystemEvent) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.signaled {
		return
	}
	e.signaled = false
	e.ch = make(chan struct{})
}

// IsSignaled reports the current state without blocking.
func (e *SystemEvent) IsSignaled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}

// TryWait is an alias of IsSignaled kept for symmetry with Wait.
func (e *SystemEvent) TryWait() bool { return e.IsSignaled() }

// Done returns a channel that is closed once the event is signaled. The
// channel belongs to the current signal generation; after Clear a new call is
// needed to observe the next occurrence.
func (e *SystemEvent) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

// Wait blocks until the event is signaled or ctx is done. It does not clear.
func (e *SystemEvent) Wait(ctx context.Context) error {
	select {
	case <-e.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
