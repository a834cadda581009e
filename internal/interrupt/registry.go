// Package interrupt binds hardware interrupt sources to handlers and turns
// GPIO edges into dispatches.
package interrupt

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/micro-nova/powctl-go/internal/gpio"
)

// PollInterval bounds how long Watch blocks in one WaitForEdge call before
// re-checking its context.
const PollInterval = 250 * time.Millisecond

var ErrNilHandler = errors.New("interrupt: nil handler")

// Handler receives interrupts raised by one source. Signal runs on the
// dispatching goroutine and must not block.
type Handler interface {
	Source() gpio.DeviceCode
	Signal()
}

// Registry maps interrupt sources to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[gpio.DeviceCode][]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[gpio.DeviceCode][]Handler)}
}

// Register adds h for its source. Registering the same handler twice is a no-op.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	src := h.Source()
	for _, cur := range r.handlers[src] {
		if cur == h {
			return nil
		}
	}
	r.handlers[src] = append(r.handlers[src], h)
	slog.Debug("interrupt: handler registered", "source", src)
	return nil
}

// Unregister removes h. Unknown handlers are ignored.
func (r *Registry) Unregister(h Handler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	src := h.Source()
	hs := r.handlers[src]
	for i, cur := range hs {
		if cur == h {
			hs = append(hs[:i:i], hs[i+1:]...)
			break
		}
	}
	if len(hs) == 0 {
		delete(r.handlers, src)
	} else {
		r.handlers[src] = hs
	}
}

// Count returns the number of handlers bound to src.
func (r *Registry) Count(src gpio.DeviceCode) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[src])
}

// Dispatch signals every handler bound to src and returns how many ran.
func (r *Registry) Dispatch(src gpio.DeviceCode) int {
	r.mu.RLock()
	hs := make([]Handler, len(r.handlers[src]))
	copy(hs, r.handlers[src])
	r.mu.RUnlock()

	for _, h := range hs {
		h.Signal()
	}
	return len(hs)
}

// Watch waits for edges on pin and dispatches src for each one until ctx is
// done. It always returns ctx.Err().
func (r *Registry) Watch(ctx context.Context, src gpio.DeviceCode, pin gpio.EdgeWaiter) error {
	slog.Info("interrupt: watching", "source", src)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !pin.WaitForEdge(PollInterval) {
			continue
		}
		n := r.Dispatch(src)
		slog.Debug("interrupt: edge", "source", src, "handlers", n)
	}
}
