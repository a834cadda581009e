// Package events provides the manual-clear SystemEvent signaled by device
// interrupts and a publish-subscribe bus for delivering charger notifications
// over SSE.
package events

import (
	"log/slog"
	"sync"

	"github.com/micro-nova/powctl-go/internal/models"
)

const subBufferSize = 8

// Bus fans charger notifications out to SSE subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the notification, and
// the miss is counted.
type Bus struct {
	mu      sync.Mutex
	subs    map[string]chan models.Notification
	dropped map[string]uint64
}

func NewBus() *Bus {
	return &Bus{
		subs:    make(map[string]chan models.Notification),
		dropped: make(map[string]uint64),
	}
}

// Subscribe registers id and returns its notification channel. Subscribing
// an id twice replaces (and closes) the earlier channel.
func (b *Bus) Subscribe(id string) <-chan models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subs[id]; ok {
		close(old)
	}
	ch := make(chan models.Notification, subBufferSize)
	b.subs[id] = ch
	b.dropped[id] = 0
	return ch
}

// Unsubscribe closes the channel for id. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(ch)
	if n := b.dropped[id]; n > 0 {
		slog.Info("events: subscriber left with missed notifications", "id", id, "dropped", n)
	}
	delete(b.dropped, id)
}

func (b *Bus) Publish(n models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- n:
		default:
			b.dropped[id]++
			slog.Debug("events: subscriber full, notification dropped", "id", id, "code", n.Code)
		}
	}
}

// Dropped reports how many notifications id has missed so far.
func (b *Bus) Dropped(id string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped[id]
}

func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
