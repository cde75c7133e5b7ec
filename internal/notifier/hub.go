package notifier

import (
	"context"
	"log"
	"sync"

	"StockSentinel/internal/model"
)

// Hub fans controller events out to any number of subscribers. A subscriber
// that falls behind loses events instead of stalling the others.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan model.Event
	next   uint64
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan model.Event)}
}

// Subscribe registers a subscriber with the given queue size. The returned
// function unsubscribes and closes the channel.
func (h *Hub) Subscribe(size int) (<-chan model.Event, func()) {
	if size <= 0 {
		size = 16
	}
	ch := make(chan model.Event, size)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[WARN] subscriber %d is behind, dropping %s", id, ev.Kind)
		}
	}
}

// Run forwards events from src until ctx is cancelled or src is closed, then
// closes every subscriber.
func (h *Hub) Run(ctx context.Context, src <-chan model.Event) {
	defer h.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			h.Publish(ev)
		}
	}
}

// Close closes every subscriber channel. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
