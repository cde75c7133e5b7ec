// Package buffer provides the fixed-capacity rolling buffer of price observations.
//
// The buffer is not safe for concurrent use. It is owned by the polling
// controller's loop, which is its only writer and reader.
package buffer

import "StockSentinel/internal/model"

// DefaultCapacity is the number of observations kept when none is configured.
const DefaultCapacity = 100

// Ring is a fixed-capacity FIFO. Pushing into a full ring evicts the oldest entry.
type Ring[T any] struct {
	buf   []T
	head  int // oldest element
	count int
}

// NewRing creates a ring holding at most capacity items.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends item, evicting exactly one oldest item if the ring is full.
// It reports whether an item was evicted.
func (r *Ring[T]) Push(item T) bool {
	capacity := len(r.buf)
	tail := (r.head + r.count) % capacity
	r.buf[tail] = item
	if r.count < capacity {
		r.count++
		return false
	}
	r.head = (r.head + 1) % capacity
	return true
}

// Clear drops every item.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero // release references
	}
	r.head = 0
	r.count = 0
}

// Snapshot returns the items oldest first. The result is a copy.
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, r.count)
	capacity := len(r.buf)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%capacity]
	}
	return out
}

// Last returns the newest item.
func (r *Ring[T]) Last() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}

// Len returns the number of items held.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// ObservationBuffer is the rolling window of observations for the tracked symbol.
type ObservationBuffer struct {
	*Ring[model.Observation]
}

// New creates an observation buffer; a non-positive capacity uses DefaultCapacity.
func New(capacity int) *ObservationBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ObservationBuffer{Ring: NewRing[model.Observation](capacity)}
}

// Replace clears the buffer and bulk-appends obs in order. When obs is longer
// than the capacity only the newest entries remain.
func (b *ObservationBuffer) Replace(obs []model.Observation) {
	b.Clear()
	for _, o := range obs {
		b.Push(o)
	}
}
