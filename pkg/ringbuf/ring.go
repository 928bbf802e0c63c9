// SPDX-License-Identifier: MIT
//
// Package ringbuf provides a fixed-capacity, overwrite-oldest sequence container.
// It is the storage substrate for every rolling window in the decision pipeline:
// pushing into a full ring evicts the oldest element and hands it back to the
// caller, which lets running sums "forget" values in O(1).
//
// A Ring is not safe for concurrent use. Each pipeline owns its rings and drives
// them from a single goroutine.
package ringbuf

import "iter"

// Ring is a fixed-capacity FIFO. Iteration order is always oldest first.
type Ring[T any] struct {
	data []T
	head int // next write position
	size int // number of live elements, never above len(data)
}

// New allocates a ring holding at most capacity elements. A capacity below
// one is raised to one so that Push always has somewhere to write.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Push appends v. When the ring is full the oldest element is overwritten and
// returned with evicted == true.
func (r *Ring[T]) Push(v T) (old T, evicted bool) {
	if r.size == len(r.data) {
		old = r.data[r.head]
		evicted = true
	} else {
		r.size++
	}
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	return old, evicted
}

// Oldest returns the element the next Push would evict once the ring is full.
func (r *Ring[T]) Oldest() (T, bool) {
	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.data[r.start()], true
}

// Latest returns the most recently pushed element.
func (r *Ring[T]) Latest() (T, bool) {
	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.data[(r.head-1+len(r.data))%len(r.data)], true
}

// At returns the i-th element counting from the oldest. It panics when i is
// out of range, matching slice indexing.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.size {
		panic("ringbuf: index out of range")
	}
	return r.data[(r.start()+i)%len(r.data)]
}

// All iterates index/value pairs from oldest to newest.
func (r *Ring[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		start := r.start()
		for i := 0; i < r.size; i++ {
			if !yield(i, r.data[(start+i)%len(r.data)]) {
				return
			}
		}
	}
}

// Values copies the live elements into a new slice, oldest first.
// Returns nil for an empty ring.
func (r *Ring[T]) Values() []T {
	if r.size == 0 {
		return nil
	}
	out := make([]T, 0, r.size)
	for _, v := range r.All() {
		out = append(out, v)
	}
	return out
}

// Len returns the number of live elements.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.data) }

// Full reports whether the next Push will evict.
func (r *Ring[T]) Full() bool { return r.size == len(r.data) }

// Reset drops every element without reallocating.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.head = 0
	r.size = 0
}

func (r *Ring[T]) start() int {
	return (r.head - r.size + len(r.data)) % len(r.data)
}
