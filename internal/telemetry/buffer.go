package telemetry

import "sync"

// CircularBuffer is a fixed-capacity FIFO buffer. Once full, each Add evicts
// the oldest item.
type CircularBuffer[T any] struct {
	items    []T
	head     int // Next write position
	size     int // Current number of items
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity

	if b.size < b.capacity {
		b.size++
	}
}

// Items returns a copy of all items, oldest first.
func (b *CircularBuffer[T]) Items() []T {
	return b.Last(b.capacity)
}

// Last returns a copy of the n most recent items, oldest first.
func (b *CircularBuffer[T]) Last(n int) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []T{}
	}

	result := make([]T, n)
	// Index of the oldest requested item
	start := (b.head - n + b.capacity) % b.capacity
	for i := 0; i < n; i++ {
		result[i] = b.items[(start+i)%b.capacity]
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the maximum number of items.
func (b *CircularBuffer[T]) Capacity() int {
	return b.capacity
}
