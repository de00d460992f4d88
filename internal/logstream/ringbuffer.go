package logstream

import (
	"sync"

	"github.com/devtether/tether/internal/domain"
)

// RingBuffer is a thread-safe bounded buffer of log entries. When full, the
// oldest entry is overwritten.
type RingBuffer struct {
	mu     sync.RWMutex
	buffer []domain.LogEntry
	size   int
	head   int
	count  int
}

// NewRingBuffer creates a ring buffer with the specified capacity.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 200
	}
	return &RingBuffer{
		buffer: make([]domain.LogEntry, size),
		size:   size,
	}
}

// Push adds an entry, dropping the oldest when the buffer is full.
func (rb *RingBuffer) Push(entry domain.LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.buffer[rb.head] = entry
	rb.head = (rb.head + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

// GetAll returns all entries in order (oldest first) without clearing.
func (rb *RingBuffer) GetAll() []domain.LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.snapshot()
}

// snapshot copies the buffered entries oldest-first. Caller must hold a lock.
func (rb *RingBuffer) snapshot() []domain.LogEntry {
	result := make([]domain.LogEntry, rb.count)
	if rb.count < rb.size {
		copy(result, rb.buffer[:rb.count])
	} else {
		copy(result, rb.buffer[rb.head:])
		copy(result[rb.size-rb.head:], rb.buffer[:rb.head])
	}
	return result
}

// GetLast returns the most recent n entries without clearing.
func (rb *RingBuffer) GetLast(n int) []domain.LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n > rb.count {
		n = rb.count
	}

	result := make([]domain.LogEntry, n)
	start := (rb.head - n + rb.size) % rb.size
	for i := 0; i < n; i++ {
		result[i] = rb.buffer[(start+i)%rb.size]
	}
	return result
}

// Drain atomically returns all entries (oldest first) and empties the buffer.
// A concurrent Push never observes a partial drain.
func (rb *RingBuffer) Drain() []domain.LogEntry {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	result := rb.snapshot()
	rb.head = 0
	rb.count = 0
	return result
}

// Count returns the number of buffered entries.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Clear empties the buffer.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.head = 0
	rb.count = 0
}

// CountBySeverity returns counts grouped by severity.
func (rb *RingBuffer) CountBySeverity() map[domain.Severity]int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	counts := make(map[domain.Severity]int)
	for _, e := range rb.snapshot() {
		counts[e.Severity]++
	}
	return counts
}
