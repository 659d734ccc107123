package experience

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrBufferClosed is returned when operations are attempted on a closed buffer
	ErrBufferClosed = errors.New("trace buffer is closed")
)

// Buffer represents a thread-safe circular buffer of trace records. When
// full, the oldest record is dropped.
type Buffer struct {
	mu       sync.RWMutex
	buffer   []*Record
	capacity int
	size     int
	head     int // Write position
	tail     int // Read position
	closed   bool

	// Statistics
	totalAdded   int64
	totalDropped int64
	totalDrained int64

	logger zerolog.Logger
}

// NewBuffer creates a new trace buffer with the specified capacity
func NewBuffer(capacity int, logger zerolog.Logger) *Buffer {
	if capacity <= 0 {
		capacity = 4096 // Default capacity
	}

	return &Buffer{
		buffer:   make([]*Record, capacity),
		capacity: capacity,
		logger:   logger.With().Str("component", "trace_buffer").Logger(),
	}
}

// Add adds a record to the buffer
func (b *Buffer) Add(rec *Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	b.push(rec)
	return nil
}

// AddBatch adds multiple records to the buffer
func (b *Buffer) AddBatch(records []*Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	for _, rec := range records {
		b.push(rec)
	}
	return nil
}

func (b *Buffer) push(rec *Record) {
	if b.size >= b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.totalDropped++
		b.logger.Debug().
			Int64("dropped_total", b.totalDropped).
			Msg("Buffer full, dropping oldest record")
	} else {
		b.size++
	}
	b.buffer[b.head] = rec
	b.head = (b.head + 1) % b.capacity
	b.totalAdded++
}

// GetAll returns every buffered record, oldest first, without removing them
func (b *Buffer) GetAll() []*Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.collect(b.size)
}

// GetLatest returns the n most recent records, oldest first
func (b *Buffer) GetLatest(n int) []*Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.size {
		n = b.size
	}
	out := make([]*Record, n)
	start := (b.head - n + b.capacity) % b.capacity
	for i := 0; i < n; i++ {
		out[i] = b.buffer[(start+i)%b.capacity]
	}
	return out
}

// Drain removes and returns every buffered record, oldest first
func (b *Buffer) Drain() []*Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.collect(b.size)
	b.totalDrained += int64(len(out))
	b.reset()
	return out
}

func (b *Buffer) collect(n int) []*Record {
	out := make([]*Record, n)
	for i := 0; i < n; i++ {
		out[i] = b.buffer[(b.tail+i)%b.capacity]
	}
	return out
}

func (b *Buffer) reset() {
	for i := range b.buffer {
		b.buffer[i] = nil
	}
	b.size, b.head, b.tail = 0, 0, 0
}

// Size returns the current number of records in the buffer
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the buffer capacity
func (b *Buffer) Capacity() int {
	return b.capacity
}

// IsFull returns true if the buffer is at capacity
func (b *Buffer) IsFull() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size >= b.capacity
}

// Clear removes all records from the buffer
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

// Close closes the buffer; later adds fail with ErrBufferClosed
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	b.closed = true
	b.logger.Info().
		Int64("total_added", b.totalAdded).
		Int64("total_dropped", b.totalDropped).
		Int64("total_drained", b.totalDrained).
		Msg("Trace buffer closed")
	return nil
}

// Stats returns buffer statistics
func (b *Buffer) Stats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BufferStats{
		Size:         b.size,
		Capacity:     b.capacity,
		TotalAdded:   b.totalAdded,
		TotalDropped: b.totalDropped,
		TotalDrained: b.totalDrained,
	}
}

// BufferStats contains buffer statistics
type BufferStats struct {
	Size         int
	Capacity     int
	TotalAdded   int64
	TotalDropped int64
	TotalDrained int64
}
