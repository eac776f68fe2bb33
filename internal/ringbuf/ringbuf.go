package ringbuf

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// MaxCapacity limits a single buffer allocation. Requests above this are
// rejected as a resource exhaustion error rather than attempted.
const MaxCapacity = 1 << 30 // 1 GiB

// RingBuffer is a fixed-capacity circular byte buffer for one producer and
// one consumer. All mutating operations are linearized by an internal spin
// lock; GetSize and GetAvailableBytes are lock-free best-effort snapshots.
//
// The zero value is an uninitialized buffer; call Init before use. A
// RingBuffer must not be copied after first use.
type RingBuffer struct {
	mu   spinLock
	data []byte

	// capacity is set by Init and read-only between re-initializations.
	capacity int

	// Monotonic byte counters, never wrapped. writePos >= readPos always;
	// writePos - readPos is the amount of unread data. Atomics so that the
	// lock-free snapshot accessors stay race-free.
	writePos atomic.Uint64
	readPos  atomic.Uint64

	// filling is the hysteresis gate: true until unread bytes exceed
	// capacity/2, re-armed when the buffer drains back to empty.
	filling atomic.Bool

	logger *slog.Logger
}

// SetLogger sets the logger used for fill/empty transition tracing. Must be
// called before the buffer is shared between goroutines.
func (rb *RingBuffer) SetLogger(logger *slog.Logger) {
	rb.logger = logger
}

func (rb *RingBuffer) log() *slog.Logger {
	if rb.logger != nil {
		return rb.logger
	}
	return slog.Default()
}

// Init allocates storage for the given capacity in bytes and resets the
// buffer to the empty, filling state. It may be called again to replace the
// storage with a new capacity; the old storage is released. Init must not be
// called concurrently with other operations on the same buffer.
//
// On failure the buffer is left without storage and every subsequent Put or
// Take returns ErrNotInitialized until a successful Init.
func (rb *RingBuffer) Init(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("invalid capacity: %d, must be greater than 0", capacity)
	}
	if capacity > MaxCapacity {
		return fmt.Errorf("requested buffer size too large: %d bytes (>1GB)", capacity)
	}

	// Allocate outside the critical section, the lock may be contended by a
	// non-blocking context and must never be held across an allocation.
	data := make([]byte, capacity)

	rb.mu.Lock()
	rb.data = data
	rb.capacity = capacity
	rb.writePos.Store(0)
	rb.readPos.Store(0)
	rb.filling.Store(true)
	rb.mu.Unlock()

	return nil
}

// Put copies p into the buffer. A write larger than the buffer capacity is
// rejected with ErrBufferTooSmall and no data is written; an empty write is
// a no-op. If the write does not fit in the remaining free space the oldest
// unread bytes are discarded to make room and Put returns ErrBufferOverflow,
// with the write still fully applied. Callers should treat overflow as a
// data loss diagnostic, not a failure.
func (rb *RingBuffer) Put(p []byte) error {
	rb.mu.Lock()

	if rb.data == nil {
		rb.mu.Unlock()
		return ErrNotInitialized
	}

	capacity := uint64(rb.capacity)
	count := uint64(len(p))
	if count > capacity {
		rb.mu.Unlock()
		return ErrBufferTooSmall
	}
	if count == 0 {
		rb.mu.Unlock()
		return nil
	}

	var err error
	writePos := rb.writePos.Load()
	readPos := rb.readPos.Load()

	// Overwrite-oldest policy: advance the read position so that exactly
	// one byte of the new data is readable beyond a full buffer. This
	// leaves capacity-1 bytes outstanding, matching the established
	// contract downstream consumers rely on.
	if (writePos+count)-readPos > capacity {
		err = ErrBufferOverflow
		readPos = (writePos + count) - capacity + 1
		rb.readPos.Store(readPos)
	}

	// Copy in at most two contiguous runs, wrapping across the end of
	// storage.
	offset := writePos % capacity
	n := copy(rb.data[offset:], p)
	if uint64(n) < count {
		copy(rb.data, p[n:])
	}
	writePos += count
	rb.writePos.Store(writePos)

	unread := writePos - readPos
	filled := false
	if rb.filling.Load() && unread > capacity/2 {
		// One-way latch per filling episode, re-armed only by draining to
		// empty.
		rb.filling.Store(false)
		filled = true
	}

	rb.mu.Unlock()

	if filled {
		rb.log().Debug("ring buffer filled past threshold", "unread_bytes", unread, "capacity", capacity)
	}

	return err
}

// Take copies up to len(p) unread bytes into p and reports how many bytes
// were copied. While the buffer is filling it returns 0 and ErrNotReady
// without copying anything. Take never waits for more data: it returns
// whatever is available, which may be less than len(p).
func (rb *RingBuffer) Take(p []byte) (int, error) {
	rb.mu.Lock()

	if rb.data == nil {
		rb.mu.Unlock()
		return 0, ErrNotInitialized
	}

	if rb.filling.Load() {
		rb.mu.Unlock()
		return 0, ErrNotReady
	}

	capacity := uint64(rb.capacity)
	writePos := rb.writePos.Load()
	readPos := rb.readPos.Load()

	// Clamp to the available unread bytes; requesting more than is
	// available is not an error.
	count := min(uint64(len(p)), writePos-readPos)

	offset := readPos % capacity
	first := min(count, capacity-offset)
	copy(p[:first], rb.data[offset:offset+first])
	copy(p[first:count], rb.data[:count-first])

	readPos += count
	rb.readPos.Store(readPos)

	emptied := false
	if writePos-readPos == 0 {
		// Drained to empty, re-arm the hysteresis gate for the next fill
		// cycle.
		rb.filling.Store(true)
		emptied = true
	}

	rb.mu.Unlock()

	if emptied {
		rb.log().Debug("ring buffer drained to empty", "capacity", capacity)
	}

	return int(count), nil
}

// GetSize returns the fixed capacity of the buffer, 0 if uninitialized.
func (rb *RingBuffer) GetSize() int {
	return rb.capacity
}

// GetAvailableBytes returns the amount of unread data, or 0 while the
// buffer is filling. It does not take the lock: the value is a best-effort
// snapshot and may be stale by the time the caller acts on it.
func (rb *RingBuffer) GetAvailableBytes() int {
	if rb.filling.Load() {
		return 0
	}
	writePos := rb.writePos.Load()
	readPos := rb.readPos.Load()
	// An in-flight overflowing Put advances readPos before writePos, so the
	// pair can be momentarily inverted. Clamp instead of underflowing.
	if readPos > writePos {
		return 0
	}
	return int(writePos - readPos)
}

// Clear zeroes the storage and resets the buffer to the empty, filling
// state without reallocating. Used on stream restart.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	clear(rb.data)
	rb.writePos.Store(0)
	rb.readPos.Store(0)
	rb.filling.Store(true)
	rb.mu.Unlock()
}
